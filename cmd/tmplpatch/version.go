// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// VersionInfo is read from the build info embedded by the go toolchain
type VersionInfo struct {
	Module    string
	Version   string
	GoVersion string
	Platform  string
	Revision  string
	Time      string
	Modified  bool
}

// GetVersionInfo returns the version information from build info
func GetVersionInfo() *VersionInfo {
	info := &VersionInfo{
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Module = buildInfo.Main.Path
	if v := buildInfo.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.Time = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}

	return info
}

// Short is the version followed by the abbreviated revision, if known
func (v *VersionInfo) Short() string {
	if v.Revision == "" {
		return v.Version
	}
	rev := v.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if v.Modified {
		rev += "-dirty"
	}
	return v.Version + "+" + rev
}

// FormatVersion returns a formatted string of version information
func FormatVersion() string {
	info := GetVersionInfo()

	var sb strings.Builder
	sb.WriteString("🚀 tmplpatch version info:\n")
	fmt.Fprintf(&sb, "Version:   %s\n", info.Short())
	if info.Module != "" {
		fmt.Fprintf(&sb, "Module:    %s\n", info.Module)
	}
	if info.Time != "" {
		fmt.Fprintf(&sb, "Built:     %s\n", info.Time)
	}
	fmt.Fprintf(&sb, "Go:        %s\n", info.GoVersion)
	fmt.Fprintf(&sb, "Platform:  %s\n", info.Platform)
	return sb.String()
}
