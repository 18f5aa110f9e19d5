//go:build tools

// Package tools pins the versions of the tools used to lint, license, test
// and release tmplpatch.
package tools

import (
	_ "github.com/go-task/task/v3/cmd/task"
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "github.com/google/addlicense"
	_ "github.com/goreleaser/goreleaser/v2"
	_ "gotest.tools/gotestsum"
)
