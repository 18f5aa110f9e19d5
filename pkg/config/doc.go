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

/*
Package config loads patch definitions and turns them into patch jobs.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 A config names one root directory, shared markup fragments and a list of
patches. Each patch becomes one patch.Job.

Markup fragments are declared once and referenced by name from rules with
replace_markup, so the navbar exists in exactly one place. A fragment can be
inline text, a file next to the config, or an element lifted from a reference
template under the root.

	root = "./views"

	markup "navbar" {
	  extract {
	    file  = "dashboard.ejs"
	    tag   = "nav"
	    class = "navbar"
	  }
	}

	patch "navbar" {
	  exclude      = ["login.ejs"]
	  active_links = { "messages.ejs" = "/messages" }

	  rule "header-include" {
	    match          = "<%- include('partials/header') %>"
	    replace_markup = "navbar"
	  }
	}

HCL configs may reference var.<name>, supplied with --var name=value.
*/
package config
