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
Package status owns file access below the root and the per-file outcome log.

	+-------------+        +-------------+
	|   patch     | -----> |   Manager   |
	|  (engine)   |        |  read/write |
	+-------------+        |  track      |
	                       +------+------+
	                              |
	                       +------+------+
	                       |  Formatter  |
	                       |   (UI/UX)   |
	                       +-------------+

🎯 Every candidate file ends in exactly one outcome:
  - patched: content changed and was written atomically
  - skipped: no rule matched, every rule was already applied, or the file is excluded
  - error: reading, decoding or writing failed; the run continues

Writes go through a temp file in the target's directory followed by a rename,
so a reader never sees a partially written template. No backup is kept.
*/
package status
