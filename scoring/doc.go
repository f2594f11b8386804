// Copyright 2025 Poiesic Systems
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


// Package scoring implements deterministic business-rule scoring for
// candidate/project pairs.
//
// Two entry points are provided:
//   - PassesHardFilters / HardFilter: boolean eligibility checks (location,
//     minimum experience, salary compatibility, required skills)
//   - BusinessScore: a 0-100 score split into skill (0-40), experience (0-30)
//     and other factors (0-30), with an explainable Breakdown
//
// Free-text fields are interpreted with a fixed keyword table and a small set
// of ordered regular expressions. Nothing in this package performs I/O.
package scoring
