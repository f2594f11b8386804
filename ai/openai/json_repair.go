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


package openai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// `, score":` or `{ id":` with the opening quote missing.
	halfQuotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)":`)
	// `score:` with no quotes at all.
	bareKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	// `,}` or `,]` left behind by truncated lists.
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// repairJSON fixes the formatting slips models make in relevance replies:
// prose around the object, keys missing one or both quotes and trailing
// commas. Valid input passes through unchanged.
func repairJSON(s string) string {
	s = outermostObject(s)
	if json.Valid([]byte(s)) {
		return s
	}
	s = halfQuotedKey.ReplaceAllString(s, `$1"$2":`)
	s = bareKey.ReplaceAllString(s, `$1"$2":`)
	return trailingComma.ReplaceAllString(s, "$1")
}

// outermostObject trims anything before the first brace and after the last.
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
