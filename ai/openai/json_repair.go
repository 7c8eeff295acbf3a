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
	"regexp"
	"strings"
)

var (
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
	// A key whose opening quote was dropped: {Issue Type": or , Date":
	unquotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z][A-Za-z ]*)":`)
)

// cleanResponse strips markdown fences around a model response.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes the formatting mistakes small models commonly make:
// trailing commas and keys missing their opening quote.
func repairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	return unquotedKey.ReplaceAllString(s, `$1"$2":`)
}
