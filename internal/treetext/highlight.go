/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package treetext

import (
	"encoding/json"
	"strings"
)

// Span is a byte range [Start, End) of the tree text.
type Span struct {
	Start, End int
}

// Empty reports whether the span selects nothing.
func (s Span) Empty() bool { return s.End <= s.Start }

type frame struct {
	start     int
	object    bool
	expectKey bool
	key       string
	target    bool
}

// Highlight returns the span of the JSON object whose "id" member equals id,
// from its opening to its matching closing brace. ok is false when the id
// does not occur or the text is not valid JSON up to the object's end.
func Highlight(text, id string) (span Span, ok bool) {
	if id == "" {
		return Span{}, false
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var stack []*frame
	found := false

	// valueDone marks the end of a member value in the enclosing object.
	valueDone := func() {
		if len(stack) > 0 && stack[len(stack)-1].object {
			stack[len(stack)-1].expectKey = true
		}
	}

	for {
		off := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			return Span{}, false
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				stack = append(stack, &frame{start: tokenStart(text, off), object: t == '{', expectKey: t == '{'})
			case '}', ']':
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.target {
					return Span{Start: top.start, End: int(dec.InputOffset())}, true
				}
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.object && top.expectKey {
					top.key = t
					top.expectKey = false
					continue
				}
				if top.object && !found && top.key == "id" && t == id {
					top.target = true
					found = true
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
}

// tokenStart skips the whitespace and separators the decoder has not yet
// consumed in front of a token.
func tokenStart(text string, off int) int {
	for off < len(text) {
		switch text[off] {
		case ' ', '\t', '\r', '\n', ',', ':':
			off++
		default:
			return off
		}
	}
	return off
}
