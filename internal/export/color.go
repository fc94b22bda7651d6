/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// paint is a resolved fill or stroke. A zero-value paint draws nothing.
type paint struct {
	c  color.RGBA
	on bool
}

// parsePaint resolves an SVG paint value. Values it cannot resolve (gradients, modern colour
// functions) fall back to def so the shape still shows up.
func parsePaint(s string, def paint) paint {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return def
	case s == "none" || s == "transparent":
		return paint{}
	case strings.HasPrefix(s, "#"):
		if c, ok := parseHex(s[1:]); ok {
			return paint{c: c, on: true}
		}
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		if c, ok := parseRGBFunc(s); ok {
			return paint{c: c, on: true}
		}
	default:
		if c, ok := colornames.Map[s]; ok {
			return paint{c: c, on: true}
		}
	}
	if def.on {
		return def
	}
	return paint{c: color.RGBA{A: 255}, on: true}
}

func parseHex(h string) (color.RGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

func parseRGBFunc(s string) (color.RGBA, bool) {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, false
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) < 3 {
		return color.RGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		p := parts[i]
		pct := strings.HasSuffix(p, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return color.RGBA{}, false
		}
		if pct {
			f = f * 255 / 100
		}
		ch[i] = uint8(min(max(f, 0), 255))
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 255}, true
}
