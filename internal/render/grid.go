/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"math"
	"strings"

	"svgadjuster/internal/document"
)

const (
	gridStroke      = "rgba(200, 200, 200, 0.3)"
	gridStrokeWidth = "0.5"
	// maxGridLines bounds each axis for tiny grid sizes.
	maxGridLines = 2000
)

// GridMarkup returns the overlay group for vb: vertical and horizontal
// lines every size units, aligned to multiples of size. It returns "" when
// size is not positive.
func GridMarkup(vb document.ViewBox, size float64) string {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return ""
	}
	f := document.FormatNumber
	var b strings.Builder
	b.WriteString(`<g id="` + GridID + `" style="pointer-events: none;">`)
	line := func(x1, y1, x2, y2 float64) {
		b.WriteString(`<line x1="` + f(x1) + `" y1="` + f(y1) + `" x2="` + f(x2) + `" y2="` + f(y2) +
			`" stroke="` + gridStroke + `" stroke-width="` + gridStrokeWidth + `"></line>`)
	}
	n := 0
	for x := math.Ceil(vb.X/size) * size; x <= vb.X+vb.Width && n < maxGridLines; x += size {
		line(x, vb.Y, x, vb.Y+vb.Height)
		n++
	}
	n = 0
	for y := math.Ceil(vb.Y/size) * size; y <= vb.Y+vb.Height && n < maxGridLines; y += size {
		line(vb.X, y, vb.X+vb.Width, y)
		n++
	}
	b.WriteString(`</g>`)
	return b.String()
}
