/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tree

import (
	"regexp"
	"strconv"
	"strings"

	"svgadjuster/internal/document"
)

var (
	reTranslate = regexp.MustCompile(`translate\(([^)]*)\)`)
	reNumber    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// parseNumber accepts the SVG number grammar only; strconv alone would also
// take NaN, Inf and hex floats.
func parseNumber(s string) (float64, bool) {
	if !reNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Translate shifts the node by (dx, dy). Positional attributes are shifted
// per kind and only when they hold a number; paths and containers compose
// into their transform. Polylines and polygons are left unchanged.
func Translate(root *document.Root, id string, dx, dy float64) {
	n := FindByID(root, id)
	if n == nil {
		return
	}
	switch n.Kind {
	case document.KindRect, document.KindImage, document.KindText:
		shift(n, "x", dx)
		shift(n, "y", dy)
	case document.KindCircle, document.KindEllipse:
		shift(n, "cx", dx)
		shift(n, "cy", dy)
	case document.KindLine:
		shift(n, "x1", dx)
		shift(n, "x2", dx)
		shift(n, "y1", dy)
		shift(n, "y2", dy)
	case document.KindPath, document.KindGroup, document.KindMarker:
		n.SetAttr("transform", ComposeTranslate(n.Attrs["transform"], dx, dy))
	}
}

// GroupTranslate translates the node's enclosing group, or the node itself
// when it is ungrouped.
func GroupTranslate(root *document.Root, id string, dx, dy float64) {
	target := FindEnclosingGroup(root, id)
	if target == nil {
		target = FindByID(root, id)
	}
	if target != nil {
		Translate(root, target.ID, dx, dy)
	}
}

func shift(n *document.Node, attr string, d float64) {
	v, ok := n.Attr(attr)
	if !ok {
		return
	}
	f, ok := parseNumber(strings.TrimSpace(v))
	if !ok {
		return
	}
	n.SetAttr(attr, document.FormatNumber(f+d))
}

// ComposeTranslate adds (dx, dy) to the first translate() of a transform
// list. A malformed translate counts as translate(0,0). Without one, the
// new translate is prepended so it applies after the existing functions.
func ComposeTranslate(transform string, dx, dy float64) string {
	transform = strings.TrimSpace(transform)
	loc := reTranslate.FindStringSubmatchIndex(transform)
	if loc == nil {
		t := formatTranslate(dx, dy)
		if transform == "" {
			return t
		}
		return t + " " + transform
	}
	tx, ty := parseTranslateArgs(transform[loc[2]:loc[3]])
	return transform[:loc[0]] + formatTranslate(tx+dx, ty+dy) + transform[loc[1]:]
}

// TranslateOf returns the offset of the first translate() in a transform list.
func TranslateOf(transform string) (tx, ty float64, ok bool) {
	m := reTranslate.FindStringSubmatch(transform)
	if m == nil {
		return 0, 0, false
	}
	tx, ty = parseTranslateArgs(m[1])
	return tx, ty, true
}

func parseTranslateArgs(args string) (float64, float64) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0
	}
	tx, ok := parseNumber(fields[0])
	if !ok {
		return 0, 0
	}
	if len(fields) == 1 {
		return tx, 0
	}
	ty, ok := parseNumber(fields[1])
	if !ok {
		return 0, 0
	}
	return tx, ty
}

func formatTranslate(tx, ty float64) string {
	return "translate(" + document.FormatNumber(tx) + "," + document.FormatNumber(ty) + ")"
}
