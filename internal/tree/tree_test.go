/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tree

import (
	"strings"
	"testing"

	"svgadjuster/internal/document"
)

func rect(id string) *document.Node {
	return &document.Node{ID: id, Kind: document.KindRect, Attrs: map[string]string{}}
}

func group(id string, children ...*document.Node) *document.Node {
	return &document.Node{ID: id, Kind: document.KindGroup, Attrs: map[string]string{}, Children: children}
}

// sample builds [A, G(B, C), D].
func sample() *document.Root {
	r := document.NewRoot()
	r.Nodes = []*document.Node{rect("A"), group("G", rect("B"), rect("C")), rect("D")}
	return r
}

func ids(nodes []*document.Node) string {
	s := make([]string, len(nodes))
	for i, n := range nodes {
		s[i] = n.ID
	}
	return strings.Join(s, ",")
}

func TestFindByID(t *testing.T) {
	r := sample()
	if n := FindByID(r, "C"); n == nil || n.ID != "C" {
		t.Fatalf("FindByID(C) = %v", n)
	}
	if n := FindByID(r, "missing"); n != nil {
		t.Fatalf("FindByID(missing) = %v", n)
	}
	if n := FindByID(nil, "A"); n != nil {
		t.Fatalf("FindByID(nil root) = %v", n)
	}
}

func TestFindParentCollection(t *testing.T) {
	r := sample()
	coll, i := FindParentCollection(r, "C")
	if coll == nil || i != 1 || coll != &r.Nodes[1].Children {
		t.Fatalf("FindParentCollection(C) = %p,%d", coll, i)
	}
	coll, i = FindParentCollection(r, "D")
	if coll != &r.Nodes || i != 2 {
		t.Fatalf("FindParentCollection(D) = %p,%d", coll, i)
	}
	if coll, i = FindParentCollection(r, "nope"); coll != nil || i != -1 {
		t.Fatalf("FindParentCollection(nope) = %p,%d", coll, i)
	}
}

func TestFindEnclosingGroup(t *testing.T) {
	r := sample()
	if g := FindEnclosingGroup(r, "B"); g == nil || g.ID != "G" {
		t.Fatalf("FindEnclosingGroup(B) = %v", g)
	}
	if g := FindEnclosingGroup(r, "A"); g != nil {
		t.Fatalf("top-level node has group %v", g)
	}
	if g := FindEnclosingGroup(r, "G"); g != nil {
		t.Fatalf("top-level group has group %v", g)
	}
}

func TestReorder(t *testing.T) {
	r := sample()
	ReorderToFront(r, "A")
	if got := ids(r.Nodes); got != "G,D,A" {
		t.Fatalf("after front(A) = %s", got)
	}
	ReorderToBack(r, "D")
	if got := ids(r.Nodes); got != "D,G,A" {
		t.Fatalf("after back(D) = %s", got)
	}
	ReorderToBack(r, "C")
	if got := ids(r.Nodes[1].Children); got != "C,B" {
		t.Fatalf("group children after back(C) = %s", got)
	}
	ReorderToFront(r, "missing")
	if got := ids(r.Nodes); got != "D,G,A" {
		t.Fatalf("unknown id mutated tree: %s", got)
	}
}

func TestReorderKeepsSingleMembership(t *testing.T) {
	r := sample()
	for _, id := range []string{"B", "C", "A", "G", "D"} {
		ReorderToFront(r, id)
		ReorderToBack(r, id)
	}
	count := map[string]int{}
	document.Walk(r.Nodes, func(n, _ *document.Node) bool {
		count[n.ID]++
		return true
	})
	for _, id := range []string{"A", "B", "C", "D", "G"} {
		if count[id] != 1 {
			t.Fatalf("node %s appears %d times", id, count[id])
		}
	}
	if len(r.Nodes) != 3 || len(r.Nodes[0].Children)+len(r.Nodes[1].Children)+len(r.Nodes[2].Children) != 2 {
		t.Fatalf("collection sizes changed: %s", ids(r.Nodes))
	}
}

func TestGroupReorderToFront(t *testing.T) {
	r := sample()
	GroupReorderToFront(r, "B")
	if got := ids(r.Nodes); got != "A,D,G" {
		t.Fatalf("root after group front(B) = %s, want A,D,G", got)
	}
	if got := ids(r.Nodes[2].Children); got != "B,C" {
		t.Fatalf("group children changed: %s", got)
	}
}

func TestGroupReorderToBack(t *testing.T) {
	r := sample()
	GroupReorderToBack(r, "C")
	if got := ids(r.Nodes); got != "G,A,D" {
		t.Fatalf("root = %s, want G,A,D", got)
	}
	// ungrouped node falls back to itself
	GroupReorderToBack(r, "D")
	if got := ids(r.Nodes); got != "D,G,A" {
		t.Fatalf("root = %s, want D,G,A", got)
	}
}

func TestGroupReorderNestedGroupMovesItself(t *testing.T) {
	r := document.NewRoot()
	inner := group("inner", rect("x"), rect("y"))
	r.Nodes = []*document.Node{group("outer", inner, rect("z")), rect("w")}
	GroupReorderToFront(r, "inner")
	if got := ids(r.Nodes[0].Children); got != "z,inner" {
		t.Fatalf("outer children = %s, want z,inner", got)
	}
}

func TestTranslateRect(t *testing.T) {
	r := document.NewRoot()
	r.Nodes = []*document.Node{{ID: "r", Kind: document.KindRect, Attrs: map[string]string{"x": "10", "y": "10"}}}
	Translate(r, "r", 5, -3)
	if x, y := r.Nodes[0].Attrs["x"], r.Nodes[0].Attrs["y"]; x != "15" || y != "7" {
		t.Fatalf("rect at %s,%s, want 15,7", x, y)
	}
}

func TestTranslateGroupComposesTransform(t *testing.T) {
	r := sample()
	Translate(r, "G", 5, -3)
	if tr := r.Nodes[1].Attrs["transform"]; tr != "translate(5,-3)" {
		t.Fatalf("transform = %q", tr)
	}
	Translate(r, "G", 5, -3)
	if tr := r.Nodes[1].Attrs["transform"]; tr != "translate(10,-6)" {
		t.Fatalf("transform = %q", tr)
	}
}

func TestTranslateKinds(t *testing.T) {
	r := document.NewRoot()
	r.Nodes = []*document.Node{
		{ID: "c", Kind: document.KindCircle, Attrs: map[string]string{"cx": "1", "cy": "2", "r": "3"}},
		{ID: "l", Kind: document.KindLine, Attrs: map[string]string{"x1": "0", "x2": "10", "y1": "auto", "y2": "4"}},
		{ID: "t", Kind: document.KindText, Attrs: map[string]string{"x": "9"}},
		{ID: "p", Kind: document.KindPath, Attrs: map[string]string{"d": "M0 0", "transform": "rotate(45)"}},
		{ID: "pl", Kind: document.KindPolygon, Attrs: map[string]string{"points": "0,0 1,1"}},
		{ID: "i", Kind: document.KindImage, Attrs: map[string]string{"x": "0.5", "y": "1"}},
	}
	for _, n := range r.Nodes {
		Translate(r, n.ID, 5.5, 1)
	}
	c := r.Nodes[0].Attrs
	if c["cx"] != "6.5" || c["cy"] != "3" || c["r"] != "3" {
		t.Fatalf("circle = %v", c)
	}
	l := r.Nodes[1].Attrs
	if l["x1"] != "5.5" || l["x2"] != "15.5" || l["y1"] != "auto" || l["y2"] != "5" {
		t.Fatalf("line = %v", l)
	}
	tx := r.Nodes[2].Attrs
	if tx["x"] != "14.5" {
		t.Fatalf("text x = %q", tx["x"])
	}
	if _, ok := tx["y"]; ok {
		t.Fatalf("absent y was defaulted: %v", tx)
	}
	if tr := r.Nodes[3].Attrs["transform"]; tr != "translate(5.5,1) rotate(45)" {
		t.Fatalf("path transform = %q", tr)
	}
	if pts := r.Nodes[4].Attrs["points"]; pts != "0,0 1,1" || len(r.Nodes[4].Attrs) != 1 {
		t.Fatalf("polygon changed: %v", r.Nodes[4].Attrs)
	}
	if i := r.Nodes[5].Attrs; i["x"] != "6" || i["y"] != "2" {
		t.Fatalf("image = %v", i)
	}
}

func TestTranslateOnlyShiftsSVGNumbers(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Infinity", "Infinity"},
		{"NaN", "NaN"},
		{"inf", "inf"},
		{"0x1p4", "0x1p4"},
		{"1_0", "1_0"},
		{"1e2", "101"},
		{"-.5", "0.5"},
		{" 5. ", "6"},
	}
	for _, c := range cases {
		r := document.NewRoot()
		r.Nodes = []*document.Node{{ID: "r", Kind: document.KindRect, Attrs: map[string]string{"x": c.in}}}
		Translate(r, "r", 1, 0)
		if got := r.Nodes[0].Attrs["x"]; got != c.want {
			t.Fatalf("x %q shifted to %q, want %q", c.in, got, c.want)
		}
	}
}

func TestComposeTranslate(t *testing.T) {
	cases := []struct {
		in     string
		dx, dy float64
		want   string
	}{
		{"", 1, 2, "translate(1,2)"},
		{"translate(3 4)", 1, 2, "translate(4,6)"},
		{"scale(2) translate(3, 4) rotate(5)", -3, -4, "scale(2) translate(0,0) rotate(5)"},
		{"translate(a,b)", 1, 2, "translate(1,2)"},
		{"translate(7)", 1, 2, "translate(8,2)"},
		{"translate(Infinity,2)", 1, 2, "translate(1,2)"},
		{"  skewX(3)  ", 1, 0, "translate(1,0) skewX(3)"},
	}
	for _, c := range cases {
		if got := ComposeTranslate(c.in, c.dx, c.dy); got != c.want {
			t.Fatalf("ComposeTranslate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGroupTranslate(t *testing.T) {
	r := sample()
	r.Nodes[1].Children[0].Attrs["x"] = "1"
	GroupTranslate(r, "B", 2, 3)
	if tr := r.Nodes[1].Attrs["transform"]; tr != "translate(2,3)" {
		t.Fatalf("group transform = %q", tr)
	}
	if x := r.Nodes[1].Children[0].Attrs["x"]; x != "1" {
		t.Fatalf("child moved too: x=%s", x)
	}
	r.Nodes[0].Attrs["x"] = "0"
	GroupTranslate(r, "A", 2, 3)
	if x := r.Nodes[0].Attrs["x"]; x != "2" {
		t.Fatalf("ungrouped node x = %s", x)
	}
	GroupTranslate(r, "missing", 1, 1)
}

func TestTranslateOf(t *testing.T) {
	if tx, ty, ok := TranslateOf("rotate(45) translate(3, -4)"); !ok || tx != 3 || ty != -4 {
		t.Fatalf("TranslateOf = %v,%v,%v", tx, ty, ok)
	}
	if _, _, ok := TranslateOf("scale(2)"); ok {
		t.Fatalf("TranslateOf without translate reported ok")
	}
}
