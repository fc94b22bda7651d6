/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"regexp"
	"strings"
	"testing"

	"svgadjuster/internal/document"
)

// fakeEl is a minimal Element whose Query only understands kind[id="..."].
type fakeEl struct {
	tag      string
	id       string
	parent   *fakeEl
	children []*fakeEl
}

var reSel = regexp.MustCompile(`^([a-zA-Z*]+)\[id="(.*)"\]$`)

func el(tag, id string, children ...*fakeEl) *fakeEl {
	e := &fakeEl{tag: tag, id: id, children: children}
	for _, c := range children {
		c.parent = e
	}
	return e
}

func (e *fakeEl) Tag() string     { return e.tag }
func (e *fakeEl) ID() string      { return e.id }
func (e *fakeEl) SetID(id string) { e.id = id }
func (e *fakeEl) Parent() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}
func (e *fakeEl) Children() []Element {
	out := make([]Element, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}
func (e *fakeEl) Query(selector string) Element {
	m := reSel.FindStringSubmatch(selector)
	if m == nil {
		return nil
	}
	var walk func(x *fakeEl) *fakeEl
	walk = func(x *fakeEl) *fakeEl {
		for _, c := range x.children {
			if (m[1] == "*" || c.tag == m[1]) && c.id == m[2] {
				return c
			}
			if f := walk(c); f != nil {
				return f
			}
		}
		return nil
	}
	if f := walk(e); f != nil {
		return f
	}
	return nil
}

func TestBindPrimaryAndFallback(t *testing.T) {
	// the surface renamed everything except c1
	svg := el("svg", "",
		el("g", GridID, el("line", "")),
		el("rect", "s-1"),
		el("circle", "c1"),
		el("g", "s-2", el("rect", "s-3"), el("rect", "s-4")),
		el("rect", "s-5"),
	)
	nodes := []*document.Node{
		{ID: "r1", Kind: document.KindRect},
		{ID: "c1", Kind: document.KindCircle},
		{ID: "grp", Kind: document.KindGroup, Children: []*document.Node{
			{ID: "inner-a", Kind: document.KindRect},
			{ID: "inner-b", Kind: document.KindRect},
		}},
		{ID: "r2", Kind: document.KindRect},
		{ID: "ghost", Kind: "foreignObject"},
	}
	Bind(svg, nodes)

	want := []string{GridID, "r1", "c1", "grp", "r2"}
	for i, c := range svg.children {
		if c.id != want[i] {
			t.Fatalf("child %d id = %q, want %q", i, c.id, want[i])
		}
	}
	g := svg.children[3]
	if g.children[0].id != "inner-a" || g.children[1].id != "inner-b" {
		t.Fatalf("group children = %q,%q", g.children[0].id, g.children[1].id)
	}
}

func TestBindSkipsGridInFallback(t *testing.T) {
	svg := el("svg", "", el("g", GridID), el("g", "x"))
	Bind(svg, []*document.Node{{ID: "g-1", Kind: document.KindGroup}})
	if svg.children[0].id != GridID || svg.children[1].id != "g-1" {
		t.Fatalf("ids = %q,%q", svg.children[0].id, svg.children[1].id)
	}
}

func TestResolveClick(t *testing.T) {
	tspan := el("tspan", "")
	text := el("text", "text1", tspan)
	gridLine := el("line", "")
	svg := el("svg", "root", el("g", GridID, gridLine), el("g", "g-1", text))

	if id, ok := ResolveClick(svg, tspan); !ok || id != "text1" {
		t.Fatalf("ResolveClick(tspan) = %q,%v", id, ok)
	}
	if _, ok := ResolveClick(svg, gridLine); ok {
		t.Fatalf("grid line resolved")
	}
	if _, ok := ResolveClick(svg, svg); ok {
		t.Fatalf("root resolved")
	}
}

func TestSelectorEscapes(t *testing.T) {
	if got := Selector(document.KindRect, `a"b\c`); got != `rect[id="a\"b\\c"]` {
		t.Fatalf("Selector() = %s", got)
	}
}

func TestGridMarkup(t *testing.T) {
	g := GridMarkup(document.ViewBox{X: -10, Y: 0, Width: 110, Height: 50}, 50)
	if !strings.HasPrefix(g, `<g id="editor-grid" style="pointer-events: none;">`) {
		t.Fatalf("grid header = %q", g)
	}
	// x: 0, 50, 100; y: 0, 50
	if n := strings.Count(g, "<line "); n != 5 {
		t.Fatalf("line count = %d, want 5\n%s", n, g)
	}
	if !strings.Contains(g, `<line x1="100" y1="0" x2="100" y2="50" stroke="rgba(200, 200, 200, 0.3)" stroke-width="0.5">`) {
		t.Fatalf("vertical line missing:\n%s", g)
	}
	if !strings.Contains(g, `<line x1="-10" y1="50" x2="100" y2="50"`) {
		t.Fatalf("horizontal line missing:\n%s", g)
	}
	if GridMarkup(document.DefaultViewBox, 0) != "" {
		t.Fatalf("zero size should produce no grid")
	}
}
