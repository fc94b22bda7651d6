/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package treetext

import (
	"errors"
	"strings"
	"testing"

	"svgadjuster/internal/document"
)

func sampleNodes() []*document.Node {
	return []*document.Node{
		{ID: "rect1", Kind: document.KindRect, Attrs: map[string]string{"x": "10", "fill": "url(#g)"}},
		{ID: "g-1", Kind: document.KindGroup, Attrs: map[string]string{}, Children: []*document.Node{
			{ID: "text1", Kind: document.KindText, Attrs: map[string]string{"x": "9"}, Content: `SVG <tspan id="tspan-1">{Adjuster}</tspan>`},
		}},
	}
}

func TestEncodeDecode(t *testing.T) {
	text := Encode(sampleNodes())
	if !strings.Contains(text, `<tspan id=\"tspan-1\">`) {
		t.Fatalf("markup escaped for HTML:\n%s", text)
	}
	nodes, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(nodes) != 2 || nodes[1].Children[0].Content != sampleNodes()[1].Children[0].Content {
		t.Fatalf("decoded = %+v", nodes)
	}
	if Encode(nodes) != text {
		t.Fatalf("re-encoding differs:\n%s\nvs\n%s", Encode(nodes), text)
	}
}

func TestDecodeNormalizes(t *testing.T) {
	nodes, err := Decode(`[
	  {"id": "r", "kind": "rect", "attrs": {"x": 10, "width": "5", "id": "ignored"}, "children": [{"id": "x", "kind": "rect"}]},
	  {"id": "g", "kind": "g"}
	]`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	r := nodes[0]
	if r.Attrs["x"] != "10" || r.Attrs["width"] != "5" {
		t.Fatalf("attrs = %v", r.Attrs)
	}
	if _, ok := r.Attrs["id"]; ok {
		t.Fatalf("id kept inside attrs")
	}
	if r.Children != nil {
		t.Fatalf("leaf kept children")
	}
	if g := nodes[1]; g.Children == nil || len(g.Children) != 0 {
		t.Fatalf("group children = %#v", g.Children)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":        `[{"id": "a", "kind": "rect"`,
		"not array":     `{"id": "a", "kind": "rect"}`,
		"missing kind":  `[{"id": "a"}]`,
		"bad kind":      `[{"id": "a", "kind": "rect onload"}]`,
		"bool attr":     `[{"id": "a", "kind": "rect", "attrs": {"x": true}}]`,
		"unknown field": `[{"id": "a", "kind": "rect", "colour": "red"}]`,
		"duplicate id":  `[{"id": "a", "kind": "g", "children": [{"id": "a", "kind": "rect"}]}]`,
		"trailing":      `[] []`,
	}
	for name, text := range cases {
		_, err := Decode(text)
		var mt *document.MalformedTreeTextError
		if !errors.As(err, &mt) {
			t.Fatalf("%s: err = %v, want MalformedTreeTextError", name, err)
		}
	}
	_, err := Decode(`[{"id": "a"}]`)
	var mt *document.MalformedTreeTextError
	if errors.As(err, &mt) && len(mt.Problems) == 0 {
		t.Fatalf("schema problems not reported: %v", err)
	}
}

func TestHighlight(t *testing.T) {
	text := Encode(sampleNodes())
	span, ok := Highlight(text, "text1")
	if !ok {
		t.Fatalf("text1 not found in\n%s", text)
	}
	got := text[span.Start:span.End]
	if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
		t.Fatalf("span %q is not a brace block", got)
	}
	if !strings.Contains(got, `"text1"`) || strings.Contains(got, `"g-1"`) {
		t.Fatalf("span selects the wrong object: %q", got)
	}
	// the braces inside content must not confuse matching
	if !strings.Contains(got, "{Adjuster}") {
		t.Fatalf("span cut short: %q", got)
	}

	gspan, ok := Highlight(text, "g-1")
	if !ok || gspan.Start >= span.Start || gspan.End <= span.End {
		t.Fatalf("group span %+v does not enclose child span %+v", gspan, span)
	}
	if _, ok := Highlight(text, "nope"); ok {
		t.Fatalf("unknown id highlighted")
	}
	if _, ok := Highlight(`[{"id": "x"`, "x"); ok {
		t.Fatalf("unterminated object highlighted")
	}
	if _, ok := Highlight(text, "rect"); ok {
		t.Fatalf("kind value matched as id")
	}
}
