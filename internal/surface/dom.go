/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package surface is a headless render surface: markup is parsed into an
// HTML5 DOM (SVG as foreign content) that can be queried, annotated and
// serialized back. It stands in for a browser canvas in the CLI and tests.
package surface

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"svgadjuster/internal/render"
)

var svgMatcher = cascadia.MustCompile("svg")

// DOM implements render.Surface over golang.org/x/net/html.
type DOM struct {
	doc  *goquery.Document
	root *html.Node

	// compiled selectors; the surface is only touched from the render loop
	matchers map[string]cascadia.Selector
}

var _ render.Surface = (*DOM)(nil)

// New returns an empty surface.
func New() *DOM {
	return &DOM{matchers: map[string]cascadia.Selector{}}
}

// Render replaces the content with markup. The previous content survives
// a failed render.
func (d *DOM) Render(markup string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	svg := doc.FindMatcher(svgMatcher).First()
	if svg.Length() == 0 {
		return errors.New("render: markup has no svg element")
	}
	d.doc = doc
	d.root = svg.Get(0)
	return nil
}

// Root returns the rendered svg element.
func (d *DOM) Root() render.Element {
	if d.root == nil {
		return nil
	}
	return d.wrap(d.root)
}

// AddOverlay inserts markup as the first child of the svg element.
func (d *DOM) AddOverlay(markup string) error {
	if d.root == nil {
		return errors.New("overlay: nothing rendered")
	}
	d.selection(d.root).PrependHtml(markup)
	return nil
}

// RemoveOverlay removes the direct child of the svg element with id.
func (d *DOM) RemoveOverlay(id string) {
	if d.root == nil {
		return
	}
	m, err := d.matcher(render.Selector("*", id))
	if err != nil {
		return
	}
	d.selection(d.root).ChildrenMatcher(m).Remove()
}

// HTML serializes the rendered svg element, overlay included.
func (d *DOM) HTML() (string, error) {
	if d.root == nil {
		return "", errors.New("nothing rendered")
	}
	return goquery.OuterHtml(d.selection(d.root))
}

// ElementByID returns the first rendered element with id, or nil.
func (d *DOM) ElementByID(id string) render.Element {
	if d.root == nil {
		return nil
	}
	return d.wrap(d.root).Query(render.Selector("*", id))
}

func (d *DOM) selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

func (d *DOM) matcher(selector string) (cascadia.Selector, error) {
	if m, ok := d.matchers[selector]; ok {
		return m, nil
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	d.matchers[selector] = m
	return m, nil
}

func (d *DOM) wrap(n *html.Node) render.Element {
	return element{n: n, dom: d}
}

// element is comparable: two wrappers of the same node are equal.
type element struct {
	n   *html.Node
	dom *DOM
}

func (e element) Tag() string { return goquery.NodeName(e.dom.selection(e.n)) }

func (e element) ID() string {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == "id" {
			return a.Val
		}
	}
	return ""
}

func (e element) SetID(id string) { e.dom.selection(e.n).SetAttr("id", id) }

func (e element) Parent() render.Element {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.dom.wrap(p)
}

func (e element) Children() []render.Element {
	var out []render.Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.dom.wrap(c))
		}
	}
	return out
}

func (e element) Query(selector string) render.Element {
	m, err := e.dom.matcher(selector)
	if err != nil {
		return nil
	}
	found := e.dom.selection(e.n).FindMatcher(m).First()
	if found.Length() == 0 {
		return nil
	}
	return e.dom.wrap(found.Get(0))
}

// Attr returns an attribute of a rendered element; for tests and tooling.
func Attr(el render.Element, name string) (string, bool) {
	e, ok := el.(element)
	if !ok {
		return "", false
	}
	return e.dom.selection(e.n).Attr(name)
}
