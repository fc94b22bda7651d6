/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render connects the document tree to a render surface: it binds
// rendered elements to node ids after each render, resolves clicks back to
// node ids, and builds the grid overlay.
package render

import (
	"fmt"
	"strings"

	"svgadjuster/internal/document"
)

// GridID is the id of the overlay group. It never belongs to the document.
const GridID = "editor-grid"

// Element is one element of a rendered, DOM-like tree.
type Element interface {
	Tag() string
	ID() string
	SetID(id string)
	Parent() Element
	// Children returns the element children in document order.
	Children() []Element
	// Query returns the first descendant matching a CSS selector, or nil.
	Query(selector string) Element
}

// Surface is a render target that accepts markup and exposes the result.
type Surface interface {
	// Render replaces the surface content with markup.
	Render(markup string) error
	// Root returns the rendered svg element, or nil before the first render.
	Root() Element
	// AddOverlay inserts markup as the first child of the rendered root.
	AddOverlay(markup string) error
	// RemoveOverlay removes the overlay element with id, if present.
	RemoveOverlay(id string)
}

// Bind makes the ids of rendered elements under scope match the nodes.
// A node binds to the descendant with its kind and id; failing that, the
// nth node of a kind binds to the nth direct child of scope with that tag.
// Bound elements get the node id written back. Containers recurse into
// their bound element.
//
// The positional fallback assumes sibling order in the surface matches
// the node sequence.
func Bind(scope Element, nodes []*document.Node) {
	if scope == nil {
		return
	}
	seen := map[document.Kind]int{}
	for _, n := range nodes {
		if n == nil || !n.Kind.IsSupported() {
			continue
		}
		idx := seen[n.Kind]
		seen[n.Kind]++

		el := scope.Query(Selector(n.Kind, n.ID))
		if el == nil {
			el = nthChild(scope, string(n.Kind), idx)
		}
		if el == nil {
			continue
		}
		el.SetID(n.ID)
		if n.Kind.IsContainer() && len(n.Children) > 0 {
			Bind(el, n.Children)
		}
	}
}

// Selector returns the CSS selector matching an element of kind with id.
func Selector(kind document.Kind, id string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return fmt.Sprintf(`%s[id="%s"]`, kind, r.Replace(id))
}

func nthChild(scope Element, tag string, n int) Element {
	i := 0
	for _, c := range scope.Children() {
		if c.Tag() != tag || c.ID() == GridID {
			continue
		}
		if i == n {
			return c
		}
		i++
	}
	return nil
}

// ResolveClick maps a clicked element to the id of the nearest element
// carrying one, stopping below root. Clicks on the root itself or inside
// the grid overlay resolve to nothing.
func ResolveClick(root, clicked Element) (string, bool) {
	id := ""
	for e := clicked; e != nil && e != root; e = e.Parent() {
		if e.ID() == GridID {
			return "", false
		}
		if id == "" && e.ID() != "" {
			id = e.ID()
		}
	}
	return id, id != ""
}
