/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document defines the in-memory model of an edited SVG document:
// the root with its display box, the definition section, and the ordered
// tree of graphic nodes.
package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the element name of a node, e.g. "rect" or "g".
type Kind string

const (
	KindGroup    Kind = "g"
	KindMarker   Kind = "marker"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
	KindEllipse  Kind = "ellipse"
	KindLine     Kind = "line"
	KindPolyline Kind = "polyline"
	KindPolygon  Kind = "polygon"
	KindPath     Kind = "path"
	KindText     Kind = "text"
	KindImage    Kind = "image"

	KindDefs Kind = "defs"
	KindSVG  Kind = "svg"
)

// Definition kinds allowed at the top of a defs section.
const (
	KindLinearGradient Kind = "linearGradient"
	KindRadialGradient Kind = "radialGradient"
	KindFilter         Kind = "filter"
	KindPattern        Kind = "pattern"
	KindClipPath       Kind = "clipPath"
	KindMask           Kind = "mask"
)

// IsContainer reports whether nodes of this kind carry children.
func (k Kind) IsContainer() bool { return k == KindGroup || k == KindMarker }

// IsTextBearing reports whether nodes of this kind carry raw inner content.
func (k Kind) IsTextBearing() bool { return k == KindText }

// IsShape reports whether k is a self-closing graphic primitive.
func (k Kind) IsShape() bool {
	switch k {
	case KindRect, KindCircle, KindEllipse, KindLine, KindPolyline, KindPolygon, KindPath, KindImage:
		return true
	}
	return false
}

// IsSupported reports whether k may appear in the node tree.
func (k Kind) IsSupported() bool { return k.IsContainer() || k.IsTextBearing() || k.IsShape() }

// IsDefinition reports whether k may appear at the top of a defs section.
func (k Kind) IsDefinition() bool {
	switch k {
	case KindLinearGradient, KindRadialGradient, KindFilter, KindPattern, KindClipPath, KindMask, KindMarker:
		return true
	}
	return false
}

// Node is one graphic element of the tree. Attrs never holds "id"; the
// id lives in ID and is re-injected on output. Children is nil for leaves.
type Node struct {
	ID       string            `json:"id"`
	Kind     Kind              `json:"kind"`
	Attrs    map[string]string `json:"attrs"`
	Children []*Node           `json:"children,omitempty"`
	Content  string            `json:"content,omitempty"`
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// SetAttr sets an attribute, allocating the map on first use. Setting "id" is ignored.
func (n *Node) SetAttr(name, value string) {
	if name == "id" {
		return
	}
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[name] = value
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{ID: n.ID, Kind: n.Kind, Content: n.Content}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Definition is a reusable resource (gradient, filter, pattern, ...). It
// nests at most two levels below itself.
type Definition = Node

// ViewBox is the display box of the root element.
type ViewBox struct {
	X, Y, Width, Height float64
}

// DefaultViewBox is used when the input has no usable viewBox.
var DefaultViewBox = ViewBox{0, 0, 100, 100}

// String formats the box as the viewBox attribute value.
func (v ViewBox) String() string {
	return strings.Join([]string{FormatNumber(v.X), FormatNumber(v.Y), FormatNumber(v.Width), FormatNumber(v.Height)}, " ")
}

// ParseViewBox parses four numbers separated by whitespace and/or commas.
func ParseViewBox(s string) (ViewBox, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return ViewBox{}, fmt.Errorf("viewBox %q: want 4 numbers, got %d", s, len(fields))
	}
	var out [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ViewBox{}, fmt.Errorf("viewBox %q: %w", s, err)
		}
		out[i] = v
	}
	if out[2] < 0 || out[3] < 0 {
		return ViewBox{}, fmt.Errorf("viewBox %q: negative extent", s)
	}
	return ViewBox{out[0], out[1], out[2], out[3]}, nil
}

// FormatNumber renders v in the shortest form that parses back exactly.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Root is the document: sizing attributes, definitions and the top-level
// node sequence. Later nodes paint on top of earlier ones.
type Root struct {
	ViewBox ViewBox
	Width   string
	Height  string
	// Namespaces holds extra xmlns:prefix declarations, keyed by prefix.
	Namespaces map[string]string
	Defs       []*Definition
	Nodes      []*Node
}

// NewRoot returns an empty document with the default display box.
func NewRoot() *Root {
	return &Root{ViewBox: DefaultViewBox, Width: "100%", Height: "100%"}
}

// Walk visits every node in paint order, parents before children. Returning
// false from fn stops the walk.
func Walk(nodes []*Node, fn func(n *Node, parent *Node) bool) bool {
	return walk(nodes, nil, fn)
}

func walk(nodes []*Node, parent *Node, fn func(*Node, *Node) bool) bool {
	for _, n := range nodes {
		if !fn(n, parent) {
			return false
		}
		if len(n.Children) > 0 && !walk(n.Children, n, fn) {
			return false
		}
	}
	return true
}

// IDs returns every node id in walk order.
func (r *Root) IDs() []string {
	var ids []string
	Walk(r.Nodes, func(n *Node, _ *Node) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}
