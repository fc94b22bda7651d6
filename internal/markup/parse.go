/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package markup converts between SVG markup and the document tree.
//
// Parse is lenient about content (unknown elements are dropped with a
// diagnostic) but strict about well-formedness. Generate is its inverse:
// Generate(Parse(Generate(Parse(x)))) equals Generate(Parse(x)).
package markup

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"svgadjuster/internal/document"
	applog "svgadjuster/internal/log"
)

// SVGNamespace is the default namespace written on generated roots.
const SVGNamespace = "http://www.w3.org/2000/svg"

// maxDefinitionDepth is the number of levels kept below a definition.
const maxDefinitionDepth = 2

// Live renders add the default namespace to every re-serialized child.
var reXMLNS = regexp.MustCompile(`\s+xmlns="http://www\.w3\.org/2000/svg"`)

// Parse reads markup into a document tree. On failure the returned root is
// nil and the error is a *document.MalformedMarkupError.
func Parse(markup string) (*document.Root, []document.Diagnostic, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, nil, &document.MalformedMarkupError{Msg: "empty input"}
	}
	return ParseReader(strings.NewReader(markup))
}

// ParseReader is Parse over a reader. Non-UTF-8 input is transcoded
// according to its XML declaration.
func ParseReader(r io.Reader) (*document.Root, []document.Diagnostic, error) {
	doc, err := readTree(r)
	if err != nil {
		return nil, nil, &document.MalformedMarkupError{Msg: "not well-formed", Err: err}
	}
	svg := findSVG(doc)
	if svg == nil {
		return nil, nil, &document.MalformedMarkupError{Msg: "no svg root element"}
	}

	p := &parser{log: applog.WithComponent("markup")}
	p.assignIDs(svg)
	root := p.buildRoot(svg)
	p.log.Debug("parsed document",
		slog.Int("nodes", len(root.IDs())),
		slog.Int("defs", len(root.Defs)),
		slog.Int("diagnostics", len(p.diags)))
	return root, p.diags, nil
}

// findSVG returns the first svg element in document order.
func findSVG(e *element) *element {
	if e.name == "svg" {
		return e
	}
	for _, c := range e.elements() {
		if s := findSVG(c); s != nil {
			return s
		}
	}
	return nil
}

type parser struct {
	log   *slog.Logger
	diags []document.Diagnostic
}

func (p *parser) warn(kind document.DiagnosticKind, el, msg string) {
	d := document.Diagnostic{Kind: kind, Element: el, Message: msg}
	p.diags = append(p.diags, d)
	p.log.Warn(msg, slog.String("kind", kind.String()), slog.String("element", el))
}

// assignIDs gives every element below svg a document-unique id before any
// node is built. Generated ids are <lowercased-name>-<n> with n counted per
// name in document order, skipping numbers an explicit id already holds.
// A repeated explicit id is dropped and regenerated.
func (p *parser) assignIDs(svg *element) {
	var all []*element
	var collect func(e *element)
	collect = func(e *element) {
		for _, c := range e.elements() {
			all = append(all, c)
			collect(c)
		}
	}
	collect(svg)

	taken := map[string]bool{}
	if id, ok := svg.attr("id"); ok && id != "" {
		taken[id] = true
	}
	for _, e := range all {
		id, ok := e.attr("id")
		if !ok || id == "" {
			continue
		}
		if taken[id] {
			e.removeAttr("id")
			p.warn(document.DuplicateIDWarning, e.name, fmt.Sprintf("duplicate id %q renamed", id))
			continue
		}
		taken[id] = true
	}

	counters := map[string]int{}
	for _, e := range all {
		if id, ok := e.attr("id"); ok && id != "" {
			continue
		}
		kind := strings.ToLower(e.name)
		n := counters[kind]
		var id string
		for {
			n++
			id = kind + "-" + strconv.Itoa(n)
			if !taken[id] {
				break
			}
		}
		counters[kind] = n
		taken[id] = true
		e.setAttr("id", id)
	}
}

func (p *parser) buildRoot(svg *element) *document.Root {
	root := document.NewRoot()
	if v, ok := svg.attr("viewBox"); ok {
		vb, err := document.ParseViewBox(v)
		if err != nil {
			p.warn(document.ViewBoxWarning, "svg", err.Error()+"; using default")
		} else {
			root.ViewBox = vb
		}
	}
	if v, ok := svg.attr("width"); ok && strings.TrimSpace(v) != "" {
		root.Width = strings.TrimSpace(v)
	}
	if v, ok := svg.attr("height"); ok && strings.TrimSpace(v) != "" {
		root.Height = strings.TrimSpace(v)
	}
	for _, a := range svg.attrs {
		if a.Name.Space == "xmlns" {
			if root.Namespaces == nil {
				root.Namespaces = map[string]string{}
			}
			root.Namespaces[a.Name.Local] = a.Value
		}
	}

	root.Nodes = []*document.Node{}
	for _, c := range svg.elements() {
		switch {
		case c.name == string(document.KindDefs):
			root.Defs = append(root.Defs, p.buildDefs(c)...)
		case document.Kind(c.name).IsSupported():
			root.Nodes = append(root.Nodes, p.buildNode(c))
		default:
			p.warn(document.UnsupportedKindWarning, c.name, "unsupported element skipped")
		}
	}
	return root
}

func (p *parser) buildNode(e *element) *document.Node {
	kind := document.Kind(e.name)
	n := &document.Node{Kind: kind, Attrs: map[string]string{}}
	n.ID, _ = e.attr("id")
	copyNodeAttrs(n, e)

	switch {
	case kind.IsContainer():
		n.Children = []*document.Node{}
		for _, c := range e.elements() {
			switch {
			case c.name == string(document.KindDefs):
				p.warn(document.UnsupportedKindWarning, c.name, "nested defs skipped; definitions are read from the root only")
			case document.Kind(c.name).IsSupported():
				n.Children = append(n.Children, p.buildNode(c))
			default:
				p.warn(document.UnsupportedKindWarning, c.name, "unsupported element skipped")
			}
		}
	case kind.IsTextBearing():
		n.Content = reXMLNS.ReplaceAllString(innerMarkup(e), "")
	}
	return n
}

func (p *parser) buildDefs(defs *element) []*document.Definition {
	var out []*document.Definition
	for _, c := range defs.elements() {
		if !document.Kind(c.name).IsDefinition() {
			p.warn(document.UnsupportedKindWarning, c.name, "unsupported definition skipped")
			continue
		}
		out = append(out, p.buildDefinition(c, 0))
	}
	return out
}

func (p *parser) buildDefinition(e *element, depth int) *document.Definition {
	d := &document.Definition{Kind: document.Kind(e.name), Attrs: map[string]string{}}
	d.ID, _ = e.attr("id")
	copyNodeAttrs(d, e)
	if d.Kind.IsTextBearing() {
		d.Content = reXMLNS.ReplaceAllString(innerMarkup(e), "")
		return d
	}
	for _, c := range e.elements() {
		if depth >= maxDefinitionDepth {
			p.warn(document.DefinitionDepthWarning, c.name,
				fmt.Sprintf("definition nested deeper than %d levels under %q dropped", maxDefinitionDepth, d.ID))
			continue
		}
		d.Children = append(d.Children, p.buildDefinition(c, depth+1))
	}
	return d
}

// copyNodeAttrs copies every attribute but id and the redundant default
// namespace declaration.
func copyNodeAttrs(n *document.Node, e *element) {
	for _, a := range e.attrs {
		name := qualified(a.Name)
		if name == "id" || (name == "xmlns" && a.Value == SVGNamespace) {
			continue
		}
		n.Attrs[name] = a.Value
	}
}
