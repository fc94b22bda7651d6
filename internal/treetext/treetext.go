/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package treetext is the editable text form of a node tree: indented JSON
// of the top-level node sequence.
package treetext

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"svgadjuster/internal/document"
)

//go:embed node.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Encode renders nodes as indented JSON. Markup in content is not escaped.
func Encode(nodes []*document.Node) string {
	if nodes == nil {
		nodes = []*document.Node{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// a node tree always encodes
	_ = enc.Encode(nodes)
	return strings.TrimSuffix(buf.String(), "\n")
}

// wireNode accepts numbers for attribute values; they are kept as written.
type wireNode struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Attrs    map[string]any `json:"attrs"`
	Children []*wireNode    `json:"children"`
	Content  string         `json:"content"`
}

// Decode parses edited tree text. Syntax errors, schema violations and
// repeated ids are reported as *document.MalformedTreeTextError. An "id"
// key inside attrs is dropped; the node's id field is authoritative.
// Children of leaf kinds are discarded.
func Decode(text string) ([]*document.Node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &document.MalformedTreeTextError{Msg: "invalid JSON", Err: err}
	}
	if dec.More() {
		return nil, &document.MalformedTreeTextError{Msg: "invalid JSON: trailing data after the node list"}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile node schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, &document.MalformedTreeTextError{Msg: "schema validation failed", Err: err}
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			problems = append(problems, e.Field()+": "+e.Description())
		}
		sort.Strings(problems)
		return nil, &document.MalformedTreeTextError{Msg: "does not match the node schema", Problems: problems}
	}

	var wire []*wireNode
	dec = json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return nil, &document.MalformedTreeTextError{Msg: "invalid JSON", Err: err}
	}
	nodes := make([]*document.Node, 0, len(wire))
	for _, w := range wire {
		nodes = append(nodes, w.node())
	}
	if dups := DuplicateIDs(nodes); len(dups) > 0 {
		problems := make([]string, len(dups))
		for i, id := range dups {
			problems[i] = fmt.Sprintf("id %q used more than once", id)
		}
		return nil, &document.MalformedTreeTextError{Msg: "ids must be unique", Problems: problems}
	}
	return nodes, nil
}

func (w *wireNode) node() *document.Node {
	n := &document.Node{ID: w.ID, Kind: document.Kind(w.Kind), Attrs: map[string]string{}, Content: w.Content}
	for k, v := range w.Attrs {
		if k == "id" {
			continue
		}
		switch v := v.(type) {
		case string:
			n.Attrs[k] = v
		case json.Number:
			n.Attrs[k] = v.String()
		}
	}
	if n.Kind.IsContainer() {
		n.Children = make([]*document.Node, 0, len(w.Children))
		for _, c := range w.Children {
			n.Children = append(n.Children, c.node())
		}
	}
	return n
}

// DuplicateIDs returns ids that occur more than once in nodes, in walk order.
func DuplicateIDs(nodes []*document.Node) []string {
	seen := map[string]int{}
	var dups []string
	document.Walk(nodes, func(n, _ *document.Node) bool {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
		return true
	})
	return dups
}
