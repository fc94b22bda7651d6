/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"sort"
	"strings"

	"svgadjuster/internal/document"
)

const indentUnit = "  "

// Generate serializes root as markup. It never fails: nodes of unknown kind
// are skipped. Attributes are written in name order so output is stable.
func Generate(root *document.Root) string {
	if root == nil {
		root = document.NewRoot()
	}
	var b strings.Builder
	b.WriteString(`<svg viewBox="`)
	b.WriteString(root.ViewBox.String())
	b.WriteString(`" width="`)
	b.WriteString(escAttr(orDefault(root.Width, "100%")))
	b.WriteString(`" height="`)
	b.WriteString(escAttr(orDefault(root.Height, "100%")))
	b.WriteString(`" xmlns="`)
	b.WriteString(SVGNamespace)
	b.WriteByte('"')
	for _, prefix := range sortedKeys(root.Namespaces) {
		if !validName(prefix) {
			continue
		}
		b.WriteString(" xmlns:")
		b.WriteString(prefix)
		b.WriteString(`="`)
		b.WriteString(escAttr(root.Namespaces[prefix]))
		b.WriteByte('"')
	}
	b.WriteString(">\n")

	if len(root.Defs) > 0 {
		b.WriteString(indentUnit)
		b.WriteString("<defs>\n")
		for _, d := range root.Defs {
			if d == nil || !d.Kind.IsDefinition() {
				continue
			}
			writeDefinition(&b, d, 2)
		}
		b.WriteString(indentUnit)
		b.WriteString("</defs>\n")
	}
	for _, n := range root.Nodes {
		writeNode(&b, n, 1)
	}
	b.WriteString("</svg>\n")
	return b.String()
}

func writeNode(b *strings.Builder, n *document.Node, depth int) {
	if n == nil || !n.Kind.IsSupported() {
		return
	}
	indent := strings.Repeat(indentUnit, depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(string(n.Kind))
	writeAttrs(b, n.Attrs)
	writeID(b, n.ID)

	switch {
	case n.Kind.IsContainer():
		if len(n.Children) == 0 {
			b.WriteString("/>\n")
			return
		}
		b.WriteString(">\n")
		for _, c := range n.Children {
			writeNode(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("</")
		b.WriteString(string(n.Kind))
		b.WriteString(">\n")
	case n.Kind.IsTextBearing():
		b.WriteByte('>')
		b.WriteString(n.Content)
		b.WriteString("</")
		b.WriteString(string(n.Kind))
		b.WriteString(">\n")
	default:
		b.WriteString("/>\n")
	}
}

// writeDefinition emits the id first, then attributes.
func writeDefinition(b *strings.Builder, d *document.Definition, depth int) {
	if d == nil || !validName(string(d.Kind)) {
		return
	}
	indent := strings.Repeat(indentUnit, depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(string(d.Kind))
	writeID(b, d.ID)
	writeAttrs(b, d.Attrs)
	switch {
	case len(d.Children) > 0:
		b.WriteString(">\n")
		for _, c := range d.Children {
			writeDefinition(b, c, depth+1)
		}
		b.WriteString(indent)
	case d.Content != "":
		b.WriteByte('>')
		b.WriteString(d.Content)
	default:
		b.WriteString("/>\n")
		return
	}
	b.WriteString("</")
	b.WriteString(string(d.Kind))
	b.WriteString(">\n")
}

func writeID(b *strings.Builder, id string) {
	if id == "" {
		return
	}
	b.WriteString(` id="`)
	b.WriteString(escAttr(id))
	b.WriteByte('"')
}

func writeAttrs(b *strings.Builder, attrs map[string]string) {
	for _, k := range sortedKeys(attrs) {
		if k == "id" || !validName(k) {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escAttr(attrs[k]))
		b.WriteByte('"')
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validName accepts XML names with at most one prefix; anything else could
// break out of the tag.
func validName(s string) bool {
	if s == "" || strings.Count(s, ":") > 1 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' && i > 0 || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return !strings.HasSuffix(s, ":")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
