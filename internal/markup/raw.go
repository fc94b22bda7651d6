/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// element is the loosely typed XML tree the parser works on before nodes
// are built. Names keep their prefix ("xlink:href") as written.
type element struct {
	name     string
	attrs    []xml.Attr
	children []item
}

// item is one child of an element: exactly one field is set.
type item struct {
	el      *element
	text    string
	comment string
	isText  bool
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if qualified(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) setAttr(name, value string) {
	for i, a := range e.attrs {
		if qualified(a.Name) == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (e *element) removeAttr(name string) {
	out := e.attrs[:0]
	for _, a := range e.attrs {
		if qualified(a.Name) != name {
			out = append(out, a)
		}
	}
	e.attrs = out
}

// elements returns the element children in document order.
func (e *element) elements() []*element {
	var out []*element
	for _, c := range e.children {
		if c.el != nil {
			out = append(out, c.el)
		}
	}
	return out
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// readTree tokenizes r into an element tree. RawToken keeps prefixes as
// written, so start and end tags are matched here.
func readTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var (
		doc   *element
		stack []*element
	)
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: qualified(t.Name), attrs: copyAttrs(t.Attr)}
			if len(stack) == 0 {
				if doc != nil {
					line, _ := dec.InputPos()
					return nil, fmt.Errorf("line %d: content after document element <%s>", line, el.name)
				}
				doc = el
			} else {
				top := stack[len(stack)-1]
				top.children = append(top.children, item{el: el})
			}
			stack = append(stack, el)
		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end tag </%s>", name)
			}
			top := stack[len(stack)-1]
			if top.name != name {
				return nil, fmt.Errorf("end tag </%s> does not match <%s>", name, top.name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("text outside the document element")
				}
				continue
			}
			top := stack[len(stack)-1]
			top.children = append(top.children, item{text: string(t), isText: true})
		case xml.Comment:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.children = append(top.children, item{comment: string(t)})
			}
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	if doc == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

func copyAttrs(in []xml.Attr) []xml.Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(in))
	copy(out, in)
	return out
}

// innerMarkup re-serializes the children of e.
func innerMarkup(e *element) string {
	var b strings.Builder
	for _, c := range e.children {
		writeItem(&b, c)
	}
	return b.String()
}

func writeItem(b *strings.Builder, c item) {
	switch {
	case c.el != nil:
		b.WriteByte('<')
		b.WriteString(c.el.name)
		for _, a := range c.el.attrs {
			b.WriteByte(' ')
			b.WriteString(qualified(a.Name))
			b.WriteString(`="`)
			b.WriteString(escAttr(a.Value))
			b.WriteByte('"')
		}
		if len(c.el.children) == 0 {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, cc := range c.el.children {
			writeItem(b, cc)
		}
		b.WriteString("</")
		b.WriteString(c.el.name)
		b.WriteByte('>')
	case c.isText:
		b.WriteString(escText(c.text))
	default:
		b.WriteString("<!--")
		b.WriteString(c.comment)
		b.WriteString("-->")
	}
}

func escAttr(s string) string {
	if !strings.ContainsAny(s, `&<>"`+"\n\r\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\n':
			b.WriteString("&#xA;")
		case '\r':
			b.WriteString("&#xD;")
		case '\t':
			b.WriteString("&#x9;")
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func escText(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
