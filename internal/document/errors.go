/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"fmt"
	"strings"
)

// MalformedMarkupError is returned when markup is not well-formed or has no
// svg root. The caller keeps its previous tree.
type MalformedMarkupError struct {
	Msg string
	Err error
}

func (e *MalformedMarkupError) Error() string {
	if e.Err != nil {
		return "malformed markup: " + e.Msg + ": " + e.Err.Error()
	}
	return "malformed markup: " + e.Msg
}

func (e *MalformedMarkupError) Unwrap() error { return e.Err }

// MalformedTreeTextError is returned when an edited tree text is not valid
// JSON or does not match the node schema.
type MalformedTreeTextError struct {
	Msg      string
	Problems []string
	Err      error
}

func (e *MalformedTreeTextError) Error() string {
	b := &strings.Builder{}
	b.WriteString("malformed tree text: ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Problems) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Problems, "; "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *MalformedTreeTextError) Unwrap() error { return e.Err }

// DiagnosticKind classifies non-fatal parse findings.
type DiagnosticKind int

const (
	UnsupportedKindWarning DiagnosticKind = iota + 1
	DefinitionDepthWarning
	DuplicateIDWarning
	ViewBoxWarning
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnsupportedKindWarning:
		return "unsupported-kind"
	case DefinitionDepthWarning:
		return "definition-depth"
	case DuplicateIDWarning:
		return "duplicate-id"
	case ViewBoxWarning:
		return "viewbox"
	default:
		return fmt.Sprintf("diagnostic(%d)", int(k))
	}
}

// Diagnostic is a non-fatal finding. Element names the offending element.
type Diagnostic struct {
	Kind    DiagnosticKind
	Element string
	Message string
}

func (d Diagnostic) String() string {
	if d.Element == "" {
		return d.Kind.String() + ": " + d.Message
	}
	return d.Kind.String() + " <" + d.Element + ">: " + d.Message
}
