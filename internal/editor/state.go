/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor owns the editing state and the single message handler
// that applies user commands to it. Dispatch is synchronous and not
// reentrant; exactly one goroutine may drive a Session.
package editor

import (
	"fmt"
	"strings"

	"svgadjuster/internal/config"
	"svgadjuster/internal/document"
	"svgadjuster/internal/tree"
	"svgadjuster/internal/treetext"
)

// MoveMode selects whether nudges and reorders act on the selected node or
// on its enclosing group.
type MoveMode int

const (
	MoveSingle MoveMode = iota
	MoveGroup
)

func (m MoveMode) String() string {
	if m == MoveGroup {
		return "group"
	}
	return "single"
}

// ParseMoveMode accepts "single" and "group".
func ParseMoveMode(s string) (MoveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return MoveSingle, nil
	case "group":
		return MoveGroup, nil
	}
	return MoveSingle, fmt.Errorf("unknown move mode %q", s)
}

// Direction of a nudge.
type Direction int

const (
	Up Direction = iota + 1
	Down
	Left
	Right
)

// ParseDirection accepts up, down, left and right.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) delta(step float64) (dx, dy float64) {
	switch d {
	case Up:
		return 0, -step
	case Down:
		return 0, step
	case Left:
		return -step, 0
	case Right:
		return step, 0
	}
	return 0, 0
}

// State is everything the editor knows. The zero value is an empty editor
// with the grid hidden; NewState applies configured defaults.
type State struct {
	Root *document.Root
	// MarkupInput mirrors the markup text input.
	MarkupInput string
	// TreeText mirrors the tree text input. After a failed tree edit it
	// holds the rejected text, not the encoding of Root.
	TreeText    string
	Selected    string
	Highlight   treetext.Span
	Error       string
	Diagnostics []document.Diagnostic

	MoveMode  MoveMode
	ShowGrid  bool
	GridSize  float64
	NudgeStep float64
}

// NewState returns an empty editor configured from cfg.
func NewState(cfg config.EditorConfig) State {
	mode, err := ParseMoveMode(cfg.MoveMode)
	if err != nil {
		mode = MoveSingle
	}
	s := State{MoveMode: mode, ShowGrid: cfg.ShowGrid, GridSize: cfg.GridSize, NudgeStep: cfg.NudgeStep}
	if s.GridSize <= 0 {
		s.GridSize = 50
	}
	if s.NudgeStep <= 0 {
		s.NudgeStep = 5.5
	}
	return s
}

// SelectedNode returns the selected node, or nil.
func (s State) SelectedNode() *document.Node {
	return tree.FindByID(s.Root, s.Selected)
}

// refreshSelection drops a selection whose node is gone and recomputes the
// highlight span inside the tree text.
func (s *State) refreshSelection() {
	if s.Selected != "" && tree.FindByID(s.Root, s.Selected) == nil {
		s.Selected = ""
	}
	s.Highlight = treetext.Span{}
	if s.Selected == "" {
		return
	}
	if span, ok := treetext.Highlight(s.TreeText, s.Selected); ok {
		s.Highlight = span
	}
}
