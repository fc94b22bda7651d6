/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"
	"math"
	"strings"

	"svgadjuster/internal/document"
	applog "svgadjuster/internal/log"
	"svgadjuster/internal/markup"
	"svgadjuster/internal/tree"
	"svgadjuster/internal/treetext"
)

// Op names a user command.
type Op int

const (
	OpParseMarkup Op = iota + 1
	OpEditTreeText
	OpSelect
	OpClearSelection
	OpNudge
	OpBringToFront
	OpSendToBack
	OpSetMoveMode
	OpToggleGrid
	OpSetGridSize
	OpFindInTree
	OpTreeToMarkup
	OpClear
)

var opNames = map[Op]string{
	OpParseMarkup:    "parse-markup",
	OpEditTreeText:   "edit-tree-text",
	OpSelect:         "select",
	OpClearSelection: "clear-selection",
	OpNudge:          "nudge",
	OpBringToFront:   "bring-to-front",
	OpSendToBack:     "send-to-back",
	OpSetMoveMode:    "set-move-mode",
	OpToggleGrid:     "toggle-grid",
	OpSetGridSize:    "set-grid-size",
	OpFindInTree:     "find-in-tree",
	OpTreeToMarkup:   "tree-to-markup",
	OpClear:          "clear",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

// Command is one user action. Only the fields its Op needs are read.
type Command struct {
	Op        Op
	Text      string // markup or tree text
	ID        string
	Direction Direction
	Mode      MoveMode
	Size      float64
}

// RenderInstruction tells the caller which views to refresh after a command.
type RenderInstruction uint8

const (
	RenderCanvas RenderInstruction = 1 << iota
	RenderTreeText
	RenderOverlay
	RenderMarkupInput
	RenderSelection
	RenderError

	RenderNone RenderInstruction = 0
	RenderAll                    = RenderCanvas | RenderTreeText | RenderOverlay | RenderMarkupInput | RenderSelection | RenderError
)

// Has reports whether every flag in f is set.
func (r RenderInstruction) Has(f RenderInstruction) bool { return r&f == f && f != 0 }

func (r RenderInstruction) String() string {
	if r == RenderNone {
		return "none"
	}
	names := []string{"canvas", "tree-text", "overlay", "markup-input", "selection", "error"}
	var parts []string
	for i, n := range names {
		if r&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}

// Dispatch applies cmd to s and returns the new state together with the
// views that need refreshing. Tree mutations happen in place on s.Root.
// Parse failures keep the previous tree and only set Error.
func Dispatch(s State, cmd Command) (State, RenderInstruction) {
	l := applog.WithOperation(applog.WithComponent("editor"), cmd.Op.String())
	switch cmd.Op {
	case OpParseMarkup:
		if strings.TrimSpace(cmd.Text) == "" {
			return s, RenderNone
		}
		s.MarkupInput = cmd.Text
		root, diags, err := markup.Parse(cmd.Text)
		if err != nil {
			l.Info("markup rejected", slog.Any("err", err))
			s.Error = err.Error()
			return s, RenderError
		}
		s.Root = root
		s.Diagnostics = diags
		s.Error = ""
		s.TreeText = treetext.Encode(root.Nodes)
		s.refreshSelection()
		return s, RenderCanvas | RenderTreeText | RenderOverlay | RenderSelection | RenderError

	case OpEditTreeText:
		s.TreeText = cmd.Text
		nodes, err := treetext.Decode(cmd.Text)
		if err != nil {
			l.Info("tree text rejected", slog.Any("err", err))
			s.Error = err.Error()
			return s, RenderError
		}
		next := document.NewRoot()
		if s.Root != nil {
			cp := *s.Root
			next = &cp
		}
		next.Nodes = nodes
		s.Root = next
		s.Error = ""
		s.refreshSelection()
		return s, RenderCanvas | RenderOverlay | RenderSelection | RenderError

	case OpSelect:
		if tree.FindByID(s.Root, cmd.ID) == nil {
			s.Selected = ""
		} else {
			s.Selected = cmd.ID
		}
		s.refreshSelection()
		return s, RenderSelection

	case OpClearSelection:
		s.Selected = ""
		s.Highlight = treetext.Span{}
		return s, RenderSelection

	case OpNudge:
		if s.SelectedNode() == nil {
			return s, RenderNone
		}
		dx, dy := cmd.Direction.delta(s.NudgeStep)
		if s.MoveMode == MoveGroup {
			tree.GroupTranslate(s.Root, s.Selected, dx, dy)
		} else {
			tree.Translate(s.Root, s.Selected, dx, dy)
		}
		return s.afterMutation()

	case OpBringToFront, OpSendToBack:
		if s.SelectedNode() == nil {
			return s, RenderNone
		}
		front := cmd.Op == OpBringToFront
		switch {
		case s.MoveMode == MoveGroup && front:
			tree.GroupReorderToFront(s.Root, s.Selected)
		case s.MoveMode == MoveGroup:
			tree.GroupReorderToBack(s.Root, s.Selected)
		case front:
			tree.ReorderToFront(s.Root, s.Selected)
		default:
			tree.ReorderToBack(s.Root, s.Selected)
		}
		return s.afterMutation()

	case OpSetMoveMode:
		s.MoveMode = cmd.Mode
		return s, RenderNone

	case OpToggleGrid:
		s.ShowGrid = !s.ShowGrid
		return s, RenderOverlay

	case OpSetGridSize:
		if cmd.Size <= 0 || math.IsNaN(cmd.Size) || math.IsInf(cmd.Size, 0) {
			return s, RenderNone
		}
		s.GridSize = cmd.Size
		return s, RenderOverlay

	case OpFindInTree:
		s.refreshSelection()
		return s, RenderSelection

	case OpTreeToMarkup:
		if s.Root == nil {
			return s, RenderNone
		}
		s.MarkupInput = markup.Generate(s.Root)
		return s, RenderMarkupInput

	case OpClear:
		s.Root = nil
		s.MarkupInput = ""
		s.TreeText = ""
		s.Selected = ""
		s.Highlight = treetext.Span{}
		s.Error = ""
		s.Diagnostics = nil
		return s, RenderAll
	}
	l.Warn("unknown command")
	return s, RenderNone
}

func (s State) afterMutation() (State, RenderInstruction) {
	s.TreeText = treetext.Encode(s.Root.Nodes)
	s.refreshSelection()
	return s, RenderCanvas | RenderTreeText | RenderOverlay | RenderSelection
}
