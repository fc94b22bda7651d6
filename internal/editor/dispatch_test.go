/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"strings"
	"testing"

	"svgadjuster/internal/config"
	"svgadjuster/internal/document"
)

const pathExample = `<svg viewBox="0 0 200 100"><g transform="translate(0,0)"><path d="M10,90 Q50,10 90,90" stroke="green" fill="none" stroke-width="5" id="path1" /><text x="9" y="45.5" font-size="15" id="text1">SVG Adjuster</text></g><rect x="10" y="10" width="5" height="5" id="r"/></svg>`

func loaded(t *testing.T) State {
	t.Helper()
	s, ri := Dispatch(NewState(config.Defaults().Editor), Command{Op: OpParseMarkup, Text: pathExample})
	if s.Error != "" || s.Root == nil {
		t.Fatalf("parse failed: %s", s.Error)
	}
	if !ri.Has(RenderCanvas | RenderTreeText | RenderOverlay) {
		t.Fatalf("render instruction = %s", ri)
	}
	return s
}

func TestParseMarkupFailureKeepsTree(t *testing.T) {
	s := loaded(t)
	prev := s.Root
	s, ri := Dispatch(s, Command{Op: OpParseMarkup, Text: "<svg><g></svg>"})
	if s.Root != prev {
		t.Fatalf("tree replaced on failure")
	}
	if s.Error == "" || ri != RenderError {
		t.Fatalf("error = %q, ri = %s", s.Error, ri)
	}
	s, ri = Dispatch(s, Command{Op: OpParseMarkup, Text: "  "})
	if ri != RenderNone || s.Root != prev {
		t.Fatalf("blank input changed state")
	}
}

func TestSelectAndStaleSelection(t *testing.T) {
	s := loaded(t)
	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "text1"})
	if s.Selected != "text1" || s.Highlight.Empty() {
		t.Fatalf("selected = %q, highlight = %+v", s.Selected, s.Highlight)
	}
	if !strings.Contains(s.TreeText[s.Highlight.Start:s.Highlight.End], `"SVG Adjuster"`) {
		t.Fatalf("highlight = %q", s.TreeText[s.Highlight.Start:s.Highlight.End])
	}
	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "nope"})
	if s.Selected != "" {
		t.Fatalf("unknown id selected")
	}

	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "r"})
	s, _ = Dispatch(s, Command{Op: OpParseMarkup, Text: `<svg><circle id="c"/></svg>`})
	if s.Selected != "" {
		t.Fatalf("stale selection kept: %q", s.Selected)
	}
}

func TestSelectionSurvivesReparse(t *testing.T) {
	s := loaded(t)
	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "path1"})
	s, _ = Dispatch(s, Command{Op: OpParseMarkup, Text: pathExample})
	if s.Selected != "path1" || s.Highlight.Empty() {
		t.Fatalf("selection lost: %q", s.Selected)
	}
}

func TestNudgeSingleAndGroup(t *testing.T) {
	s := loaded(t)
	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "r"})
	s, ri := Dispatch(s, Command{Op: OpNudge, Direction: Right})
	if x := s.SelectedNode().Attrs["x"]; x != "15.5" {
		t.Fatalf("x = %s, want 15.5", x)
	}
	if !ri.Has(RenderCanvas | RenderTreeText) {
		t.Fatalf("ri = %s", ri)
	}
	if !strings.Contains(s.TreeText, `"15.5"`) {
		t.Fatalf("tree text not refreshed")
	}

	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "text1"})
	s, _ = Dispatch(s, Command{Op: OpSetMoveMode, Mode: MoveGroup})
	s, _ = Dispatch(s, Command{Op: OpNudge, Direction: Up})
	g := s.Root.Nodes[0]
	if tr := g.Attrs["transform"]; tr != "translate(0,-5.5)" {
		t.Fatalf("group transform = %q", tr)
	}
	if y := g.Children[1].Attrs["y"]; y != "45.5" {
		t.Fatalf("text moved in group mode: y=%s", y)
	}
}

func TestReorderModes(t *testing.T) {
	s := loaded(t)
	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "path1"})
	s, _ = Dispatch(s, Command{Op: OpBringToFront})
	if got := s.Root.Nodes[0].Children[1].ID; got != "path1" {
		t.Fatalf("path not moved to front in group: %s", got)
	}
	s, _ = Dispatch(s, Command{Op: OpSetMoveMode, Mode: MoveGroup})
	s, _ = Dispatch(s, Command{Op: OpBringToFront})
	if s.Root.Nodes[1].Kind != document.KindGroup {
		t.Fatalf("group not moved to front: %v", s.Root.IDs())
	}
	s, _ = Dispatch(s, Command{Op: OpSendToBack})
	if s.Root.Nodes[0].Kind != document.KindGroup {
		t.Fatalf("group not moved to back: %v", s.Root.IDs())
	}
}

func TestMutationsWithoutSelectionAreNoops(t *testing.T) {
	s := loaded(t)
	before := s.TreeText
	for _, op := range []Op{OpNudge, OpBringToFront, OpSendToBack} {
		var ri RenderInstruction
		s, ri = Dispatch(s, Command{Op: op, Direction: Left})
		if ri != RenderNone {
			t.Fatalf("%s without selection: ri = %s", op, ri)
		}
	}
	if s.TreeText != before {
		t.Fatalf("tree changed without selection")
	}
}

func TestEditTreeText(t *testing.T) {
	s := loaded(t)
	s, _ = Dispatch(s, Command{Op: OpSelect, ID: "r"})
	vb := s.Root.ViewBox

	bad := `[{"id": "x"}]`
	s2, ri := Dispatch(s, Command{Op: OpEditTreeText, Text: bad})
	if s2.Error == "" || ri != RenderError || s2.Root != s.Root || s2.TreeText != bad {
		t.Fatalf("bad edit: err=%q ri=%s", s2.Error, ri)
	}

	good := `[{"id": "r", "kind": "rect", "attrs": {"x": 1}}, {"id": "c", "kind": "circle", "attrs": {}}]`
	s3, ri := Dispatch(s2, Command{Op: OpEditTreeText, Text: good})
	if s3.Error != "" || !ri.Has(RenderCanvas) || ri.Has(RenderTreeText) {
		t.Fatalf("good edit: err=%q ri=%s", s3.Error, ri)
	}
	if s3.Root.ViewBox != vb || len(s3.Root.Nodes) != 2 || s3.Selected != "r" {
		t.Fatalf("edited root = %+v, selected %q", s3.Root, s3.Selected)
	}
	if len(s.Root.Nodes) != 2 || s.Root.Nodes[0].Kind != document.KindGroup {
		t.Fatalf("previous state's tree was modified")
	}
}

func TestGridAndMarkupCommands(t *testing.T) {
	s := loaded(t)
	if !s.ShowGrid {
		t.Fatalf("grid hidden by default")
	}
	s, ri := Dispatch(s, Command{Op: OpToggleGrid})
	if s.ShowGrid || ri != RenderOverlay {
		t.Fatalf("toggle: show=%v ri=%s", s.ShowGrid, ri)
	}
	s, _ = Dispatch(s, Command{Op: OpSetGridSize, Size: 20})
	s, ri = Dispatch(s, Command{Op: OpSetGridSize, Size: -1})
	if s.GridSize != 20 || ri != RenderNone {
		t.Fatalf("grid size = %v", s.GridSize)
	}

	s, ri = Dispatch(s, Command{Op: OpTreeToMarkup})
	if ri != RenderMarkupInput || !strings.HasPrefix(s.MarkupInput, `<svg viewBox="0 0 200 100"`) {
		t.Fatalf("markup input = %q", s.MarkupInput)
	}

	s, ri = Dispatch(s, Command{Op: OpClear})
	if s.Root != nil || s.TreeText != "" || s.Selected != "" || ri != RenderAll {
		t.Fatalf("clear left state behind")
	}
	if _, ri = Dispatch(s, Command{Op: OpTreeToMarkup}); ri != RenderNone {
		t.Fatalf("tree-to-markup on empty editor: %s", ri)
	}
}

func TestRenderInstructionString(t *testing.T) {
	if got := (RenderCanvas | RenderSelection).String(); got != "canvas|selection" {
		t.Fatalf("String() = %q", got)
	}
	if RenderNone.String() != "none" || RenderNone.Has(RenderNone) {
		t.Fatalf("RenderNone misbehaves")
	}
}

func TestParseHelpers(t *testing.T) {
	if m, err := ParseMoveMode(" Group "); err != nil || m != MoveGroup {
		t.Fatalf("ParseMoveMode = %v, %v", m, err)
	}
	if _, err := ParseMoveMode("both"); err == nil {
		t.Fatalf("expected error")
	}
	if d, err := ParseDirection("LEFT"); err != nil || d != Left {
		t.Fatalf("ParseDirection = %v, %v", d, err)
	}
}
