/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-shellwords"

	"svgadjuster/internal/editor"
	"svgadjuster/internal/surface"
)

const editHelp = `Commands:
  select <id>            select a node
  click <id>             click the rendered element with that id
  deselect               clear the selection
  nudge <up|down|left|right> [n]
  front | back           reorder the selection (group-aware in group mode)
  mode [single|group]    show or set the move mode
  grid [on|off|<size>]   toggle the grid, or set its size
  tree [file]            print the tree text, or replace the tree from a JSON file
  markup [file]          print the generated markup, or load markup from a file
  find                   print the selection's block in the tree text
  clear                  start over with an empty document
  save [path]            save (.svg, .png or .pdf); defaults to the opened file
  quit
`

// newSession returns an editor session rendering into an in-memory surface, loaded from src if given.
func (a *app) newSession(ctx context.Context, src string) (*editSession, error) {
	dom := surface.New()
	es := &editSession{Session: editor.NewSession(a.cfg.Editor, dom), dom: dom, path: src}
	if src == "" {
		return es, nil
	}
	text, err := a.readSource(ctx, src)
	if err != nil {
		return nil, err
	}
	if _, err := es.Do(editor.Command{Op: editor.OpParseMarkup, Text: text}); err != nil {
		return nil, err
	}
	if msg := es.State().Error; msg != "" {
		return nil, errors.New(msg)
	}
	if _, ok := isLibrarySource(src); ok || src == "-" {
		es.path = ""
	}
	return es, nil
}

// editSession is an editor session with its surface and save target.
type editSession struct {
	*editor.Session
	dom  *surface.DOM
	path string
}

// edit runs the command loop until quit or end of input.
func (a *app) edit(ctx context.Context, es *editSession, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	a.printf("%d node(s). Type 'help' for commands.\n", countNodes(es))
	printDiagnostics(a.out, es.State().Diagnostics)
	for {
		a.printf("> ")
		if !sc.Scan() {
			a.printf("\n")
			return sc.Err()
		}
		words, err := shellwords.Parse(sc.Text())
		if err != nil {
			a.printf("error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		quit, err := a.editCommand(ctx, es, words)
		if err != nil {
			a.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func countNodes(es *editSession) int {
	if r := es.State().Root; r != nil {
		return len(r.IDs())
	}
	return 0
}

func (a *app) editCommand(_ context.Context, es *editSession, words []string) (quit bool, err error) {
	cmd, args := words[0], words[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	do := func(c editor.Command) error {
		ri, err := es.Do(c)
		if err != nil {
			return err
		}
		a.report(es, ri)
		return nil
	}

	switch cmd {
	case "help", "?":
		a.printf("%s", editHelp)
	case "quit", "exit", "q":
		return true, nil
	case "select":
		if arg(0) == "" {
			return false, errors.New("select requires <id>")
		}
		return false, do(editor.Command{Op: editor.OpSelect, ID: arg(0)})
	case "click":
		el := es.dom.ElementByID(arg(0))
		if el == nil {
			return false, fmt.Errorf("no rendered element %q", arg(0))
		}
		ri, err := es.Click(el)
		if err != nil {
			return false, err
		}
		a.report(es, ri)
	case "deselect":
		return false, do(editor.Command{Op: editor.OpClearSelection})
	case "nudge":
		dir, err := editor.ParseDirection(arg(0))
		if err != nil {
			return false, err
		}
		n := 1
		if s := arg(1); s != "" {
			if n, err = strconv.Atoi(s); err != nil || n < 1 {
				return false, fmt.Errorf("bad repeat count %q", s)
			}
		}
		for i := 0; i < n; i++ {
			if err := do(editor.Command{Op: editor.OpNudge, Direction: dir}); err != nil {
				return false, err
			}
		}
	case "front":
		return false, do(editor.Command{Op: editor.OpBringToFront})
	case "back":
		return false, do(editor.Command{Op: editor.OpSendToBack})
	case "mode":
		if arg(0) == "" {
			a.printf("mode: %s\n", es.State().MoveMode)
			return false, nil
		}
		m, err := editor.ParseMoveMode(arg(0))
		if err != nil {
			return false, err
		}
		return false, do(editor.Command{Op: editor.OpSetMoveMode, Mode: m})
	case "grid":
		switch v := arg(0); v {
		case "":
			return false, do(editor.Command{Op: editor.OpToggleGrid})
		case "on", "off":
			if es.State().ShowGrid != (v == "on") {
				return false, do(editor.Command{Op: editor.OpToggleGrid})
			}
		default:
			size, err := strconv.ParseFloat(v, 64)
			if err != nil || size <= 0 {
				return false, fmt.Errorf("bad grid size %q", v)
			}
			return false, do(editor.Command{Op: editor.OpSetGridSize, Size: size})
		}
	case "tree":
		if arg(0) == "" {
			a.printf("%s\n", es.State().TreeText)
			return false, nil
		}
		b, err := os.ReadFile(arg(0))
		if err != nil {
			return false, err
		}
		return false, do(editor.Command{Op: editor.OpEditTreeText, Text: string(b)})
	case "markup":
		if arg(0) == "" {
			if err := do(editor.Command{Op: editor.OpTreeToMarkup}); err != nil {
				return false, err
			}
			a.printf("%s", es.State().MarkupInput)
			return false, nil
		}
		b, err := os.ReadFile(arg(0))
		if err != nil {
			return false, err
		}
		return false, do(editor.Command{Op: editor.OpParseMarkup, Text: string(b)})
	case "find":
		if err := do(editor.Command{Op: editor.OpFindInTree}); err != nil {
			return false, err
		}
		st := es.State()
		if st.Highlight.Empty() {
			return false, errors.New("nothing selected")
		}
		a.printf("%s\n", st.TreeText[st.Highlight.Start:st.Highlight.End])
	case "clear":
		return false, do(editor.Command{Op: editor.OpClear})
	case "save":
		path := arg(0)
		if path == "" {
			path = es.path
		}
		if path == "" {
			return false, errors.New("save requires a path")
		}
		root := es.State().Root
		if root == nil {
			return false, errors.New("nothing to save")
		}
		if err := exportTo(path, root, a.cfg.Export); err != nil {
			return false, err
		}
		a.printf("saved %s\n", path)
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

// report prints what changed after a command.
func (a *app) report(es *editSession, ri editor.RenderInstruction) {
	st := es.State()
	if ri.Has(editor.RenderError) && st.Error != "" {
		a.printf("error: %s\n", st.Error)
		return
	}
	if ri.Has(editor.RenderCanvas) {
		printDiagnostics(a.out, st.Diagnostics)
	}
	if ri.Has(editor.RenderSelection) {
		if st.Selected == "" {
			a.printf("selection: none\n")
		} else {
			a.printf("selection: %s\n", st.Selected)
		}
	}
	if ri.Has(editor.RenderOverlay) && !ri.Has(editor.RenderCanvas) {
		a.printf("grid: %v (%s)\n", st.ShowGrid, strconv.FormatFloat(st.GridSize, 'f', -1, 64))
	}
}
