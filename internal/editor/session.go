/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"log/slog"

	"svgadjuster/internal/config"
	applog "svgadjuster/internal/log"
	"svgadjuster/internal/markup"
	"svgadjuster/internal/render"
)

// Session couples a State with a render surface and performs the render
// cycle: generate, render, bind, overlay.
type Session struct {
	state   State
	surface render.Surface
	log     *slog.Logger
}

// NewSession returns a session with an empty document.
func NewSession(cfg config.EditorConfig, surface render.Surface) *Session {
	return &Session{
		state:   NewState(cfg),
		surface: surface,
		log:     applog.WithComponent("editor"),
	}
}

// State returns a copy of the current state. The tree is shared.
func (s *Session) State() State { return s.state }

// Do dispatches cmd and refreshes the surface as instructed. The returned
// error is a surface failure; command errors land in State().Error.
func (s *Session) Do(cmd Command) (RenderInstruction, error) {
	next, ri := Dispatch(s.state, cmd)
	s.state = next
	s.log.Debug("dispatched", slog.String("op", cmd.Op.String()), slog.String("render", ri.String()))
	return ri, s.apply(ri)
}

// Click resolves a clicked rendered element and selects its node, or
// clears the selection when the click hit nothing selectable.
func (s *Session) Click(el render.Element) (RenderInstruction, error) {
	id, ok := render.ResolveClick(s.surface.Root(), el)
	if !ok {
		return s.Do(Command{Op: OpClearSelection})
	}
	return s.Do(Command{Op: OpSelect, ID: id})
}

// Markup returns the generated markup of the current tree, without overlay.
func (s *Session) Markup() string { return markup.Generate(s.state.Root) }

// AutosaveMarkup is used by crash recovery; it must not panic.
func (s *Session) AutosaveMarkup() (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	if s == nil || s.state.Root == nil {
		return ""
	}
	return markup.Generate(s.state.Root)
}

func (s *Session) apply(ri RenderInstruction) error {
	if s.surface == nil {
		return nil
	}
	if ri.Has(RenderCanvas) {
		if err := s.surface.Render(markup.Generate(s.state.Root)); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if s.state.Root != nil {
			render.Bind(s.surface.Root(), s.state.Root.Nodes)
		}
	}
	if ri.Has(RenderCanvas) || ri.Has(RenderOverlay) {
		s.surface.RemoveOverlay(render.GridID)
		if s.state.ShowGrid && s.state.Root != nil {
			if err := s.surface.AddOverlay(render.GridMarkup(s.state.Root.ViewBox, s.state.GridSize)); err != nil {
				return fmt.Errorf("grid overlay: %w", err)
			}
		}
	}
	return nil
}
