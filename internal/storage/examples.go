/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Example is a bundled sample document.
type Example struct {
	Name   string
	Markup string
}

// Examples returns the bundled sample documents in display order.
func Examples() []Example {
	return []Example{
		{Name: "basic", Markup: exampleBasic},
		{Name: "path", Markup: examplePath},
	}
}

const exampleBasic = `<svg viewBox="0 0 100 100">
  <defs>
    <linearGradient id="blue-gradient" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" stop-color="oklch(85% 0.1 230)" />
      <stop offset="100%" stop-color="oklch(70% 0.15 330)" />
    </linearGradient>
  </defs>
  <rect x="10" y="10" width="80" height="80" fill="darkblue" id="rect1" />
  <circle cx="50" cy="50" r="25" fill="url(#blue-gradient)" id="circle1" />
</svg>`

const examplePath = `<svg viewBox="0 0 200 100">
  <g transform="translate(0,0)">
    <path d="M10,90 Q50,10 90,90" stroke="green" fill="none" stroke-width="5" id="path1" />
    <text x="9" y="45.5" font-size="15" id="text1">SVG Adjuster</text>
  </g>
</svg>`

// Thumbnailer renders a preview image for markup.
type Thumbnailer func(markup string) ([]byte, error)

// SeedExamples stores every bundled example that is not yet in the library and returns how many were added.
// A failing thumbnailer only costs the thumbnail.
func (lib *Library) SeedExamples(ctx context.Context, thumb Thumbnailer) (int, error) {
	added := 0
	for _, ex := range Examples() {
		_, err := lib.Get(ctx, ex.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, err
		}
		var png []byte
		if thumb != nil {
			if png, err = thumb(ex.Markup); err != nil {
				lib.log.Warn("example thumbnail failed", slog.String("name", ex.Name), slog.Any("err", err))
				png = nil
			}
		}
		if err := lib.Put(ctx, ex.Name, ex.Markup, png); err != nil {
			return added, fmt.Errorf("seed example %q: %w", ex.Name, err)
		}
		added++
	}
	if added > 0 {
		lib.log.Info("examples seeded", slog.Int("count", added))
	}
	return added, nil
}
