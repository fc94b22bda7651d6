/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	applog "svgadjuster/internal/log"
	"svgadjuster/internal/markup"
	"svgadjuster/internal/storage"
)

// watch re-parses path on every change until interrupted.
func (a *app) watch(ctx context.Context, path string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return a.watchLoop(ctx, path, nil)
}

// watchLoop prints a summary after each parse; parsed, when set, receives every parse result.
func (a *app) watchLoop(ctx context.Context, path string, parsed chan<- error) error {
	l := applog.WithComponent("watch").With(slog.String("path", path))
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	check := func() {
		err := a.reparse(abs)
		if err != nil {
			l.Info("parse failed", slog.Any("err", err))
			a.printf("error: %v\n", err)
		}
		if parsed != nil {
			parsed <- err
		}
	}
	check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || (!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create)) {
				continue
			}
			l.Debug("changed", slog.String("op", ev.Op.String()))
			check()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn("watcher error", slog.Any("err", err))
		}
	}
}

func (a *app) reparse(path string) error {
	text, err := storage.ReadDocument(path)
	if err != nil {
		return err
	}
	root, diags, err := markup.Parse(text)
	if err != nil {
		return err
	}
	a.printf("%s: %d node(s), %d warning(s)\n", filepath.Base(path), len(root.IDs()), len(diags))
	printDiagnostics(a.out, diags)
	return nil
}
