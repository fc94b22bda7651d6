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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"svgadjuster/internal/export"
	"svgadjuster/internal/markup"
	"svgadjuster/internal/storage"
)

// openLibrary opens the configured library and seeds the examples when enabled.
func (a *app) openLibrary(ctx context.Context) (*storage.Library, error) {
	dsn, err := a.cfg.LibraryDSN()
	if err != nil {
		return nil, err
	}
	lib, err := storage.OpenLibrary(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if a.cfg.Library.SeedExamples {
		if _, err := lib.SeedExamples(ctx, a.thumbnail); err != nil {
			a.log.Warn("seeding examples failed", slog.Any("err", err))
		}
	}
	return lib, nil
}

func (a *app) thumbnail(markup string) ([]byte, error) {
	return export.Thumbnail(markup, a.cfg.Export.ThumbSize)
}

func (a *app) library(ctx context.Context, sub string, args []string) error {
	lib, err := a.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer lib.Close()

	switch sub {
	case "list":
		entries, err := lib.List(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			thumb := ""
			if e.HasThumb {
				thumb = " [thumb]"
			}
			a.printf("%-24s %8d  %s%s\n", e.Name, e.Size, e.Updated.Local().Format(time.DateTime), thumb)
		}
		return nil
	case "put":
		if len(args) < 2 {
			return errors.New("library put requires <name> <src>")
		}
		return a.libraryPut(ctx, lib, args[0], args[1])
	case "get":
		if len(args) < 1 {
			return errors.New("library get requires <name> [out]")
		}
		d, err := lib.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if len(args) > 1 {
			return storage.ExportFile(args[1], d.Markup, a.cfg.Export.Backups)
		}
		a.printf("%s", d.Markup)
		return nil
	case "rm":
		if len(args) < 1 {
			return errors.New("library rm requires <name>")
		}
		if err := lib.Delete(ctx, args[0]); err != nil {
			return err
		}
		a.printf("Removed %s\n", args[0])
		return nil
	case "examples":
		n, err := lib.SeedExamples(ctx, a.thumbnail)
		if err != nil {
			return err
		}
		a.printf("Added %d example(s)\n", n)
		return nil
	}
	return fmt.Errorf("unknown library subcommand %q", sub)
}

// libraryPut stores the normalized markup of src under name together with a thumbnail.
func (a *app) libraryPut(ctx context.Context, lib *storage.Library, name, src string) error {
	root, diags, err := a.load(ctx, src)
	if err != nil {
		return err
	}
	printDiagnostics(a.out, diags)
	gen := markup.Generate(root)
	thumb, err := a.thumbnail(gen)
	if err != nil {
		a.log.Warn("thumbnail failed", slog.String("name", name), slog.Any("err", err))
		thumb = nil
	}
	if err := lib.Put(ctx, name, gen, thumb); err != nil {
		return err
	}
	a.printf("Stored %s\n", name)
	return nil
}
