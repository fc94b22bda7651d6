/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"svgadjuster/internal/config"
	"svgadjuster/internal/document"
	"svgadjuster/internal/export"
	"svgadjuster/internal/markup"
	"svgadjuster/internal/storage"
	"svgadjuster/internal/treetext"
)

// readSource returns the markup behind src: a file, "-" for stdin, or lib:<name>.
func (a *app) readSource(ctx context.Context, src string) (string, error) {
	if name, ok := isLibrarySource(src); ok {
		lib, err := a.openLibrary(ctx)
		if err != nil {
			return "", err
		}
		defer lib.Close()
		d, err := lib.Get(ctx, name)
		if err != nil {
			return "", err
		}
		return d.Markup, nil
	}
	if src == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return storage.ReadDocument(src)
}

func (a *app) load(ctx context.Context, src string) (*document.Root, []document.Diagnostic, error) {
	text, err := a.readSource(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return markup.Parse(text)
}

func (a *app) parse(ctx context.Context, src string) error {
	root, diags, err := a.load(ctx, src)
	if err != nil {
		return err
	}
	a.printf("%s\n", treetext.Encode(root.Nodes))
	printDiagnostics(a.out, diags)
	return nil
}

func printDiagnostics(w io.Writer, diags []document.Diagnostic) {
	for _, d := range diags {
		_, _ = fmt.Fprintf(w, "warning: %s\n", d.String())
	}
}

func (a *app) print(ctx context.Context, src string) error {
	root, _, err := a.load(ctx, src)
	if err != nil {
		return err
	}
	out := markup.Generate(root)
	if f, ok := a.out.(*os.File); ok && termenv.NewOutput(f).Profile != termenv.Ascii {
		if err := quick.Highlight(a.out, out, "xml", "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	a.printf("%s", out)
	return nil
}

func (a *app) export(ctx context.Context, src, out string) error {
	root, diags, err := a.load(ctx, src)
	if err != nil {
		return err
	}
	printDiagnostics(a.out, diags)
	if err := exportTo(out, root, a.cfg.Export); err != nil {
		return err
	}
	a.log.Info("exported", slog.String("out", out))
	a.printf("Exported to %s\n", out)
	return nil
}

// exportTo writes root to path in the format named by its extension.
func exportTo(path string, root *document.Root, cfg config.ExportConfig) error {
	gen := markup.Generate(root)
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg", "":
		buf.WriteString(gen)
	case ".png":
		if err := export.PNG(&buf, gen, export.RasterOptions{Scale: cfg.Scale}); err != nil {
			return err
		}
	case ".pdf":
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := export.PDF(&buf, root, export.PDFOptions{Scale: cfg.Scale, Title: title}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(path))
	}
	return storage.ExportFile(path, buf.String(), cfg.Backups)
}

func (a *app) showConfig() error {
	p, _ := config.ConfigPath()
	a.printf("# %s\n", p)
	data, err := yaml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	a.printf("%s", data)
	for _, k := range config.EnvKeys() {
		if name, ok := config.EnvOverrideFor(k); ok {
			a.printf("# %s overridden by %s\n", k, name)
		}
	}
	return nil
}
