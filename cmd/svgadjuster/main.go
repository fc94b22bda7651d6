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
	"io"
	"log/slog"
	"os"
	"strings"

	"svgadjuster/internal/config"
	"svgadjuster/internal/crash"
	applog "svgadjuster/internal/log"
	"svgadjuster/internal/version"
)

func usage() {
	fmt.Println("SVG Adjuster")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  svgadjuster version|-v|--version            Show version")
	fmt.Println("  svgadjuster parse <src>                     Print the tree text and diagnostics of a document")
	fmt.Println("  svgadjuster print <src>                     Print the regenerated markup (highlighted on terminals)")
	fmt.Println("  svgadjuster edit <src>                      Interactive editor; type 'help' for commands")
	fmt.Println("  svgadjuster watch <file>                    Re-parse the file whenever it changes")
	fmt.Println("  svgadjuster export <src> <out.svg|png|pdf>  Export a document")
	fmt.Println("  svgadjuster library list|put|get|rm|examples")
	fmt.Println("  svgadjuster config path|show")
	fmt.Println()
	fmt.Println("<src> is a file path, '-' for stdin, or lib:<name> for a library document.")
}

func main() {
	cfg, cfgErr := config.Load()
	opts := applog.FromEnv()
	opts.Level = cfg.Logging.Level
	opts.Format = cfg.Logging.Format
	opts.AddSource = cfg.Logging.Source
	opts.File = cfg.Logging.File
	applog.Init(opts)
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}

	var sess *editSession
	defer crash.Recover(autosaver{&sess})

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	ctx := context.Background()
	a := &app{cfg: cfg, log: l, out: os.Stdout}

	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("SVG Adjuster")
		fmt.Println(version.String())
		return
	case "parse":
		need(args, 3, "parse requires <src>")
		err = a.parse(ctx, args[2])
	case "print":
		need(args, 3, "print requires <src>")
		err = a.print(ctx, args[2])
	case "edit":
		src := ""
		if len(args) >= 3 {
			src = args[2]
		}
		sess, err = a.newSession(ctx, src)
		if err == nil {
			err = a.edit(ctx, sess, os.Stdin)
		}
	case "watch":
		need(args, 3, "watch requires <file>")
		err = a.watch(ctx, args[2])
	case "export":
		need(args, 4, "export requires <src> and <out>")
		err = a.export(ctx, args[2], args[3])
	case "library":
		need(args, 3, "library requires a subcommand")
		err = a.library(ctx, args[2], args[3:])
	case "config":
		need(args, 3, "config requires path or show")
		err = a.config(args[2])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error(args[1]+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// autosaver resolves the session at crash time; it is created after the defer.
type autosaver struct{ sess **editSession }

func (a autosaver) AutosaveMarkup() string {
	if *a.sess == nil {
		return ""
	}
	return (*a.sess).AutosaveMarkup()
}

func need(args []string, n int, msg string) {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg config.AppConfig
	log *slog.Logger
	out io.Writer
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *app) config(sub string) error {
	switch sub {
	case "path":
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		a.printf("%s\n", p)
		return nil
	case "show":
		return a.showConfig()
	}
	return fmt.Errorf("unknown config subcommand %q", sub)
}

func isLibrarySource(src string) (string, bool) {
	name, ok := strings.CutPrefix(src, "lib:")
	return name, ok
}
