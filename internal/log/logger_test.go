/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitAndStructuredLoggingToFile verifies that the file sink writes JSON
// lines carrying the static and contextual attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "svgadjuster.log")
	old := console
	console = &bytes.Buffer{}
	t.Cleanup(func() { console = old })

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithOperation(WithComponent("markup"), "parse")
	l.Info("parsed document", slog.Int("nodes", 3))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "svgadjuster" {
		t.Fatalf("app attr = %v, want svgadjuster", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "markup" || m["op"] != "parse" {
		t.Fatalf("context attrs mismatch: %v / %v", m["component"], m["op"])
	}
	if m["msg"] != "parsed document" {
		t.Fatalf("msg = %v", m["msg"])
	}
	if m["nodes"] != float64(3) {
		t.Fatalf("nodes = %v, want 3", m["nodes"])
	}
}

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("SVA_LOG_LEVEL", "warn")
	t.Setenv("SVA_LOG_FORMAT", "json")
	t.Setenv("SVA_LOG_SOURCE", "TRUE")
	t.Setenv("SVA_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("SVA_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback = %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyTextHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := newPrettyTextHandler(&buf, prettyOpts{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "editor")}).WithGroup("grp")

	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.String("id", "rect 1"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "boom", "component=editor", "grp.n=42", "grp.pi=3.14", `grp.id="rect 1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	// a buffer is not a terminal, so no escape sequences
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected colour codes in %q", out)
	}
}

func TestPrettyTextHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newPrettyTextHandler(&buf, prettyOpts{Level: slog.LevelInfo, AddSource: true})).Info("with source")
	if out := buf.String(); !strings.Contains(out, " src=") || !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("output %q missing call site", out)
	}

	buf.Reset()
	h := newPrettyTextHandler(&buf, prettyOpts{Level: slog.LevelInfo, AddSource: true})
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "no pc", 0)); err != nil {
		t.Fatalf("handle error: %v", err)
	}
	if out := buf.String(); strings.Contains(out, "src=") {
		t.Fatalf("record without pc printed a source: %q", out)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := multiHandler(
		newPrettyTextHandler(&a, prettyOpts{Level: slog.LevelDebug}),
		newPrettyTextHandler(&b, prettyOpts{Level: slog.LevelError}),
	)
	l := slog.New(h)
	l.Info("only first")
	l.Error("both")
	if !strings.Contains(a.String(), "only first") || !strings.Contains(a.String(), "both") {
		t.Fatalf("first sink = %q", a.String())
	}
	if strings.Contains(b.String(), "only first") || !strings.Contains(b.String(), "both") {
		t.Fatalf("second sink = %q", b.String())
	}
}
