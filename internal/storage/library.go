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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "svgadjuster/internal/log"
	"svgadjuster/internal/version"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the library schema.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// ErrNotFound is returned when a named document is not in the library.
var ErrNotFound = errors.New("document not found")

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Document is a library entry with its markup.
type Document struct {
	Name    string
	Markup  string
	Updated time.Time
}

// Entry is the listing form of a document.
type Entry struct {
	Name     string
	Updated  time.Time
	Size     int
	HasThumb bool
}

// Library stores named documents in a SQL database.
type Library struct {
	db      *sql.DB
	dialect dialect
	log     *slog.Logger
}

// IsPostgresDSN reports whether dsn addresses a Postgres server rather than a SQLite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenLibrary opens (creating if needed) the library at dsn.
// A postgres:// URL selects the pgx driver; anything else is taken as a SQLite file path.
func OpenLibrary(ctx context.Context, dsn string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open")
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("library dsn is required")
	}

	lib := &Library{log: l}
	var err error
	if IsPostgresDSN(dsn) {
		lib.dialect = dialectPostgres
		lib.db, err = sql.Open("pgx", dsn)
		if err != nil {
			l.Error("postgres open failed", slog.Any("err", err))
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	} else {
		path := strings.TrimPrefix(dsn, "file:")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create library dir: %w", err)
		}
		// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
		uri := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
		lib.db, err = sql.Open("sqlite", uri)
		if err != nil {
			l.Error("sqlite open failed", slog.Any("err", err))
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		lib.db.SetMaxOpenConns(1)
		lib.db.SetMaxIdleConns(1)
		if _, err := lib.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = lib.db.Close()
			l.Error("enable WAL failed", slog.Any("err", err))
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := lib.ensureVersion(ctx); err != nil {
		_ = lib.db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := lib.ensureSchema(ctx); err != nil {
		_ = lib.db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := lib.runMigrations(ctx); err != nil {
		_ = lib.db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("library ready", slog.Bool("postgres", lib.dialect == dialectPostgres))
	return lib, nil
}

// Close releases the database handle.
func (lib *Library) Close() error { return lib.db.Close() }

// SchemaVersion returns the schema version recorded in the database.
func (lib *Library) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := lib.db.QueryRowContext(ctx, lib.rebind(`SELECT schema FROM version WHERE id=1`)).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// rebind rewrites ? placeholders into $n for Postgres.
func (lib *Library) rebind(q string) string {
	if lib.dialect != dialectPostgres {
		return q
	}
	return rebindDollar(q)
}

func rebindDollar(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (lib *Library) blobType() string {
	if lib.dialect == dialectPostgres {
		return "BYTEA"
	}
	return "BLOB"
}

func (lib *Library) ensureVersion(ctx context.Context) error {
	// language=SQL
	const ddl = `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`
	if _, err := lib.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := lib.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at schema 1 and is migrated forward.
		if _, err := lib.db.ExecContext(ctx, lib.rebind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`), 1, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := lib.db.ExecContext(ctx, lib.rebind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func (lib *Library) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			name       TEXT PRIMARY KEY,
			markup     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS previews (
			name       TEXT PRIMARY KEY REFERENCES documents(name) ON DELETE CASCADE,
			kind       TEXT    NOT NULL DEFAULT 'thumb',
			thumb_blob ` + lib.blobType() + ` NOT NULL,
			size       INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT    NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := lib.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure library schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func (lib *Library) runMigrations(ctx context.Context) error {
	cur, err := lib.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if cur > schemaVersion {
		lib.log.Warn("library schema is newer than this build", slog.Int("schema", cur), slog.Int("known", schemaVersion))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at);`,
			}
		}
		tx, err := lib.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, lib.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		lib.log.Info("library migrated", slog.Int("schema", next))
		cur = next
	}
	return nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("document name is required")
	}
	return nil
}

// Put stores markup under name, replacing any previous version. A nil thumb removes the stored thumbnail.
func (lib *Library) Put(ctx context.Context, name, markup string, thumb []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := lib.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	// language=SQL
	const upsertDoc = `INSERT INTO documents (name, markup, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET markup=excluded.markup, updated_at=excluded.updated_at`
	if _, err := tx.ExecContext(ctx, lib.rebind(upsertDoc), name, markup, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("put document %q: %w", name, err)
	}
	if thumb == nil {
		if _, err := tx.ExecContext(ctx, lib.rebind(`DELETE FROM previews WHERE name=?`), name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear thumbnail %q: %w", name, err)
		}
	} else {
		// language=SQL
		const upsertThumb = `INSERT INTO previews (name, kind, thumb_blob, size, updated_at) VALUES (?, 'thumb', ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET thumb_blob=excluded.thumb_blob, size=excluded.size, updated_at=excluded.updated_at`
		if _, err := tx.ExecContext(ctx, lib.rebind(upsertThumb), name, thumb, len(thumb), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("put thumbnail %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	lib.log.Debug("document stored", slog.String("name", name), slog.Int("bytes", len(markup)))
	return nil
}

// Get loads the named document or returns ErrNotFound.
func (lib *Library) Get(ctx context.Context, name string) (Document, error) {
	var d Document
	var ts string
	err := lib.db.QueryRowContext(ctx, lib.rebind(`SELECT name, markup, updated_at FROM documents WHERE name=?`), name).
		Scan(&d.Name, &d.Markup, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %q: %w", name, err)
	}
	d.Updated = parseTime(ts)
	return d, nil
}

// Thumbnail returns the stored thumbnail PNG for name, or ErrNotFound.
func (lib *Library) Thumbnail(ctx context.Context, name string) ([]byte, error) {
	var b []byte
	err := lib.db.QueryRowContext(ctx, lib.rebind(`SELECT thumb_blob FROM previews WHERE name=? AND kind='thumb'`), name).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thumbnail %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get thumbnail %q: %w", name, err)
	}
	return b, nil
}

// List returns all documents ordered by name.
func (lib *Library) List(ctx context.Context) ([]Entry, error) {
	// language=SQL
	const q = `SELECT d.name, d.updated_at, LENGTH(d.markup), p.name IS NOT NULL
		FROM documents d LEFT JOIN previews p ON p.name = d.name
		ORDER BY d.name`
	rows, err := lib.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.Name, &ts, &e.Size, &e.HasThumb); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		e.Updated = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the named document and its thumbnail.
func (lib *Library) Delete(ctx context.Context, name string) error {
	tx, err := lib.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, lib.rebind(`DELETE FROM previews WHERE name=?`), name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete thumbnail %q: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, lib.rebind(`DELETE FROM documents WHERE name=?`), name)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete document %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return tx.Commit()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
