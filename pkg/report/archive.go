package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/josemmo/fakeium/internal/errx"
)

// ErrArchive is returned when a Store's events cannot be written to a
// durable archive (see Archive).
var ErrArchive = errors.New("report: archive export failed")

const archiveSchema = `
CREATE TABLE IF NOT EXISTS events (
	seq            INTEGER PRIMARY KEY,
	type           TEXT NOT NULL,
	path           TEXT NOT NULL,
	filename       TEXT NOT NULL,
	line           INTEGER NOT NULL,
	column         INTEGER NOT NULL,
	is_constructor INTEGER NOT NULL,
	payload        TEXT NOT NULL
)`

// Archive appends every event currently in the store to a SQLite events
// table in db, creating the table if needed. This is a purely additive,
// optional durable export for offline SQL analysis; it does not back the
// Store's own query matcher, which per spec.md §4.2 remains an in-memory
// linear scan with no indexing.
func (s *Store) Archive(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, archiveSchema); err != nil {
		return errx.With(ErrArchive, ": create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errx.With(ErrArchive, ": begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (type, path, filename, line, column, is_constructor, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errx.With(ErrArchive, ": prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range s.GetAll() {
		payload, err := json.Marshal(e)
		if err != nil {
			return errx.With(ErrArchive, ": marshal event on path %q: %w", e.Path, err)
		}
		if _, err := stmt.ExecContext(ctx, string(e.Type), e.Path, e.Location.Filename,
			e.Location.Line, e.Location.Column, e.IsConstructor, string(payload)); err != nil {
			return errx.With(ErrArchive, ": insert event on path %q: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errx.With(ErrArchive, ": commit: %w", err)
	}
	return nil
}
