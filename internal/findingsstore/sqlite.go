//go:build !wasm

// Package findingsstore's sqlite backend gives a scan a durable,
// queryable record on disk, for the "persists to disk when configured"
// case. The in-memory Store remains authoritative during a scan; this
// backend is a write-behind mirror flushed at the end of a run (or
// incrementally via Persist), not a replacement for Store's locking.
package findingsstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// SQLiteBackend persists findings recorded by a Store to a sqlite
// database, so a second invocation (e.g. `--baseline-file` review, or
// a downstream query tool) can reopen the scan's results without
// rerunning it.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (creating if necessary) a sqlite database at
// path and ensures its schema exists.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &types.StorePersistError{Path: path, Err: fmt.Errorf("opening sqlite database: %w", err)}
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &types.StorePersistError{Path: path, Err: fmt.Errorf("enabling WAL mode: %w", err)}
	}
	if err := createFindingsSchema(db); err != nil {
		db.Close()
		return nil, &types.StorePersistError{Path: path, Err: err}
	}
	return &SQLiteBackend{db: db}, nil
}

func createFindingsSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS findings (
			fingerprint TEXT PRIMARY KEY NOT NULL,
			rule_id TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			validation_status TEXT,
			visible INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS occurrences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			fingerprint TEXT NOT NULL REFERENCES findings(fingerprint),
			blob_id TEXT NOT NULL,
			origin_kind TEXT NOT NULL,
			origin_path TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			start_column INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_column INTEGER NOT NULL,
			snippet_matching TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_occurrences_fingerprint ON occurrences(fingerprint)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Persist flushes every finding currently held by s into the
// database, replacing any prior row for the same fingerprint. Call
// once a scan has finished (or periodically for a long-running one).
func (b *SQLiteBackend) Persist(s *Store) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range s.GetFindings() {
		var status sql.NullString
		if f.BestValidation != nil {
			status = sql.NullString{String: string(f.BestValidation.Status), Valid: true}
		}
		visible := 1
		for _, occ := range f.Occurrences {
			if !occ.Match.Visible {
				visible = 0
			}
		}

		if _, err := tx.Exec(`INSERT INTO findings (fingerprint, rule_id, rule_name, validation_status, visible)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(fingerprint) DO UPDATE SET rule_id=excluded.rule_id, rule_name=excluded.rule_name,
				validation_status=excluded.validation_status, visible=excluded.visible`,
			f.RuleFindingFingerprint, f.RuleID, f.RuleName, status, visible); err != nil {
			return fmt.Errorf("upserting finding %s: %w", f.RuleFindingFingerprint, err)
		}

		if _, err := tx.Exec(`DELETE FROM occurrences WHERE fingerprint = ?`, f.RuleFindingFingerprint); err != nil {
			return fmt.Errorf("clearing occurrences for %s: %w", f.RuleFindingFingerprint, err)
		}

		for _, occ := range f.Occurrences {
			origin := occ.Origins.First()
			var kind, path string
			if origin != nil {
				kind, path = origin.Kind(), origin.Path()
			}
			loc := occ.Match.Location
			if _, err := tx.Exec(`INSERT INTO occurrences
				(fingerprint, blob_id, origin_kind, origin_path, start_line, start_column, end_line, end_column, snippet_matching)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				f.RuleFindingFingerprint, occ.Match.BlobID.Hex(), kind, path,
				loc.Source.Start.Line, loc.Source.Start.Column, loc.Source.End.Line, loc.Source.End.Column,
				occ.Match.Snippet.Matching); err != nil {
				return fmt.Errorf("inserting occurrence for %s: %w", f.RuleFindingFingerprint, err)
			}
		}
	}

	return tx.Commit()
}

// sqliteOccurrenceRow mirrors one row of the occurrences table, used
// only by LoadFindingSummaries for read-only inspection tools.
type sqliteOccurrenceRow struct {
	OriginKind string `json:"origin_kind"`
	OriginPath string `json:"origin_path"`
}

// FindingSummary is a read-only projection of a persisted finding, for
// tools that want to inspect a prior scan's results without the full
// Store/Match machinery.
type FindingSummary struct {
	Fingerprint      string   `json:"fingerprint"`
	RuleID           string   `json:"rule_id"`
	RuleName         string   `json:"rule_name"`
	ValidationStatus string   `json:"validation_status,omitempty"`
	Visible          bool     `json:"visible"`
	OriginPaths      []string `json:"origin_paths"`
}

// LoadFindingSummaries reads every persisted finding back out, most
// recently for `--format` tools that report against a prior run
// without rescanning.
func (b *SQLiteBackend) LoadFindingSummaries() ([]FindingSummary, error) {
	rows, err := b.db.Query(`SELECT fingerprint, rule_id, rule_name, validation_status, visible FROM findings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FindingSummary
	for rows.Next() {
		var s FindingSummary
		var status sql.NullString
		var visible int
		if err := rows.Scan(&s.Fingerprint, &s.RuleID, &s.RuleName, &status, &visible); err != nil {
			return nil, err
		}
		s.ValidationStatus = status.String
		s.Visible = visible != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		orows, err := b.db.Query(`SELECT origin_kind, origin_path FROM occurrences WHERE fingerprint = ?`, out[i].Fingerprint)
		if err != nil {
			return nil, err
		}
		for orows.Next() {
			var r sqliteOccurrenceRow
			if err := orows.Scan(&r.OriginKind, &r.OriginPath); err != nil {
				orows.Close()
				return nil, err
			}
			out[i].OriginPaths = append(out[i].OriginPaths, r.OriginPath)
		}
		orows.Close()
	}

	return out, nil
}
