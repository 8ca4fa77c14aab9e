// Package catalog persists a small SQLite-backed record of prior
// renders, keyed by narration-script hash, so --reuse-audio can locate a
// previously synthesized narration track without re-running TTS.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one prior render's narration provenance.
type Entry struct {
	ScriptHash string
	Provider   string
	Voice      string
	AudioDir   string
	CreatedAt  time.Time
}

// Catalog wraps a SQLite database of Entry rows.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if absent) the catalog database at path and
// ensures its schema exists.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: creating schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS renders (
	script_hash TEXT PRIMARY KEY,
	provider    TEXT NOT NULL,
	voice       TEXT NOT NULL,
	audio_dir   TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
`

func (c *Catalog) Close() error { return c.db.Close() }

// Put records or replaces the render entry for scriptHash.
func (c *Catalog) Put(e Entry) error {
	_, err := c.db.Exec(
		`INSERT INTO renders (script_hash, provider, voice, audio_dir, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(script_hash) DO UPDATE SET
			provider=excluded.provider, voice=excluded.voice,
			audio_dir=excluded.audio_dir, created_at=excluded.created_at`,
		e.ScriptHash, e.Provider, e.Voice, e.AudioDir, e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("catalog: recording %s: %w", e.ScriptHash, err)
	}
	return nil
}

// Lookup returns the audio directory previously used to synthesize the
// script with the given hash, if any.
func (c *Catalog) Lookup(scriptHash string) (Entry, bool, error) {
	row := c.db.QueryRow(
		`SELECT script_hash, provider, voice, audio_dir, created_at FROM renders WHERE script_hash = ?`,
		scriptHash,
	)
	var e Entry
	var createdAt string
	if err := row.Scan(&e.ScriptHash, &e.Provider, &e.Voice, &e.AudioDir, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("catalog: looking up %s: %w", scriptHash, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, true, nil
}
