package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path     string
	Basename string
	Checksum string
	// Frontmatter is nil for notes without a readable YAML block.
	Frontmatter map[string]any
	UpdatedAt   time.Time
}

// Duplicate is a basename shared by more than one note. Paths is sorted.
type Duplicate struct {
	Basename string   `json:"basename"`
	Paths    []string `json:"paths"`
}

// UpsertNote inserts or replaces a note.
func (db *DB) UpsertNote(n NoteRow) error {
	var fm sql.NullString
	if n.Frontmatter != nil {
		data, err := json.Marshal(n.Frontmatter)
		if err != nil {
			return fmt.Errorf("index: encode frontmatter %s: %w", n.Path, err)
		}
		fm = sql.NullString{String: string(data), Valid: true}
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO notes (path, basename, checksum, frontmatter, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename    = excluded.basename,
			checksum    = excluded.checksum,
			frontmatter = excluded.frontmatter,
			updated_at  = excluded.updated_at
	`, n.Path, n.Basename, n.Checksum, fm, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	return nil
}

// DeleteNote removes a note.
func (db *DB) DeleteNote(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Frontmatter returns the indexed frontmatter of the note at path. Unknown
// notes and notes without frontmatter both yield nil.
func (db *DB) Frontmatter(ctx context.Context, path string) (map[string]any, error) {
	var raw sql.NullString
	err := db.conn.QueryRowContext(ctx, `SELECT frontmatter FROM notes WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: frontmatter: %w", err)
	}
	var fm map[string]any
	if err := json.Unmarshal([]byte(raw.String), &fm); err != nil {
		return nil, fmt.Errorf("index: decode frontmatter %s: %w", path, err)
	}
	return fm, nil
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// DuplicateBasenames lists basenames held by more than one note. Links to
// such a name resolve to whichever note the tree walk meets first.
func (db *DB) DuplicateBasenames() ([]Duplicate, error) {
	rows, err := db.conn.Query(`
		SELECT basename, path FROM notes
		WHERE basename IN (
			SELECT basename FROM notes GROUP BY basename HAVING count(*) > 1
		)
		ORDER BY basename, path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: duplicate basenames: %w", err)
	}
	defer rows.Close()

	var out []Duplicate
	for rows.Next() {
		var name, p string
		if err := rows.Scan(&name, &p); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].Basename != name {
			out = append(out, Duplicate{Basename: name})
		}
		last := &out[len(out)-1]
		last.Paths = append(last.Paths, p)
	}
	return out, rows.Err()
}
