// Package tagdb is the SQLite tag database the renderer resolves names
// against. It is filled from indexer facts with Load and implements
// tags.Store and tags.Paths.
package tagdb

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"strconv"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/tags"
)

const schema = `
CREATE TABLE IF NOT EXISTS paths (
	fid INTEGER PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	base TEXT NOT NULL,
	dir INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS paths_base ON paths(base);

CREATE TABLE IF NOT EXISTS "definitions" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	fid INTEGER NOT NULL REFERENCES paths(fid),
	line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS definitions_name ON "definitions"(name);
CREATE INDEX IF NOT EXISTS definitions_fid ON "definitions"(fid);

CREATE TABLE IF NOT EXISTS "references" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	fid INTEGER NOT NULL REFERENCES paths(fid),
	line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS references_name ON "references"(name);
CREATE INDEX IF NOT EXISTS references_fid ON "references"(fid);

CREATE TABLE IF NOT EXISTS "symbols" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	fid INTEGER NOT NULL REFERENCES paths(fid),
	line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS symbols_name ON "symbols"(name);
CREATE INDEX IF NOT EXISTS symbols_fid ON "symbols"(fid);

CREATE TABLE IF NOT EXISTS includes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target TEXT NOT NULL,
	fid INTEGER NOT NULL REFERENCES paths(fid),
	line INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS includes_target ON includes(target);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

var namespaces = []tags.Namespace{tags.Definitions, tags.References, tags.Symbols}

// DB is an open tag database. It is safe for concurrent readers.
type DB struct {
	db   *sql.DB
	path string

	mu       sync.RWMutex
	pathToID map[string]string
	idToPath map[string]string
}

// Stats counts the rows of each table.
type Stats struct {
	Paths       int `json:"paths"`
	Definitions int `json:"definitions"`
	References  int `json:"references"`
	Symbols     int `json:"symbols"`
	Includes    int `json:"includes"`
}

// Open opens (creating if needed) the database file at p.
func Open(p string) (*DB, error) {
	db, err := sql.Open("sqlite3", "file:"+p+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open tag database %s: %w", p, err)
	}
	return setup(db, p)
}

// OpenMemory opens a private in-memory database.
func OpenMemory() (*DB, error) {
	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory tag database: %w", err)
	}
	// Every connection would see its own empty database.
	db.SetMaxOpenConns(1)
	return setup(db, ":memory:")
}

func setup(db *sql.DB, p string) (*DB, error) {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping tag database %s: %w", p, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", p, err)
	}
	return &DB{db: db, path: p}, nil
}

// Path returns the location the database was opened from.
func (d *DB) Path() string { return d.path }

func (d *DB) Close() error {
	return d.db.Close()
}

func table(ns tags.Namespace) string {
	return `"` + ns.Table() + `"`
}

// Lookup resolves name in one namespace. A name with several rows resolves
// to an aggregate page numbered by its smallest row id.
func (d *DB) Lookup(ctx context.Context, ns tags.Namespace, name string) (tags.Resolution, error) {
	q := `SELECT COUNT(*), MIN(t.id) FROM ` + table(ns) + ` t WHERE t.name = ?`
	var (
		count int
		minID sql.NullInt64
	)
	if err := d.db.QueryRowContext(ctx, q, name).Scan(&count, &minID); err != nil {
		return tags.Resolution{}, fmt.Errorf("lookup %s %q: %w", ns, name, err)
	}
	switch {
	case count == 0:
		return tags.Resolution{Shape: tags.NotFound}, nil
	case count > 1:
		return tags.Resolution{Shape: tags.Aggregate, FileID: strconv.FormatInt(minID.Int64, 10), Count: count}, nil
	}

	q = `SELECT t.line, t.fid, p.path FROM ` + table(ns) + ` t JOIN paths p ON p.fid = t.fid WHERE t.id = ?`
	var (
		line int
		fid  int64
		p    string
	)
	if err := d.db.QueryRowContext(ctx, q, minID.Int64).Scan(&line, &fid, &p); err != nil {
		return tags.Resolution{}, fmt.Errorf("lookup %s %q: %w", ns, name, err)
	}
	return tags.Resolution{Shape: tags.Single, Line: line, FileID: strconv.FormatInt(fid, 10), Path: p}, nil
}

// Anchors returns every tagged occurrence in the file at p, or none when
// the file is unknown.
func (d *DB) Anchors(ctx context.Context, p string) ([]anchor.Anchor, error) {
	fid, ok := d.PathToID(p)
	if !ok {
		return []anchor.Anchor{}, nil
	}
	q := `SELECT line, 'D', name FROM "definitions" WHERE fid = ?1
		UNION ALL SELECT line, 'R', name FROM "references" WHERE fid = ?1
		UNION ALL SELECT line, 'Y', name FROM "symbols" WHERE fid = ?1
		ORDER BY 1, 2, 3`
	rows, err := d.db.QueryContext(ctx, q, fid)
	if err != nil {
		return nil, fmt.Errorf("anchors of %s: %w", p, err)
	}
	defer rows.Close()

	out := make([]anchor.Anchor, 0)
	for rows.Next() {
		var (
			a    anchor.Anchor
			site string
		)
		if err := rows.Scan(&a.Line, &site, &a.Tag); err != nil {
			return nil, fmt.Errorf("anchors of %s: %w", p, err)
		}
		a.Site = anchor.Site(site[0])
		out = append(out, a)
	}
	return out, rows.Err()
}

// Included describes the files that include basename. The id numbers the
// included-from page and is the smallest include row of basename.
func (d *DB) Included(ctx context.Context, basename string) (tags.Inclusion, bool, error) {
	var (
		count int
		minID sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(id) FROM includes WHERE target = ?`, basename).Scan(&count, &minID)
	if err != nil {
		return tags.Inclusion{}, false, fmt.Errorf("included %q: %w", basename, err)
	}
	if count == 0 {
		return tags.Inclusion{}, false, nil
	}
	inc := tags.Inclusion{ID: int(minID.Int64), Count: count}
	if count == 1 {
		err = d.db.QueryRowContext(ctx,
			`SELECT i.line, p.path FROM includes i JOIN paths p ON p.fid = i.fid WHERE i.id = ?`, minID.Int64,
		).Scan(&inc.Line, &inc.Path)
		if err != nil {
			return tags.Inclusion{}, false, fmt.Errorf("included %q: %w", basename, err)
		}
	}
	return inc, true, nil
}

// Candidates describes the files an include of basename can refer to.
func (d *DB) Candidates(ctx context.Context, basename string) (tags.Inclusion, bool, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT fid, path FROM paths WHERE base = ? AND dir = 0 ORDER BY path`, basename)
	if err != nil {
		return tags.Inclusion{}, false, fmt.Errorf("candidates %q: %w", basename, err)
	}
	defer rows.Close()

	var (
		inc   tags.Inclusion
		first string
	)
	for rows.Next() {
		var (
			fid int
			p   string
		)
		if err := rows.Scan(&fid, &p); err != nil {
			return tags.Inclusion{}, false, fmt.Errorf("candidates %q: %w", basename, err)
		}
		if path.Ext(p) == "" {
			continue
		}
		if inc.Count == 0 || fid < inc.ID {
			inc.ID = fid
		}
		if inc.Count == 0 {
			first = p
		}
		inc.Count++
	}
	if err := rows.Err(); err != nil {
		return tags.Inclusion{}, false, fmt.Errorf("candidates %q: %w", basename, err)
	}
	if inc.Count == 0 {
		return tags.Inclusion{}, false, nil
	}
	if inc.Count == 1 {
		inc.Path = first
	}
	return inc, true, nil
}

func (d *DB) PathToID(p string) (string, bool) {
	if err := d.loadPaths(); err != nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.pathToID[tags.NormalizePath(p)]
	return id, ok
}

func (d *DB) IDToPath(id string) (string, bool) {
	if err := d.loadPaths(); err != nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.idToPath[id]
	return p, ok
}

// Paths returns every file path (not directory) in sorted order.
func (d *DB) Paths(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT path FROM paths WHERE dir = 0 ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("list paths: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// loadPaths reads the paths table into memory once per load.
func (d *DB) loadPaths() error {
	d.mu.RLock()
	loaded := d.pathToID != nil
	d.mu.RUnlock()
	if loaded {
		return nil
	}

	rows, err := d.db.Query(`SELECT fid, path FROM paths`)
	if err != nil {
		return fmt.Errorf("load paths: %w", err)
	}
	defer rows.Close()
	toID := make(map[string]string)
	toPath := make(map[string]string)
	for rows.Next() {
		var (
			fid int64
			p   string
		)
		if err := rows.Scan(&fid, &p); err != nil {
			return fmt.Errorf("load paths: %w", err)
		}
		id := strconv.FormatInt(fid, 10)
		toID[p] = id
		toPath[id] = p
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load paths: %w", err)
	}

	d.mu.Lock()
	d.pathToID, d.idToPath = toID, toPath
	d.mu.Unlock()
	return nil
}

func (d *DB) invalidatePaths() {
	d.mu.Lock()
	d.pathToID, d.idToPath = nil, nil
	d.mu.Unlock()
}

// Stats counts the rows in every table.
func (d *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	counts := []struct {
		table string
		dst   *int
	}{
		{"paths WHERE dir = 0", &s.Paths},
		{table(tags.Definitions), &s.Definitions},
		{table(tags.References), &s.References},
		{table(tags.Symbols), &s.Symbols},
		{"includes", &s.Includes},
	}
	for _, c := range counts {
		if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}
	}
	return s, nil
}

// Clear removes every row.
func (d *DB) Clear(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	if err := stampTx(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	d.invalidatePaths()
	return nil
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	for _, ns := range namespaces {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table(ns)); err != nil {
			return fmt.Errorf("clear %s: %w", ns, err)
		}
	}
	for _, t := range []string{"includes", "paths"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}
