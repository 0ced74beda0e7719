package tagdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"

	"github.com/skelly-dev/srcweb/internal/tags"
)

// LoadStats counts what one Load added.
type LoadStats struct {
	Facts int `json:"facts"`
	Paths int `json:"paths"`
}

// loader holds the statements of one Load transaction.
type loader struct {
	ctx     context.Context
	tx      *sql.Tx
	ids     map[string]int64
	addPath *sql.Stmt
	getPath *sql.Stmt
	addTag  map[tags.Namespace]*sql.Stmt
	addInc  *sql.Stmt
	stats   LoadStats
}

// Load ingests JSONL indexer facts from r in one transaction. Paths are
// stored in the "./dir/file" form and every directory above a file gets an
// id of its own. Nothing is kept when any fact is invalid.
func (d *DB) Load(ctx context.Context, r io.Reader) (LoadStats, error) {
	return d.load(ctx, r, false)
}

// Replace is Load after removing every existing row. The old contents
// survive a failed Replace.
func (d *DB) Replace(ctx context.Context, r io.Reader) (LoadStats, error) {
	return d.load(ctx, r, true)
}

func (d *DB) load(ctx context.Context, r io.Reader, replace bool) (LoadStats, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadStats{}, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if replace {
		if err := clearTx(ctx, tx); err != nil {
			return LoadStats{}, err
		}
	}

	l := &loader{ctx: ctx, tx: tx, ids: make(map[string]int64), addTag: make(map[tags.Namespace]*sql.Stmt)}
	if err := l.prepare(); err != nil {
		return LoadStats{}, err
	}
	defer l.close()

	if err := tags.ReadFacts(r, l.add); err != nil {
		return LoadStats{}, fmt.Errorf("load facts: %w", err)
	}
	if err := stampTx(ctx, tx); err != nil {
		return LoadStats{}, err
	}
	if err := tx.Commit(); err != nil {
		return LoadStats{}, fmt.Errorf("commit load: %w", err)
	}
	d.invalidatePaths()
	return l.stats, nil
}

func (l *loader) prepare() error {
	var err error
	if l.addPath, err = l.tx.PrepareContext(l.ctx,
		`INSERT INTO paths(path, base, dir) VALUES(?, ?, ?) ON CONFLICT(path) DO NOTHING`); err != nil {
		return fmt.Errorf("prepare load: %w", err)
	}
	if l.getPath, err = l.tx.PrepareContext(l.ctx, `SELECT fid FROM paths WHERE path = ?`); err != nil {
		return fmt.Errorf("prepare load: %w", err)
	}
	for _, ns := range namespaces {
		stmt, err := l.tx.PrepareContext(l.ctx, `INSERT INTO `+table(ns)+`(name, fid, line) VALUES(?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare load: %w", err)
		}
		l.addTag[ns] = stmt
	}
	if l.addInc, err = l.tx.PrepareContext(l.ctx, `INSERT INTO includes(target, fid, line) VALUES(?, ?, ?)`); err != nil {
		return fmt.Errorf("prepare load: %w", err)
	}
	return nil
}

func (l *loader) close() {
	for _, stmt := range []*sql.Stmt{l.addPath, l.getPath, l.addInc} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	for _, stmt := range l.addTag {
		_ = stmt.Close()
	}
}

func (l *loader) add(f tags.Fact) error {
	fid, err := l.pathID(tags.NormalizePath(f.Path), false)
	if err != nil {
		return err
	}
	if f.Kind == tags.FactInclude {
		if _, err := l.addInc.ExecContext(l.ctx, path.Base(f.Target), fid, f.Line); err != nil {
			return fmt.Errorf("add include %s: %w", f.Target, err)
		}
		l.stats.Facts++
		return nil
	}
	ns, _ := f.Namespace()
	if _, err := l.addTag[ns].ExecContext(l.ctx, f.Name, fid, f.Line); err != nil {
		return fmt.Errorf("add %s %s: %w", ns, f.Name, err)
	}
	l.stats.Facts++
	return nil
}

// pathID returns the id of p, registering it and its parent directories.
func (l *loader) pathID(p string, dir bool) (int64, error) {
	if id, ok := l.ids[p]; ok {
		return id, nil
	}
	if parent := path.Dir(p); parent != "." && parent != "/" {
		if _, err := l.pathID(tags.NormalizePath(parent), true); err != nil {
			return 0, err
		}
	}
	isDir := 0
	if dir {
		isDir = 1
	}
	res, err := l.addPath.ExecContext(l.ctx, p, path.Base(p), isDir)
	if err != nil {
		return 0, fmt.Errorf("add path %s: %w", p, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		l.stats.Paths++
	}
	var id int64
	if err := l.getPath.QueryRowContext(l.ctx, p).Scan(&id); err != nil {
		return 0, fmt.Errorf("add path %s: %w", p, err)
	}
	l.ids[p] = id
	return id, nil
}
