package tagdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generation identifies the contents of the database. Every Load, Replace
// and Clear starts a new one.
type Generation struct {
	ID       string    `json:"id"`
	LoadedAt time.Time `json:"loaded_at"`
}

func stampTx(ctx context.Context, tx *sql.Tx) error {
	const q = `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, q, "generation", uuid.NewString()); err != nil {
		return fmt.Errorf("stamp generation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, "loaded_at", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("stamp generation: %w", err)
	}
	return nil
}

// Generation returns the current generation. A database that was never
// loaded has the zero Generation.
func (d *DB) Generation(ctx context.Context) (Generation, error) {
	var g Generation
	err := d.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'generation'`).Scan(&g.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, nil
	}
	if err != nil {
		return Generation{}, fmt.Errorf("read generation: %w", err)
	}

	var stamp string
	err = d.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'loaded_at'`).Scan(&stamp)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Generation{}, fmt.Errorf("read generation: %w", err)
	}
	if stamp != "" {
		if g.LoadedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			return Generation{}, fmt.Errorf("parse load time: %w", err)
		}
	}
	return g, nil
}
