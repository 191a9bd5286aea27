package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/checksum"
)

// Get returns a single item.
func (db *SQLite) Get(ctx context.Context, authKey, dataKey string) (Item, error) {
	it := Item{AuthKey: authKey, DataKey: dataKey}
	var value []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT value, checksum, updated_at FROM items WHERE auth_key = ? AND data_key = ?`,
		authKey, dataKey,
	).Scan(&value, &it.Checksum, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, apperr.ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("kvstore: get: %w", err)
	}
	it.Value = value
	return it, nil
}

// Set upserts an item, replacing the whole value.
func (db *SQLite) Set(ctx context.Context, authKey, dataKey string, value []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO items (auth_key, data_key, value, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(auth_key, data_key) DO UPDATE SET
			value      = excluded.value,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, authKey, dataKey, value, checksum.Sum(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("kvstore: set: %w", err)
	}
	return nil
}

// List returns every item for authKey.
func (db *SQLite) List(ctx context.Context, authKey string) ([]Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT data_key, value, checksum, updated_at FROM items WHERE auth_key = ? ORDER BY data_key`,
		authKey)
	if err != nil {
		return nil, fmt.Errorf("kvstore: list: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it := Item{AuthKey: authKey}
		var value []byte
		if err := rows.Scan(&it.DataKey, &value, &it.Checksum, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.Value = value
		out = append(out, it)
	}
	return out, rows.Err()
}

// Delete removes one item.
func (db *SQLite) Delete(ctx context.Context, authKey, dataKey string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM items WHERE auth_key = ? AND data_key = ?`, authKey, dataKey)
	if err != nil {
		return fmt.Errorf("kvstore: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteAll removes every item for authKey inside a transaction.
func (db *SQLite) DeleteAll(ctx context.Context, authKey string) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("kvstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE auth_key = ?`, authKey)
	if err != nil {
		return 0, fmt.Errorf("kvstore: delete all: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}
