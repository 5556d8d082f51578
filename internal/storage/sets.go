package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Set is a catalog entry for one card set.
type Set struct {
	Code        string
	Name        string
	Type        string
	ReleaseDate string
	SyncedAt    time.Time
}

// SetRepository stores the set catalog.
type SetRepository struct {
	db *DB
}

// Replace swaps the whole catalog for sets in one transaction.
func (r *SetRepository) Replace(ctx context.Context, sets []Set) error {
	now := time.Now().UTC()
	return r.db.catalogTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sets`); err != nil {
			return fmt.Errorf("failed to clear sets: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sets (code, name, set_type, release_date, synced_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				name = excluded.name,
				set_type = excluded.set_type,
				release_date = excluded.release_date,
				synced_at = excluded.synced_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare set insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range sets {
			if s.Code == "" {
				return fmt.Errorf("set %q has no code", s.Name)
			}
			if _, err := stmt.ExecContext(ctx, strings.ToUpper(s.Code), s.Name, s.Type, s.ReleaseDate, now); err != nil {
				return fmt.Errorf("failed to insert set %s: %w", s.Code, err)
			}
		}
		return nil
	})
}

// List returns every set, newest release first.
func (r *SetRepository) List(ctx context.Context) ([]Set, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT code, name, set_type, release_date, synced_at
		FROM sets
		ORDER BY release_date DESC, code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var s Set
		if err := rows.Scan(&s.Code, &s.Name, &s.Type, &s.ReleaseDate, &s.SyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sets: %w", err)
	}
	return sets, nil
}

// Get returns the set with the given code, or nil if it is not cataloged.
func (r *SetRepository) Get(ctx context.Context, code string) (*Set, error) {
	var s Set
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT code, name, set_type, release_date, synced_at
		FROM sets
		WHERE code = ?
	`, strings.ToUpper(code)).Scan(&s.Code, &s.Name, &s.Type, &s.ReleaseDate, &s.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get set %s: %w", code, err)
	}
	return &s, nil
}

// Count returns the number of cataloged sets.
func (r *SetRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sets: %w", err)
	}
	return n, nil
}
