package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func insertSet(ctx context.Context, tx *sql.Tx, code string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sets (code, name) VALUES (?, ?)`, code, code+" set")
	return err
}

func countSets(t *testing.T, db *DB) int {
	t.Helper()

	n, err := db.Sets().Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	return n
}

func TestCatalogTx_Commits(t *testing.T) {
	db := setupSetsDB(t)
	ctx := context.Background()

	err := db.catalogTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return insertSet(ctx, tx, "WAR")
	})
	if err != nil {
		t.Fatalf("catalogTx() error: %v", err)
	}
	if got := countSets(t, db); got != 1 {
		t.Errorf("sets after commit = %d, want 1", got)
	}
}

func TestCatalogTx_RollsBackOnError(t *testing.T) {
	db := setupSetsDB(t)
	ctx := context.Background()
	failure := errors.New("sync interrupted")

	err := db.catalogTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertSet(ctx, tx, "WAR"); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("catalogTx() error = %v, want %v", err, failure)
	}
	if got := countSets(t, db); got != 0 {
		t.Errorf("sets after rollback = %d, want 0", got)
	}
}

func TestCatalogTx_RollsBackOnPanic(t *testing.T) {
	db := setupSetsDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = db.catalogTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			if err := insertSet(ctx, tx, "WAR"); err != nil {
				return err
			}
			panic("bad set data")
		})
	}()

	if got := countSets(t, db); got != 0 {
		t.Errorf("sets after panic = %d, want 0", got)
	}
}
