package storage

import (
	"context"
	"testing"
)

func setupSetsDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSetRepository_ReplaceAndList(t *testing.T) {
	db := setupSetsDB(t)
	repo := db.Sets()
	ctx := context.Background()

	err := repo.Replace(ctx, []Set{
		{Code: "m19", Name: "Core Set 2019", Type: "core", ReleaseDate: "2018-07-13"},
		{Code: "WAR", Name: "War of the Spark", Type: "expansion", ReleaseDate: "2019-05-03"},
		{Code: "M10", Name: "Magic 2010", Type: "core", ReleaseDate: "2009-07-17"},
	})
	if err != nil {
		t.Fatalf("failed to replace sets: %v", err)
	}

	sets, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list sets: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("expected 3 sets, got %d", len(sets))
	}

	want := []string{"WAR", "M19", "M10"}
	for i, code := range want {
		if sets[i].Code != code {
			t.Errorf("set %d: expected %s, got %s", i, code, sets[i].Code)
		}
	}
	if sets[0].SyncedAt.IsZero() {
		t.Error("expected synced_at to be set")
	}
}

func TestSetRepository_ReplaceDropsStaleSets(t *testing.T) {
	db := setupSetsDB(t)
	repo := db.Sets()
	ctx := context.Background()

	if err := repo.Replace(ctx, []Set{{Code: "OLD", Name: "Old Set"}}); err != nil {
		t.Fatalf("failed to replace sets: %v", err)
	}
	if err := repo.Replace(ctx, []Set{{Code: "NEW", Name: "New Set"}}); err != nil {
		t.Fatalf("failed to replace sets: %v", err)
	}

	old, err := repo.Get(ctx, "OLD")
	if err != nil {
		t.Fatalf("failed to get set: %v", err)
	}
	if old != nil {
		t.Errorf("expected OLD to be gone, got %+v", old)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count sets: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 set, got %d", count)
	}
}

func TestSetRepository_ReplaceIsAtomic(t *testing.T) {
	db := setupSetsDB(t)
	repo := db.Sets()
	ctx := context.Background()

	if err := repo.Replace(ctx, []Set{{Code: "M19", Name: "Core Set 2019"}}); err != nil {
		t.Fatalf("failed to replace sets: %v", err)
	}

	err := repo.Replace(ctx, []Set{{Code: "WAR", Name: "War of the Spark"}, {Name: "No Code"}})
	if err == nil {
		t.Fatal("expected error for set without code")
	}

	set, err := repo.Get(ctx, "M19")
	if err != nil {
		t.Fatalf("failed to get set: %v", err)
	}
	if set == nil {
		t.Fatal("expected previous catalog to survive a failed replace")
	}
}

func TestSetRepository_GetIsCaseInsensitive(t *testing.T) {
	db := setupSetsDB(t)
	repo := db.Sets()
	ctx := context.Background()

	if err := repo.Replace(ctx, []Set{{Code: "WAR", Name: "War of the Spark"}}); err != nil {
		t.Fatalf("failed to replace sets: %v", err)
	}

	set, err := repo.Get(ctx, "war")
	if err != nil {
		t.Fatalf("failed to get set: %v", err)
	}
	if set == nil || set.Name != "War of the Spark" {
		t.Errorf("expected War of the Spark, got %+v", set)
	}
}
