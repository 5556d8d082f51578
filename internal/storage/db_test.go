package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	if config.Path != "test.db" {
		t.Errorf("expected path 'test.db', got '%s'", config.Path)
	}

	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}

	if config.JournalMode != "WAL" {
		t.Errorf("expected JournalMode 'WAL', got '%s'", config.JournalMode)
	}

	if !config.AutoMigrate {
		t.Error("expected AutoMigrate to be enabled")
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("failed to ping database: %v", err)
	}

	if db.Conn() == nil {
		t.Error("expected non-nil connection")
	}

	// In-memory databases are migrated on the open connection.
	var name string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='sets'`).Scan(&name)
	if err != nil {
		t.Fatalf("sets table missing: %v", err)
	}
}

func TestOpenWithNilConfig(t *testing.T) {
	_, err := Open(nil)
	if err == nil {
		t.Error("expected error for nil config")
	}
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	count, err := db.Sets().Count(t.Context())
	if err != nil {
		t.Fatalf("failed to count sets: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty catalog, got %d sets", count)
	}
}
