package schema

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.nsdf"))
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitAndRead(t *testing.T) {
	db := openDB(t)

	hdr, err := Init(db)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if hdr.Root <= 0 {
		t.Errorf("root id = %d, want > 0", hdr.Root)
	}

	got, err := Read(db)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if *got != *hdr {
		t.Errorf("Read() = %+v, want %+v", got, hdr)
	}

	var path string
	var kind Kind
	if err := db.QueryRow(`SELECT path, kind FROM objects WHERE id = ?`, got.Root).Scan(&path, &kind); err != nil {
		t.Fatalf("root lookup failed: %v", err)
	}
	if path != RootPath || kind != KindGroup {
		t.Errorf("root = (%q, %v), want (%q, group)", path, kind, RootPath)
	}
}

func TestReadNotContainer(t *testing.T) {
	db := openDB(t)

	// An empty SQLite database has no header table.
	if _, err := Read(db); !errors.Is(err, ErrNotContainer) {
		t.Errorf("expected ErrNotContainer, got %v", err)
	}

	// A header table with a foreign signature.
	if _, err := db.Exec(`CREATE TABLE header (signature TEXT, version INTEGER, root INTEGER)`); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(db); !errors.Is(err, ErrNotContainer) {
		t.Errorf("expected ErrNotContainer for empty header, got %v", err)
	}
	if _, err := db.Exec(`INSERT INTO header VALUES ('HDF5', 1, 1)`); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(db); !errors.Is(err, ErrNotContainer) {
		t.Errorf("expected ErrNotContainer for bad signature, got %v", err)
	}
}

func TestReadGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.nsdf")
	if err := os.WriteFile(path, []byte("this is definitely not a database file, just text padding it out"), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	defer db.Close()

	if _, err := Read(db); !errors.Is(err, ErrNotContainer) {
		t.Errorf("expected ErrNotContainer, got %v", err)
	}
}

func TestReadUnsupportedVersion(t *testing.T) {
	db := openDB(t)
	hdr, err := Init(db)
	if err != nil {
		t.Fatal(err)
	}

	hdr.Version = Version + 1
	if err := hdr.Write(db); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(db); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindGroup, "group"},
		{KindDataset, "dataset"},
		{KindRagged, "ragged"},
		{Kind(9), "kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
