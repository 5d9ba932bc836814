package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nsdf/nsdf/internal/schema"
)

// Create creates a new container file at the given path, replacing any
// existing file.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Truncate like os.Create: an existing database would otherwise be
	// reopened with its old tables.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("removing existing file: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	// Write the tables, root group and header in one transaction
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	hdr, err := schema.Init(tx)
	if err != nil {
		tx.Rollback()
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing schema: %w", err)
	}

	f := &File{
		path:     path,
		db:       db,
		header:   hdr,
		writable: true,
		opts:     options,
	}
	f.root = &Group{node{file: f, id: hdr.Root, path: "/"}}

	return f, nil
}
