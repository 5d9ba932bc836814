package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Signature identifies a container file. It is stored in the header row.
const Signature = "\x89NSDF\r\n\x1a\n"

// Version is the schema version written by this package.
const Version = 1

// RootPath is the path of the root group.
const RootPath = "/"

// Errors
var (
	ErrNotContainer       = errors.New("not a container file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
	ErrInvalidHeader      = errors.New("invalid header structure")
)

// Kind distinguishes the object types stored in the objects table.
type Kind uint8

// Object kinds. The values are persisted and must not change.
const (
	KindGroup Kind = iota
	KindDataset
	KindRagged
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	case KindRagged:
		return "ragged"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Unlimited is the stored max-dimension value of an unbounded axis.
const Unlimited int64 = -1

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Header contains the file-level metadata of a container file.
type Header struct {
	// Signature is the format magic; always equal to [Signature] once read.
	Signature string

	// Version is the schema version the file was written with.
	Version int

	// Root is the object id of the root group.
	Root int64
}

var tables = []string{
	`CREATE TABLE header (
		signature TEXT NOT NULL,
		version   INTEGER NOT NULL,
		root      INTEGER NOT NULL
	)`,
	`CREATE TABLE objects (
		id      INTEGER PRIMARY KEY,
		parent  INTEGER,
		name    TEXT NOT NULL,
		path    TEXT NOT NULL UNIQUE,
		kind    INTEGER NOT NULL,
		class   INTEGER NOT NULL DEFAULT 0,
		rank    INTEGER NOT NULL DEFAULT 0,
		dim0    INTEGER NOT NULL DEFAULT 0,
		dim1    INTEGER NOT NULL DEFAULT 0,
		max0    INTEGER NOT NULL DEFAULT 0,
		max1    INTEGER NOT NULL DEFAULT 0,
		chunk   INTEGER NOT NULL DEFAULT 0,
		filters INTEGER NOT NULL DEFAULT 0,
		fill    BLOB
	)`,
	`CREATE INDEX objects_parent ON objects (parent, name)`,
	`CREATE TABLE attrs (
		object INTEGER NOT NULL,
		name   TEXT NOT NULL,
		class  INTEGER NOT NULL,
		scalar INTEGER NOT NULL,
		n      INTEGER NOT NULL,
		data   BLOB,
		PRIMARY KEY (object, name)
	)`,
	`CREATE TABLE chunks (
		object INTEGER NOT NULL,
		row    INTEGER NOT NULL,
		idx    INTEGER NOT NULL,
		data   BLOB NOT NULL,
		PRIMARY KEY (object, row, idx)
	)`,
	`CREATE TABLE segments (
		object INTEGER NOT NULL,
		row    INTEGER NOT NULL,
		seq    INTEGER NOT NULL,
		n      INTEGER NOT NULL,
		data   BLOB NOT NULL,
		PRIMARY KEY (object, row, seq)
	)`,
	`CREATE TABLE dimscales (
		object INTEGER NOT NULL,
		axis   INTEGER NOT NULL,
		scale  INTEGER NOT NULL,
		PRIMARY KEY (object, axis, scale)
	)`,
	`CREATE INDEX dimscales_scale ON dimscales (scale)`,
	`CREATE TABLE dimlabels (
		object INTEGER NOT NULL,
		axis   INTEGER NOT NULL,
		label  TEXT NOT NULL,
		PRIMARY KEY (object, axis)
	)`,
}

// Init creates all tables and the root group in an empty database and
// returns the new header.
func Init(q Querier) (*Header, error) {
	for _, stmt := range tables {
		if _, err := q.Exec(stmt); err != nil {
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}

	// Root group
	res, err := q.Exec(`INSERT INTO objects (parent, name, path, kind) VALUES (NULL, '', ?, ?)`,
		RootPath, int(KindGroup))
	if err != nil {
		return nil, fmt.Errorf("creating root group: %w", err)
	}
	root, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating root group: %w", err)
	}

	hdr := &Header{Signature: Signature, Version: Version, Root: root}
	if err := hdr.Write(q); err != nil {
		return nil, err
	}
	return hdr, nil
}

// Write stores the header row, replacing any existing one.
func (h *Header) Write(q Querier) error {
	if _, err := q.Exec(`DELETE FROM header`); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := q.Exec(`INSERT INTO header (signature, version, root) VALUES (?, ?, ?)`,
		h.Signature, h.Version, h.Root); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Read locates and validates the header of a container file.
func Read(q Querier) (*Header, error) {
	var hdr Header
	err := q.QueryRow(`SELECT signature, version, root FROM header LIMIT 1`).
		Scan(&hdr.Signature, &hdr.Version, &hdr.Root)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotContainer
	case err != nil:
		// A database without the header table, or a file that is not a
		// database at all.
		if isMissingTable(err) || isNotDatabase(err) {
			return nil, ErrNotContainer
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if hdr.Signature != Signature {
		return nil, ErrNotContainer
	}
	if hdr.Version < 1 || hdr.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	if hdr.Root <= 0 {
		return nil, ErrInvalidHeader
	}

	return &hdr, nil
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}

func isNotDatabase(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "file is encrypted")
}
