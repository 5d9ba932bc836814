package container

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/nsdf/nsdf/internal/dtype"
	"github.com/nsdf/nsdf/internal/filter"
	"github.com/nsdf/nsdf/internal/schema"

	_ "modernc.org/sqlite"
)

// File represents an open container file.
type File struct {
	path     string
	db       *sql.DB
	tx       *sql.Tx
	header   *schema.Header
	root     *Group
	closed   bool
	writable bool
	opts     *fileOptions
}

// Open opens a container file for reading.
func Open(path string) (*File, error) {
	return open(path, false)
}

// OpenReadWrite opens an existing container file for reading and writing.
func OpenReadWrite(path string, opts ...FileOption) (*File, error) {
	f, err := open(path, true)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(f.opts)
	}
	return f, nil
}

func open(path string, writable bool) (*File, error) {
	// sql.Open would silently create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	dsn := path
	if !writable {
		dsn += "?_pragma=query_only(1)"
	}
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}

	hdr, err := schema.Read(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	f := &File{
		path:     path,
		db:       db,
		header:   hdr,
		writable: writable,
		opts:     defaultFileOptions(),
	}
	f.root = &Group{node{file: f, id: hdr.Root, path: "/"}}

	return f, nil
}

// openDB opens the SQLite database behind a file. The pool is pinned to one
// connection: the container is single-writer and an open transaction must
// see every statement.
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Close closes the file. Closing from inside an Atomic callback discards
// the pending transaction.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.tx != nil {
		f.tx.Rollback()
		f.tx = nil
	}
	return f.db.Close()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the schema version of the file.
func (f *File) Version() int {
	return f.header.Version
}

// IsWritable returns true if the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// OpenGroup opens a group by path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// OpenObject opens a group or dataset by path.
func (f *File) OpenObject(path string) (Object, error) {
	if f.closed {
		return nil, ErrClosed
	}
	row, err := f.lookupPath(CleanPath(path))
	if err != nil {
		return nil, err
	}
	return f.object(row)
}

// Deref resolves a reference to the group or dataset it points at.
func (f *File) Deref(ref Ref) (Object, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if ref.IsNull() {
		return nil, fmt.Errorf("%w: null reference", ErrNotFound)
	}
	row, err := f.lookupID(int64(ref))
	if err != nil {
		return nil, fmt.Errorf("dereferencing %d: %w", ref, err)
	}
	return f.object(row)
}

// GetAttr returns an attribute by path.
// Path format: /group/object@attribute_name
//
// Examples:
//   - "/@dialect" - attribute on the root group
//   - "/data/uniform/cells/Vm@unit" - attribute on a dataset
func (f *File) GetAttr(path string) (*Attribute, error) {
	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}

	obj, err := f.OpenObject(objectPath)
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", objectPath, err)
	}
	return obj.Attr(attrName)
}

// ReadAttr reads an attribute value by path.
// This is a convenience method that combines GetAttr and Attribute.Value().
func (f *File) ReadAttr(path string) (any, error) {
	attr, err := f.GetAttr(path)
	if err != nil {
		return nil, err
	}
	return attr.Value()
}

// Atomic runs fn inside a single transaction. If fn returns an error (or
// panics) every change made through the file during fn is discarded. Calls
// nest: an inner Atomic joins the outer transaction.
//
// Handles obtained inside fn may cache state (such as dataset shapes) that
// is discarded on rollback, so they should not be reused after a failure.
func (f *File) Atomic(fn func() error) error {
	if f.closed {
		return ErrClosed
	}
	if f.tx != nil {
		return fn()
	}

	tx, err := f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	f.tx = tx

	committed := false
	defer func() {
		f.tx = nil
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// q returns the active transaction, or the database outside of one.
func (f *File) q() schema.Querier {
	if f.tx != nil {
		return f.tx
	}
	return f.db
}

// checkWritable returns an error unless the file accepts writes.
func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}

// objectRow is one row of the objects table.
type objectRow struct {
	id      int64
	parent  sql.NullInt64
	name    string
	path    string
	kind    schema.Kind
	class   dtype.Class
	rank    int
	dims    [2]uint64
	maxDims [2]uint64
	chunk   int
	filters filter.ID
	fill    []byte
}

const objectColumns = `id, parent, name, path, kind, class, rank, dim0, dim1, max0, max1, chunk, filters, fill`

type scanner interface {
	Scan(dest ...any) error
}

func scanObject(s scanner) (*objectRow, error) {
	var o objectRow
	var dim0, dim1, max0, max1 int64
	err := s.Scan(&o.id, &o.parent, &o.name, &o.path, &o.kind, &o.class, &o.rank,
		&dim0, &dim1, &max0, &max1, &o.chunk, &o.filters, &o.fill)
	if err != nil {
		return nil, err
	}
	o.dims = [2]uint64{uint64(dim0), uint64(dim1)}
	o.maxDims = [2]uint64{fromStoredMax(max0), fromStoredMax(max1)}
	return &o, nil
}

func toStoredMax(v uint64) int64 {
	if v == Unlimited {
		return schema.Unlimited
	}
	return int64(v)
}

func fromStoredMax(v int64) uint64 {
	if v == schema.Unlimited {
		return Unlimited
	}
	return uint64(v)
}

// lookupPath loads the object row at an absolute path.
func (f *File) lookupPath(path string) (*objectRow, error) {
	row, err := scanObject(f.q().QueryRow(`SELECT `+objectColumns+` FROM objects WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", path, err)
	}
	return row, nil
}

// lookupID loads the object row with the given id.
func (f *File) lookupID(id int64) (*objectRow, error) {
	row, err := scanObject(f.q().QueryRow(`SELECT `+objectColumns+` FROM objects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: object %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up object %d: %w", id, err)
	}
	return row, nil
}

// object wraps an object row in the matching handle type.
func (f *File) object(row *objectRow) (Object, error) {
	if row.kind == schema.KindGroup {
		return &Group{node{file: f, id: row.id, path: row.path}}, nil
	}
	return newDataset(f, row)
}
