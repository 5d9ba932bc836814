// Package schema defines the on-disk layout of a container file.
//
// A container file is a SQLite database. The header table is the entry
// point: it holds a single row with the format signature, the schema
// version and the object id of the root group. [Read] validates that row
// before anything else in the file is trusted, so a plain SQLite database
// (or any other file) is rejected with [ErrNotContainer].
//
// # Tables
//
//   - header:    signature, version, root object id
//   - objects:   one row per group or dataset (path, kind, class, shape, max shape, chunking, filters, fill)
//   - attrs:     named attribute values attached to objects
//   - chunks:    filtered chunk payloads of regular datasets, keyed by (object, row, chunk index)
//   - segments:  filtered append segments of ragged rows, keyed by (object, row, sequence)
//   - dimscales: dimension scale attachments (dataset, axis, scale)
//   - dimlabels: dimension labels (dataset, axis)
//
// # Versions
//
// [Version] is bumped whenever the table layout changes. Files written with
// a newer version than the library understands fail with
// [ErrUnsupportedVersion].
//
// # Key Types and Functions
//
//   - [Header]: the decoded header row
//   - [Init]: creates the tables and the root group in an empty database
//   - [Read]: validates and returns the header
//   - [Querier]: the subset of *sql.DB / *sql.Tx the container needs
package schema
