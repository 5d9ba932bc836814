// Package container provides a single-file hierarchical store for
// scientific datasets.
//
// A container file holds a tree of groups and datasets. Datasets are typed,
// one- or two-dimensional, chunked and resizable up to a maximum shape
// fixed at creation. Ragged datasets hold rows of independent length that
// grow by appending. Groups and datasets carry named attributes, datasets
// can be bound to other datasets as dimension scales, and any object can be
// referenced from an attribute through a [Ref].
//
// Files are SQLite databases; see internal/schema for the table layout.
package container

import (
	"errors"

	"github.com/nsdf/nsdf/internal/filter"
	"github.com/nsdf/nsdf/internal/schema"
)

// Common errors
var (
	ErrNotContainer = schema.ErrNotContainer
	ErrNotFound     = errors.New("object not found")
	ErrExists       = errors.New("object already exists")
	ErrNotDataset   = errors.New("object is not a dataset")
	ErrNotGroup     = errors.New("object is not a group")
	ErrNotRagged    = errors.New("object is not a ragged dataset")
	ErrNotScale     = errors.New("dataset is not a dimension scale")
	ErrInvalidPath  = errors.New("invalid path")
	ErrClosed       = errors.New("file is closed")
	ErrReadOnly     = errors.New("file is not writable")
	ErrMaxDims      = errors.New("dimension exceeds maximum")
	ErrShrink       = errors.New("datasets cannot shrink")
	ErrOutOfRange   = errors.New("selection out of range")
	ErrClass        = errors.New("element class mismatch")
	ErrRank         = errors.New("rank mismatch")
	ErrAttrNotFound = errors.New("attribute not found")
	ErrUnsupported  = errors.New("unsupported value type")
	ErrChecksum     = filter.ErrChecksum
)
