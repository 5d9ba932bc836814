// Package dtype provides the element classes of container datasets and
// attributes, and their byte encodings.
//
// Every value stored in a container file is a sequence of elements of one
// [Class]. Numeric classes have a fixed width and are stored little-endian;
// strings and records are variable width and carry a uvarint length prefix.
//
// # Type Mapping Strategy
//
//	Class      | Go Type (API)   | Encoding
//	-----------|-----------------|---------------------------------
//	Float64    | float64         | IEEE 754, 8 bytes
//	Float32    | float64         | IEEE 754, 4 bytes (narrowed)
//	Int64      | float64 / int64 | two's complement, 8 bytes
//	Int32      | float64         | two's complement, 4 bytes
//	Uint8      | byte            | raw
//	String     | string          | uvarint length + UTF-8 bytes
//	Reference  | int64           | 8 bytes, object id
//	Record     | Record          | String followed by Reference
//
// Numeric data crosses the API as float64 regardless of the stored class.
// Integer classes reject values that are not integral (including NaN), so
// a round-trip never silently changes a value.
//
// # Key Functions
//
//   - [EncodeFloat64s] / [DecodeFloat64s]: numeric sequences in any numeric class
//   - [EncodeStrings] / [DecodeStrings]: variable-width strings
//   - [EncodeInt64s] / [DecodeInt64s]: references and integer attributes
//   - [EncodeRecords] / [DecodeRecords]: (source, reference) pairs
package dtype
