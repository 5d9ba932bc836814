// Package filter implements the chunk filters of container datasets.
//
// Filters transform chunk bytes on the way to storage and back. Encoding
// applies the filters of a [Pipeline] in order; decoding applies them in
// reverse. The set of filters for a dataset is persisted as a bitmask of
// [ID] values, so a file always carries enough information to read its own
// chunks.
//
// # Supported Filters
//
//   - [Shuffle]: groups byte k of every element together to help compression
//   - [Zstd]: zstandard compression (github.com/klauspost/compress/zstd)
//   - [Checksum]: appends an xxh3 digest and verifies it on decode
//
// Pipeline order is fixed: shuffle, then compression, then checksum. The
// checksum therefore covers the stored bytes, and a corrupted chunk is
// detected before decompression is attempted.
package filter
