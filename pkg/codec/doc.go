// Package codec converts CDF value payloads between their on-disk byte
// representation and native Go values.
//
// The codec package covers the four concerns a CDF payload can involve:
// data types, byte encodings, array majority, and per-payload compression.
// It is the foundation both the file reader and writer build on.
//
// # Data Types
//
// Every CDF value carries a DataType code describing its scalar layout:
// signed and unsigned integers (1, 2, 4 and 8 bytes), IEEE floats and
// doubles, single characters, and the three epoch types (CDF_EPOCH,
// CDF_EPOCH16, CDF_TIME_TT2000). Character types use NumElems as a string
// length; every other type stores NumElems scalars per value.
//
// DecodeValues turns a raw payload into a []interface{} of Go values
// (int8..int64, uint8..uint32, float32/float64, string, complex128 for
// EPOCH16). EncodeValues is its inverse. PadValue and FillValue provide
// the conventional defaults for each type.
//
// # Encodings
//
// An Encoding names the byte order the writing host used. Supported()
// reports whether this implementation can read it and ByteOrder() maps it
// to a binary.ByteOrder. Network (big-endian) and the little-endian host
// encodings are supported; historic VAX and IBM float formats are not.
//
// # Majority
//
// Multi-dimensional values are stored either row-major or column-major.
// ColumnToRow and RowToColumn transpose a single record's payload between
// the two, given the scalar width and dimension sizes.
//
// # Compression
//
// GzipDeflate/GzipInflate and RLEEncode/RLEDecode implement the two
// payload compressions in use. Decompress dispatches on a Compression
// code. RLE here is the zero-run variant: only runs of zero bytes are
// collapsed.
//
// All functions are pure and safe for concurrent use.
package codec
