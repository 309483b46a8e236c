// Package encoding converts arrow column arrays to and from the encoded column
// payloads stored in CCT row groups.
//
// Encodings by column type:
//   - Int64, Float64: fixed 8 bytes per row in the file byte order
//   - String: uvarint byte length followed by the UTF-8 bytes, per row
//   - Bool: bit-packed, least significant bit first, (rows+7)/8 bytes
//
// Encoders append into pooled byte buffers. Decoders build arrow arrays whose
// buffers come from a caller supplied memory.Allocator, so decoded bytes are
// charged to whichever allocator the chunked reader has in force.
//
// Null values are not representable; encoding an array with nulls fails with
// errs.ErrNullsNotSupported.
package encoding
