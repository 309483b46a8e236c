// Package compress provides the codecs applied to column chunk payloads.
//
// Every column chunk of a row group is encoded first and then compressed as one
// block with the algorithm named in the file schema. Supported algorithms:
//   - None: pass-through
//   - Zstd: best ratio, pure Go by default, cgo-backed with the gozstd build tag
//   - S2: fast, Snappy-compatible extension
//   - LZ4: fastest decompression
//   - Snappy: block format, common default of columnar writers
//
// The decode path knows the decoded size of each payload from the column chunk
// entry, so it calls Decompressor.DecompressInto with a buffer obtained from the
// host allocator instead of letting the codec allocate:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	dst := hostBuf[:entry.RawSize]
//	raw, err := codec.DecompressInto(dst, payload)
//
// All built-in codecs are stateless values and safe for concurrent use.
package compress
