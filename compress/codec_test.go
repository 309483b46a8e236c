package compress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp":   NewNoOpCompressor(),
		"Zstd":   NewZstdCompressor(),
		"S2":     NewS2Compressor(),
		"LZ4":    NewLZ4Compressor(),
		"Snappy": NewSnappyCompressor(),
	}
}

func payloads() map[string][]byte {
	mixed := make([]byte, 4096)
	for i := range mixed {
		if i%100 < 50 {
			mixed[i] = byte(i % 256)
		} else {
			mixed[i] = byte((i*7 + i*i) % 256)
		}
	}

	return map[string][]byte{
		"single_byte":   {0x42},
		"small_text":    []byte("column chunk"),
		"repeated":      bytes.Repeat([]byte("ABCD"), 100),
		"int64_column":  bytes.Repeat([]byte{1, 0, 0, 0, 0, 0, 0, 0}, 8192),
		"mixed":         mixed,
		"zeros_1MiB":    make([]byte, 1024*1024),
		"string_column": bytes.Repeat([]byte("\x05alpha\x04beta\x05gamma"), 512),
	}
}

func TestCreateCodec(t *testing.T) {
	tests := []struct {
		typ  format.CompressionType
		want Codec
	}{
		{format.CompressionNone, NoOpCompressor{}},
		{format.CompressionZstd, ZstdCompressor{}},
		{format.CompressionS2, S2Compressor{}},
		{format.CompressionLZ4, LZ4Compressor{}},
		{format.CompressionSnappy, SnappyCompressor{}},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			codec, err := CreateCodec(tt.typ, "column")
			require.NoError(t, err)
			require.IsType(t, tt.want, codec)

			shared, err := GetCodec(tt.typ)
			require.NoError(t, err)
			require.IsType(t, tt.want, shared)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := CreateCodec(format.CompressionType(0x7f), "column")
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
		require.Contains(t, err.Error(), "column")

		_, err = GetCodec(format.CompressionType(0))
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
	})
}

func TestCompressionStats(t *testing.T) {
	s := CompressionStats{Algorithm: format.CompressionZstd, OriginalSize: 1000, CompressedSize: 250}
	require.InDelta(t, 0.25, s.CompressionRatio(), 1e-9)
	require.InDelta(t, 75.0, s.SpaceSavings(), 1e-9)

	require.Zero(t, CompressionStats{}.CompressionRatio())
}

func TestAllCodecs_DecompressInto(t *testing.T) {
	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for name, data := range payloads() {
				t.Run(name, func(t *testing.T) {
					compressed, err := codec.Compress(data)
					require.NoError(t, err)

					dst := make([]byte, len(data))
					out, err := codec.DecompressInto(dst, compressed)
					require.NoError(t, err)
					require.Equal(t, data, out)
					require.Same(t, &dst[0], &out[0], "result must alias dst")
				})
			}
		})
	}
}

func TestAllCodecs_DecompressInto_SizeMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("row group payload "), 64)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			_, err = codec.DecompressInto(make([]byte, len(data)+16), compressed)
			require.Error(t, err, "larger destination")

			_, err = codec.DecompressInto(make([]byte, len(data)-16), compressed)
			require.Error(t, err, "smaller destination")
		})
	}
}

func TestAllCodecs_DecompressInto_Empty(t *testing.T) {
	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			out, err := codec.DecompressInto([]byte{}, nil)
			require.NoError(t, err)
			require.Empty(t, out)

			_, err = codec.DecompressInto(make([]byte, 8), nil)
			require.ErrorIs(t, err, errs.ErrTruncatedPayload)
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalid := map[string][]byte{
		"random_bytes":       {0xFF, 0xFF, 0xFF, 0xFF},
		"text_as_compressed": []byte("this is not compressed data"),
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			for name, data := range invalid {
				t.Run(name, func(t *testing.T) {
					_, err := codec.DecompressInto(make([]byte, 64), data)
					require.Error(t, err)
				})
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 16
	data := bytes.Repeat([]byte("concurrent column decode "), 200)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			var wg sync.WaitGroup
			errCh := make(chan error, numGoroutines)
			for range numGoroutines {
				wg.Add(1)
				go func() {
					defer wg.Done()
					dst := make([]byte, len(data))
					out, err := codec.DecompressInto(dst, compressed)
					if err == nil && !bytes.Equal(out, data) {
						err = errs.ErrChecksumMismatch
					}
					errCh <- err
				}()
			}
			wg.Wait()
			close(errCh)

			for err := range errCh {
				require.NoError(t, err)
			}
		})
	}
}

func BenchmarkAllCodecs_DecompressInto(b *testing.B) {
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 8192)

	for codecName, codec := range getAllCodecs() {
		compressed, err := codec.Compress(data)
		require.NoError(b, err)
		dst := make([]byte, len(data))

		b.Run(codecName, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := codec.DecompressInto(dst, compressed); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
