package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

// ==============================================================================
// Flag and header
// ==============================================================================

func TestNewFlag(t *testing.T) {
	f := NewFlag()

	require.NoError(t, f.Validate())
	require.True(t, f.IsLittleEndian())
	require.True(t, f.HasChecksums())
	require.Equal(t, uint16(MagicCCTV1Opt), f.MagicNumber())
	require.Equal(t, format.CompressionZstd, f.DefaultCompression())
	require.Equal(t, endian.GetLittleEndianEngine(), f.Engine())
}

func TestFlag_Bits(t *testing.T) {
	f := NewFlag()

	f.WithBigEndian()
	require.True(t, f.IsBigEndian())
	require.Equal(t, endian.GetBigEndianEngine(), f.Engine())
	require.Equal(t, uint16(MagicCCTV1Opt), f.MagicNumber(), "byte order bit must not touch the magic")

	f.SetChecksums(false)
	require.False(t, f.HasChecksums())
	require.True(t, f.IsBigEndian())

	f.WithLittleEndian()
	require.True(t, f.IsLittleEndian())
	require.NoError(t, f.Validate())
}

func TestFlag_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Flag)
		want   error
	}{
		{"bad magic", func(f *Flag) { f.Options = 0xEA10 }, errs.ErrInvalidMagicNumber},
		{"reserved bits", func(f *Flag) { f.Options |= 0x0004 }, errs.ErrInvalidHeaderFlags},
		{"version", func(f *Flag) { f.Version = 2 }, errs.ErrUnsupportedVersion},
		{"compression", func(f *Flag) { f.Compression = 0 }, errs.ErrInvalidCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlag()
			tt.mutate(&f)
			require.ErrorIs(t, f.Validate(), tt.want)
		})
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	h := NewHeader(64)
	h.Flag.WithBigEndian()
	h.Flag.Compression = uint8(format.CompressionSnappy)

	data := h.Bytes()
	require.Len(t, data, HeaderSize)
	require.True(t, IsCCT(data))

	parsed, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestHeader_Parse_Errors(t *testing.T) {
	var h Header
	require.ErrorIs(t, h.Parse([]byte{1, 2, 3}), errs.ErrInvalidHeaderSize)

	_, err := ParseHeader(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	_, err = ParseHeader(make([]byte, HeaderSize))
	require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)

	require.False(t, IsCCT([]byte("PAR1")))
	require.False(t, IsCCT(nil))
}

// ==============================================================================
// Trailer
// ==============================================================================

func TestTrailer_RoundTrip(t *testing.T) {
	tr := Trailer{FooterOffset: 1 << 33, FooterLength: 4096, FooterChecksum: 0xDEADBEEFCAFEF00D}

	data := tr.Bytes()
	require.Len(t, data, TrailerSize)

	var parsed Trailer
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, tr, parsed)
	require.Equal(t, uint64(1<<33+4096), parsed.FooterEnd())
}

func TestTrailer_Parse_Errors(t *testing.T) {
	var tr Trailer
	require.ErrorIs(t, tr.Parse(make([]byte, TrailerSize-1)), errs.ErrInvalidTrailerSize)
	require.ErrorIs(t, tr.Parse(make([]byte, TrailerSize)), errs.ErrInvalidMagicNumber)
}

// ==============================================================================
// Index entries and footer
// ==============================================================================

func TestIndexEntries_RoundTrip(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		rg := RowGroupEntry{Offset: 8, Length: 1 << 20, Rows: 32768}
		cc := ColumnChunkEntry{Offset: 8, CompressedSize: 1234, RawSize: 262144, Checksum: 42, Rows: 32768}

		buf := make([]byte, RowGroupEntrySize+ColumnChunkEntrySize)
		next := rg.WriteToSlice(buf, 0, engine)
		require.Equal(t, RowGroupEntrySize, next)
		next = cc.WriteToSlice(buf, next, engine)
		require.Equal(t, len(buf), next)

		gotRG, err := ParseRowGroupEntry(buf, engine)
		require.NoError(t, err)
		require.Equal(t, rg, gotRG)
		require.Equal(t, uint64(8+1<<20), gotRG.End())

		gotCC, err := ParseColumnChunkEntry(buf[RowGroupEntrySize:], engine)
		require.NoError(t, err)
		require.Equal(t, cc, gotCC)
		require.Equal(t, uint64(8+1234), gotCC.End())
	}

	_, err := ParseRowGroupEntry(make([]byte, 3), endian.GetLittleEndianEngine())
	require.ErrorIs(t, err, errs.ErrInvalidIndexEntry)
	_, err = ParseColumnChunkEntry(make([]byte, 31), endian.GetLittleEndianEngine())
	require.ErrorIs(t, err, errs.ErrInvalidIndexEntry)
}

func sampleFooter() Footer {
	return Footer{
		Columns: []ColumnSpec{
			{Name: "id", Type: format.TypeInt64, Compression: format.CompressionNone},
			{Name: "name", Type: format.TypeString, Compression: format.CompressionZstd},
		},
		RowGroups: []RowGroupMeta{
			{
				Entry: RowGroupEntry{Offset: 8, Length: 300, Rows: 10},
				Chunks: []ColumnChunkEntry{
					{Offset: 8, CompressedSize: 80, RawSize: 80, Rows: 10},
					{Offset: 88, CompressedSize: 220, RawSize: 400, Checksum: 7, Rows: 10},
				},
			},
			{
				Entry: RowGroupEntry{Offset: 308, Length: 100, Rows: 5},
				Chunks: []ColumnChunkEntry{
					{Offset: 308, CompressedSize: 40, RawSize: 40, Rows: 5},
					{Offset: 348, CompressedSize: 60, RawSize: 70, Rows: 5},
				},
			},
		},
	}
}

func TestFooter_RoundTrip(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		f := sampleFooter()
		data := f.Bytes(engine)
		require.Len(t, data, f.Size())

		parsed, err := ParseFooter(data, engine, 2)
		require.NoError(t, err)
		require.Equal(t, f, parsed)
	}
}

func TestFooter_Empty(t *testing.T) {
	f := Footer{Columns: []ColumnSpec{{Name: "v", Type: format.TypeFloat64, Compression: format.CompressionLZ4}}}
	engine := endian.GetLittleEndianEngine()

	parsed, err := ParseFooter(f.Bytes(engine), engine, 1)
	require.NoError(t, err)
	require.Empty(t, parsed.RowGroups)
	require.Equal(t, f.Columns, parsed.Columns)
}

func TestParseFooter_Errors(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	f := sampleFooter()
	data := f.Bytes(engine)

	t.Run("too short", func(t *testing.T) {
		_, err := ParseFooter([]byte{1}, engine, 2)
		require.ErrorIs(t, err, errs.ErrInvalidFooter)
	})

	t.Run("column count mismatch", func(t *testing.T) {
		_, err := ParseFooter(data, engine, 3)
		require.ErrorIs(t, err, errs.ErrInvalidFooter)
	})

	t.Run("truncated directory", func(t *testing.T) {
		_, err := ParseFooter(data[:len(data)-1], engine, 2)
		require.ErrorIs(t, err, errs.ErrInvalidFooter)
	})

	t.Run("bad column type", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[2] = 0x7f
		_, err := ParseFooter(bad, engine, 2)
		require.ErrorIs(t, err, errs.ErrInvalidColumnType)
	})

	t.Run("bad compression", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[3] = 0
		_, err := ParseFooter(bad, engine, 2)
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
	})

	t.Run("name overruns footer", func(t *testing.T) {
		bad := append([]byte(nil), data[:5]...)
		bad[4] = 0x7f
		_, err := ParseFooter(bad, engine, 2)
		require.ErrorIs(t, err, errs.ErrInvalidFooter)
	})
}
