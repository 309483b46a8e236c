package colchunk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/colchunk/engine/native"
	"github.com/arloliu/colchunk/engine/pq"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/internal/fixture"
	"github.com/arloliu/colchunk/reader"
	"github.com/arloliu/colchunk/source"
)

var testSpec = fixture.Spec{Rows: 2500, Columns: 5, RowsPerGroup: 400, Seed: 99}

func writeFiles(t *testing.T) (cctPath, parquetPath string) {
	t.Helper()

	dir := t.TempDir()
	cct, err := fixture.CCT(testSpec, memory.DefaultAllocator)
	require.NoError(t, err)
	parquet, err := fixture.Parquet(testSpec, memory.DefaultAllocator)
	require.NoError(t, err)

	cctPath = filepath.Join(dir, "table.cct")
	parquetPath = filepath.Join(dir, "table.parquet")
	require.NoError(t, os.WriteFile(cctPath, cct, 0o600))
	require.NoError(t, os.WriteFile(parquetPath, parquet, 0o600))

	return cctPath, parquetPath
}

func requireFixtureTable(t *testing.T, r *Reader) {
	t.Helper()

	want := fixture.Range(testSpec, fixture.Schema(testSpec.Columns), memory.DefaultAllocator, 0, testSpec.Rows)
	defer want.Release()

	tbl, err := r.ReadAll(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	require.Equal(t, int64(testSpec.Rows), tbl.NumRows())
	for c := range testSpec.Columns {
		got, err := array.Concatenate(tbl.Column(c).Data().Chunks(), memory.DefaultAllocator)
		require.NoError(t, err)
		require.Truef(t, array.Equal(want.Column(c), got), "column %d differs", c)
		got.Release()
	}
}

func TestDetectEngine(t *testing.T) {
	cctPath, parquetPath := writeFiles(t)
	ctx := context.Background()

	tests := []struct {
		path string
		name string
	}{
		{cctPath, native.Name},
		{parquetPath, pq.Name},
	}

	for _, tt := range tests {
		src, err := source.OpenFile(tt.path)
		require.NoError(t, err)

		eng, err := DetectEngine(ctx, src)
		require.NoError(t, err)
		require.Equal(t, tt.name, eng.Name())
		require.NoError(t, src.Close())
	}

	_, err := DetectEngine(ctx, source.NewHostBuffer([]byte("not a table")))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = DetectEngine(ctx, source.NewHostBuffer([]byte("ab")))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestOpenFiles(t *testing.T) {
	cctPath, parquetPath := writeFiles(t)
	ctx := context.Background()

	for _, path := range []string{cctPath, parquetPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			r, err := OpenFiles(ctx, []string{path}, reader.WithOutputLimit(16<<10))
			require.NoError(t, err)
			defer func() { require.NoError(t, r.Close()) }()

			require.Equal(t, int64(testSpec.Rows), r.NumRows())
			requireFixtureTable(t, r)
			require.Greater(t, r.Stats().ChunksEmitted, 1)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, nil)
	require.ErrorIs(t, err, errs.ErrNoSources)

	_, err = OpenFiles(ctx, []string{filepath.Join(t.TempDir(), "missing.cct")})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(ctx, []source.Info{{Kind: source.KindHostBuffer, Data: []byte("garbage!")}})
	require.ErrorIs(t, err, ErrUnknownFormat)

	cctPath, _ := writeFiles(t)
	_, err = OpenFiles(ctx, []string{cctPath}, reader.WithColumns("missing"))
	require.ErrorIs(t, err, errs.ErrUnknownColumn)
}

func TestReader_ClosesSources(t *testing.T) {
	data, err := fixture.CCT(testSpec, memory.DefaultAllocator)
	require.NoError(t, err)

	device := memory.NewCheckedAllocator(memory.NewGoAllocator())
	r, err := Open(context.Background(), []source.Info{
		{Kind: source.KindDeviceBuffer, Data: data, Device: device},
		{Kind: source.KindHostBuffer, Data: data},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2*testSpec.Rows), r.NumRows())
	require.Positive(t, device.CurrentAlloc())

	require.NoError(t, r.Close())
	device.AssertSize(t, 0)
}

func TestReadTable(t *testing.T) {
	_, parquetPath := writeFiles(t)
	data, err := os.ReadFile(parquetPath)
	require.NoError(t, err)

	tbl, err := ReadTable(context.Background(),
		[]source.Info{{Kind: source.KindHostBuffer, Data: data}},
		reader.WithColumns("c1"))
	require.NoError(t, err)
	defer tbl.Release()

	require.Equal(t, int64(1), tbl.NumCols())
	require.Equal(t, int64(testSpec.Rows), tbl.NumRows())
	require.Equal(t, "c1", tbl.Schema().Field(0).Name)
}
