package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/colchunk/errs"
)

var payload = []byte("0123456789abcdefghijklmnopqrstuvwxyz")

type fakeS3 struct {
	objects map[string][]byte
	gets    []string
	failGet error
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NotFound")
	}

	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	data := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	rng := aws.ToString(in.Range)
	f.gets = append(f.gets, rng)

	var start, end int
	if _, err := fmt.Sscanf(strings.TrimPrefix(rng, "bytes="), "%d-%d", &start, &end); err != nil {
		return nil, err
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data[start : end+1]))}, nil
}

func checkSource(t *testing.T, src Source, kind Kind) {
	t.Helper()
	ctx := context.Background()

	require.Equal(t, kind, src.Kind())
	require.Equal(t, int64(len(payload)), src.Size())

	p := make([]byte, 10)
	n, err := src.ReadAt(ctx, p, 10)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, payload[10:20], p)

	tail := make([]byte, 6)
	_, err = src.ReadAt(ctx, tail, int64(len(payload)-6))
	require.NoError(t, err)
	require.Equal(t, []byte("uvwxyz"), tail)

	_, err = src.ReadAt(ctx, make([]byte, 10), int64(len(payload)-5))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = src.ReadAt(ctx, make([]byte, 1), -1)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.cct")
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	checkSource(t, src, KindFilePath)
	require.Equal(t, path, src.Path())

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_CanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.cct")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.ReadAt(ctx, make([]byte, 4), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHostBuffer(t *testing.T) {
	src := NewHostBuffer(payload)
	checkSource(t, src, KindHostBuffer)
	require.NoError(t, src.Close())
}

func TestDeviceBuffer(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	src := CopyToDevice(payload, mem)
	checkSource(t, src, KindDeviceBuffer)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close(), "close is idempotent")

	_, err := src.ReadAt(context.Background(), make([]byte, 1), 0)
	require.ErrorIs(t, err, errs.ErrSourceClosed)
}

func TestNewDeviceBuffer_Retains(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := memory.NewResizableBuffer(mem)
	buf.Resize(len(payload))
	copy(buf.Bytes(), payload)

	src := NewDeviceBuffer(buf)
	buf.Release()

	checkSource(t, src, KindDeviceBuffer)
	require.NoError(t, src.Close())
}

func TestS3Object(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"bucket/tables/a.cct": payload}}

	src, err := NewS3(context.Background(), client, "bucket", "tables/a.cct")
	require.NoError(t, err)
	checkSource(t, src, KindS3)
	require.Contains(t, client.gets, "bytes=10-19")

	_, err = NewS3(context.Background(), client, "bucket", "missing")
	require.Error(t, err)

	client.failGet = errors.New("connection reset")
	_, err = src.ReadAt(context.Background(), make([]byte, 4), 0)
	require.ErrorContains(t, err, "connection reset")
}

func TestReaderAt(t *testing.T) {
	r := ReaderAt(context.Background(), NewHostBuffer(payload))
	require.Equal(t, int64(len(payload)), r.Size())

	p := make([]byte, 8)
	n, err := r.ReadAt(p, int64(len(payload)-4))
	require.Equal(t, 4, n)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, []byte("wxyz"), p[:n])

	pos, err := r.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)-3), pos)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("xyz"), all)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "f.cct")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	client := &fakeS3{objects: map[string][]byte{"b/k": payload}}

	srcs, err := OpenAll(ctx, []Info{
		{Kind: KindFilePath, Path: path},
		{Kind: KindHostBuffer, Data: payload},
		{Kind: KindDeviceBuffer, Data: payload},
		{Kind: KindS3, Bucket: "b", Key: "k", S3: client},
	})
	require.NoError(t, err)
	for i, src := range srcs {
		require.Equal(t, Kind(i+1), src.Kind(), strconv.Itoa(i))
		require.Equal(t, int64(len(payload)), src.Size())
	}
	require.NoError(t, CloseAll(srcs))

	_, err = Open(ctx, Info{Kind: Kind(99)})
	require.ErrorIs(t, err, errs.ErrUnknownSourceKind)

	_, err = OpenAll(ctx, []Info{{Kind: KindHostBuffer}, {Kind: KindS3, Bucket: "b", Key: "k"}})
	require.ErrorIs(t, err, errs.ErrUnknownSourceKind)
}

func TestParseLocation(t *testing.T) {
	info, err := ParseLocation("s3://bucket/path/to/file.parquet")
	require.NoError(t, err)
	require.Equal(t, Info{Kind: KindS3, Bucket: "bucket", Key: "path/to/file.parquet"}, info)

	info, err = ParseLocation("/tmp/data.cct")
	require.NoError(t, err)
	require.Equal(t, Info{Kind: KindFilePath, Path: "/tmp/data.cct"}, info)

	_, err = ParseLocation("s3://bucket")
	require.ErrorIs(t, err, errs.ErrUnknownSourceKind)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "file", KindFilePath.String())
	require.Equal(t, "host_buffer", KindHostBuffer.String())
	require.Equal(t, "device_buffer", KindDeviceBuffer.String())
	require.Equal(t, "s3", KindS3.String())
	require.Equal(t, "unknown", Kind(0).String())
}
