// Package engine defines the boundary between the chunked reader and the format
// specific decoders.
//
// An Engine opens a source and exposes its schema and row-group metadata. The
// reader stages the encoded bytes of whole row groups and hands a batch of them
// to File.Decode, which returns one arrow array per selected column covering
// every row of the batch in order. The reader never inspects encoded bytes.
package engine

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/index"
	"github.com/arloliu/colchunk/source"
)

// Engine opens encoded files of one format.
type Engine interface {
	// Name identifies the format, e.g. "cct" or "parquet".
	Name() string

	// Open reads the file metadata of src. Host buffers needed for metadata are
	// taken from host.
	Open(ctx context.Context, src source.Source, host memory.Allocator) (File, error)
}

// File is an opened encoded file.
type File interface {
	// Schema returns the file schema.
	Schema() *arrow.Schema

	// RowGroups returns the row groups in file order with byte ranges absolute
	// in the source. Ordinal and Source are left for the index to assign.
	RowGroups() []index.RowGroupDescriptor

	// Decode decodes a batch of consecutive staged row groups.
	//
	// The result holds one array per entry of columns (every schema column when
	// columns is nil), each of length equal to the summed row count of the batch.
	// Array buffers are allocated from mem. On error nothing is returned and all
	// partial allocations are released.
	Decode(ctx context.Context, batch []Staged, columns []int, mem memory.Allocator) ([]arrow.Array, error)

	// Close releases the file. It does not close the source.
	Close() error
}

// Staged is one row group whose encoded bytes are resident in host memory.
type Staged struct {
	Desc index.RowGroupDescriptor
	// Data holds exactly the bytes [Desc.Offset, Desc.End()) of the source.
	Data []byte
}

// ReleaseAll releases every non-nil array.
func ReleaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		if a != nil {
			a.Release()
		}
	}
}
