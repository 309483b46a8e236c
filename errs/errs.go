// Package errs defines the sentinel and typed errors returned by colchunk.
//
// Sentinels are compared with errors.Is. The typed errors (CorruptMetadataError,
// SourceReadError, ExhaustedReaderError, BudgetUnsatisfiableWarning) carry context
// and unwrap to their sentinel, so both errors.Is and errors.As work on them.
package errs

import "errors"

// Binary layout errors.
var (
	ErrInvalidHeaderSize   = errors.New("invalid header size")
	ErrInvalidTrailerSize  = errors.New("invalid trailer size")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrUnsupportedVersion  = errors.New("unsupported format version")
	ErrInvalidHeaderFlags  = errors.New("invalid header flags")
	ErrInvalidFooter       = errors.New("invalid footer")
	ErrInvalidColumnType   = errors.New("invalid column type")
	ErrInvalidCompression  = errors.New("invalid compression type")
	ErrInvalidIndexEntry   = errors.New("invalid index entry size")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrTruncatedPayload    = errors.New("truncated column payload")
	ErrNullsNotSupported   = errors.New("null values are not supported")
	ErrSchemaMismatch      = errors.New("record schema does not match writer schema")
	ErrWriterClosed        = errors.New("writer already closed")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrEmptyStagedBatch    = errors.New("empty staged batch")
	ErrUnsupportedDataType = errors.New("unsupported data type")
)

// Reader session errors.
var (
	// ErrCorruptMetadata is the sentinel behind CorruptMetadataError.
	ErrCorruptMetadata = errors.New("corrupt metadata")
	// ErrSourceRead is the sentinel behind SourceReadError.
	ErrSourceRead = errors.New("source read failed")
	// ErrReaderExhausted is the sentinel behind ExhaustedReaderError.
	ErrReaderExhausted = errors.New("chunked reader is exhausted")
	// ErrBudgetUnsatisfiable is the sentinel behind BudgetUnsatisfiableWarning.
	ErrBudgetUnsatisfiable = errors.New("budget unsatisfiable for a single row group")
	// ErrReaderPoisoned is returned by every call after a ReadChunk failure.
	ErrReaderPoisoned = errors.New("chunked reader is unusable after a failed read")
	// ErrReaderClosed is returned when the reader was closed.
	ErrReaderClosed = errors.New("chunked reader is closed")
	// ErrNoSources is returned when a reader is built without any source.
	ErrNoSources = errors.New("no sources given")
	// ErrInvalidRowRange is returned for a negative skip or row count.
	ErrInvalidRowRange = errors.New("invalid row range")
	// ErrInvalidBudget is returned for negative limits.
	ErrInvalidBudget = errors.New("invalid budget")
	// ErrInvalidPlanner is returned for a nil Planner.
	ErrInvalidPlanner = errors.New("invalid planner")
	// ErrSourceClosed is returned when reading a closed source.
	ErrSourceClosed = errors.New("source is closed")
	// ErrUnknownSourceKind is returned by source.Open for an unsupported Info.Kind.
	ErrUnknownSourceKind = errors.New("unknown source kind")
)
