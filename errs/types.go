package errs

import "fmt"

// CorruptMetadataError reports inconsistent row-group metadata found while building
// the row-group index. It is raised at construction time; no partial index is usable.
type CorruptMetadataError struct {
	Source   int    // source ordinal
	RowGroup int    // row group ordinal inside the source, -1 when not row-group specific
	Reason   string // human readable reason
	Err      error  // optional underlying cause
}

func (e *CorruptMetadataError) Error() string {
	msg := fmt.Sprintf("corrupt metadata in source %d", e.Source)
	if e.RowGroup >= 0 {
		msg += fmt.Sprintf(" row group %d", e.RowGroup)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *CorruptMetadataError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCorruptMetadata, e.Err}
	}

	return []error{ErrCorruptMetadata}
}

// NewCorruptMetadata creates a CorruptMetadataError.
func NewCorruptMetadata(source, rowGroup int, reason string, cause error) *CorruptMetadataError {
	return &CorruptMetadataError{Source: source, RowGroup: rowGroup, Reason: reason, Err: cause}
}

// SourceReadError reports an I/O failure against an encoded source. It is never retried.
type SourceReadError struct {
	Source int
	Offset int64
	Length int64
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read source %d [%d, +%d): %v", e.Source, e.Offset, e.Length, e.Err)
}

func (e *SourceReadError) Unwrap() []error {
	return []error{ErrSourceRead, e.Err}
}

// ExhaustedReaderError is returned by ReadChunk once the read plan is empty.
type ExhaustedReaderError struct {
	RowsEmitted   int64
	ChunksEmitted int
}

func (e *ExhaustedReaderError) Error() string {
	return fmt.Sprintf("%s after %d chunks, %d rows", ErrReaderExhausted, e.ChunksEmitted, e.RowsEmitted)
}

func (e *ExhaustedReaderError) Unwrap() error {
	return ErrReaderExhausted
}

// BudgetUnsatisfiableWarning describes a row group whose size exceeds a budget on its own.
// It is not fatal: the row group is read anyway.
type BudgetUnsatisfiableWarning struct {
	Budget   string // "output" or "input"
	RowGroup int
	Size     int64
	Limit    int64
}

func (e *BudgetUnsatisfiableWarning) Error() string {
	return fmt.Sprintf("%s: row group %d needs %d bytes, %s limit is %d",
		ErrBudgetUnsatisfiable, e.RowGroup, e.Size, e.Budget, e.Limit)
}

func (e *BudgetUnsatisfiableWarning) Unwrap() error {
	return ErrBudgetUnsatisfiable
}
