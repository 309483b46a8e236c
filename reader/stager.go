package reader

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/source"
)

// stager holds the encoded bytes of a prefix of the read plan in host memory.
//
// Buffers are staged in plan order and released from the front once decoded,
// so staged[i] always belongs to plan.descs[i].
type stager struct {
	sources []source.Source
	host    memory.Allocator
	limit   int64
	plan    *readPlan
	logger  *slog.Logger
	onWarn  func(context.Context, *errs.BudgetUnsatisfiableWarning)
	onStage func(context.Context, int64)

	staged []engine.Staged
	bytes  int64
	peak   int64
}

// ensureStaged stages plan entries until want are staged, the next one would
// exceed the input limit or the plan is exhausted. It returns the staged count.
//
// With nothing staged the next row group is read even when it alone exceeds
// the limit, so a call with want >= 1 always stages at least one row group
// while the plan is not empty.
func (s *stager) ensureStaged(ctx context.Context, want int) (int, error) {
	for len(s.staged) < want && len(s.staged) < s.plan.len() {
		desc := s.plan.descs[len(s.staged)]
		size := desc.EncodedSize()

		if s.limit > 0 && s.bytes+size > s.limit {
			if len(s.staged) > 0 {
				break
			}
			w := &errs.BudgetUnsatisfiableWarning{Budget: "input", RowGroup: desc.Ordinal, Size: size, Limit: s.limit}
			s.logger.Warn("staging row group over input limit",
				slog.Int("rowGroup", desc.Ordinal),
				slog.Int("source", desc.Source),
				slog.Int64("size", size),
				slog.Int64("limit", s.limit))
			if s.onWarn != nil {
				s.onWarn(ctx, w)
			}
		}

		buf := s.host.Allocate(int(size))
		if _, err := s.sources[desc.Source].ReadAt(ctx, buf[:size], desc.Offset); err != nil {
			s.host.Free(buf)
			return len(s.staged), &errs.SourceReadError{Source: desc.Source, Offset: desc.Offset, Length: size, Err: err}
		}

		s.staged = append(s.staged, engine.Staged{Desc: desc, Data: buf[:size]})
		s.bytes += size
		s.peak = max(s.peak, s.bytes)
		if s.onStage != nil {
			s.onStage(ctx, size)
		}
	}

	return len(s.staged), nil
}

// front returns the first n staged row groups.
func (s *stager) front(n int) []engine.Staged {
	return s.staged[:n]
}

// release frees the first n staged buffers.
func (s *stager) release(n int) {
	for i := range n {
		s.bytes -= int64(len(s.staged[i].Data))
		s.host.Free(s.staged[i].Data)
		s.staged[i] = engine.Staged{}
	}
	s.staged = s.staged[n:]
}

func (s *stager) releaseAll() {
	s.release(len(s.staged))
}
