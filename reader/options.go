package reader

import (
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/otel/metric"

	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/internal/options"
)

// Budget holds the two memory limits of a reader session, in bytes. Zero means unbounded.
type Budget struct {
	// OutputLimit bounds the estimated decoded size of one chunk.
	OutputLimit int64
	// InputLimit bounds the encoded bytes staged ahead of decode.
	InputLimit int64
}

// Unbounded reports whether neither limit is set.
func (b Budget) Unbounded() bool {
	return b.OutputLimit == 0 && b.InputLimit == 0
}

func (b Budget) validate() error {
	if b.OutputLimit < 0 || b.InputLimit < 0 {
		return fmt.Errorf("%w: output %d, input %d", errs.ErrInvalidBudget, b.OutputLimit, b.InputLimit)
	}

	return nil
}

// Option configures a Reader.
type Option = options.Option[*settings]

type settings struct {
	budget   Budget
	columns  []string
	skipRows int64
	numRows  int64 // -1 reads to the end
	host     memory.Allocator
	device   memory.Allocator
	logger   *slog.Logger
	planner  Planner
	meter    metric.MeterProvider
}

func defaultSettings() *settings {
	return &settings{numRows: -1, planner: GreedyPlanner{}}
}

// WithBudget sets both limits.
func WithBudget(outputLimit, inputLimit int64) Option {
	return options.NoError(func(s *settings) {
		s.budget = Budget{OutputLimit: outputLimit, InputLimit: inputLimit}
	})
}

// WithOutputLimit sets the decoded bytes limit of one chunk.
func WithOutputLimit(n int64) Option {
	return options.NoError(func(s *settings) {
		s.budget.OutputLimit = n
	})
}

// WithInputLimit sets the staged encoded bytes limit.
func WithInputLimit(n int64) Option {
	return options.NoError(func(s *settings) {
		s.budget.InputLimit = n
	})
}

// WithColumns selects columns by name, in the given order. Without names every column is read.
func WithColumns(names ...string) Option {
	return options.NoError(func(s *settings) {
		if len(names) == 0 {
			s.columns = nil
			return
		}
		s.columns = append([]string(nil), names...)
	})
}

// WithRowRange reads num rows starting after skip rows. A negative num reads to the end.
//
// Row groups entirely outside the range are neither staged nor decoded; the
// boundary row groups are decoded in full and sliced.
func WithRowRange(skip, num int64) Option {
	return options.New(func(s *settings) error {
		if skip < 0 {
			return fmt.Errorf("%w: skip %d", errs.ErrInvalidRowRange, skip)
		}
		s.skipRows = skip
		s.numRows = max(num, -1)

		return nil
	})
}

// WithHostAllocator sets the allocator for staged input and decode scratch.
func WithHostAllocator(mem memory.Allocator) Option {
	return options.NoError(func(s *settings) {
		s.host = mem
	})
}

// WithDeviceAllocator sets the allocator for decoded arrays.
func WithDeviceAllocator(mem memory.Allocator) Option {
	return options.NoError(func(s *settings) {
		s.device = mem
	})
}

// WithLogger sets the logger for budget warnings. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(s *settings) {
		s.logger = logger
	})
}

// WithPlanner replaces the greedy batch planner.
func WithPlanner(p Planner) Option {
	return options.New(func(s *settings) error {
		if p == nil {
			return fmt.Errorf("%w: nil", errs.ErrInvalidPlanner)
		}
		s.planner = p

		return nil
	})
}

// WithMeterProvider sets the meter provider for reader counters. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return options.NoError(func(s *settings) {
		s.meter = mp
	})
}
