package reader

import "github.com/arloliu/colchunk/index"

// State is the scheduler state of a Reader.
type State uint8

const (
	// StateReady means row groups remain and no batch is in flight.
	StateReady State = iota
	// StateEmitted means a chunk was just returned; it moves back to StateReady
	// or to StateExhausted on the next transition.
	StateEmitted
	// StateExhausted is terminal: every row group has been emitted.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateEmitted:
		return "EMITTED"
	case StateExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// Planner decides how many row groups form the next chunk.
//
// Plan receives the remaining row groups in order, the selected columns (nil for
// all) and the output limit (0 for unbounded). The result is clamped to
// [1, len(next)], so a planner can never stall the reader or reorder rows.
type Planner interface {
	Plan(next []index.RowGroupDescriptor, columns []int, outputLimit int64) int
}

// GreedyPlanner takes consecutive row groups while the sum of their estimated
// decoded sizes stays within the output limit.
type GreedyPlanner struct{}

func (GreedyPlanner) Plan(next []index.RowGroupDescriptor, columns []int, outputLimit int64) int {
	if outputLimit <= 0 {
		return len(next)
	}

	var total int64
	for i, rg := range next {
		total += rg.EstimatedDecodedSize(columns)
		if total > outputLimit {
			return max(i, 1)
		}
	}

	return len(next)
}

// planNextBatch returns the number of plan entries of the next chunk.
func (r *Reader) planNextBatch() int {
	k := r.planner.Plan(r.plan.descs, r.columns, r.budget.OutputLimit)

	return min(max(k, 1), r.plan.len())
}
