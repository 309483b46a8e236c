package reader

import "github.com/arloliu/colchunk/index"

// window is the part of a row group that belongs to the requested row range.
type window struct {
	skip int64
	take int64
}

// readPlan is the ordered suffix of row groups not emitted yet. It only shrinks
// from the front.
type readPlan struct {
	descs   []index.RowGroupDescriptor
	windows []window
	rows    int64
}

// newReadPlan keeps the row groups overlapping rows [skip, skip+num) of idx.
// A negative num selects every row from skip on. Empty row groups are dropped,
// so every entry contributes at least one row.
func newReadPlan(idx *index.Index, skip, num int64) *readPlan {
	end := idx.NumRows()
	if num >= 0 {
		end = min(end, skip+num)
	}

	p := &readPlan{}
	var first int64
	for _, rg := range idx.All() {
		last := first + rg.NumRows
		lo, hi := max(first, skip), min(last, end)
		if hi > lo {
			p.descs = append(p.descs, rg)
			p.windows = append(p.windows, window{skip: lo - first, take: hi - lo})
			p.rows += hi - lo
		}
		first = last
	}

	return p
}

func (p *readPlan) len() int { return len(p.descs) }

func (p *readPlan) empty() bool { return len(p.descs) == 0 }

// truncate drops the first n entries.
func (p *readPlan) truncate(n int) {
	for _, w := range p.windows[:n] {
		p.rows -= w.take
	}
	p.descs = p.descs[n:]
	p.windows = p.windows[n:]
}
