package backtest

import "sort"

// ladder is a tick-local, price-ordered view of one side of a snapshot,
// consumed front to back by the matching engine. A cursor marks the best
// remaining level; exhausted levels are skipped, not removed, so the
// backing arrays never reallocate mid-tick.
type ladder struct {
	prices []float64
	sizes  []int64
	cur    int
}

// newLadder seeds a ladder from one side of a snapshot. Bids are ordered
// descending, asks ascending, so index 0 is always the best price.
func newLadder(levels map[float64]int64, descending bool) *ladder {
	l := &ladder{
		prices: make([]float64, 0, len(levels)),
		sizes:  make([]int64, 0, len(levels)),
	}
	for px := range levels {
		l.prices = append(l.prices, px)
	}
	if descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(l.prices)))
	} else {
		sort.Float64s(l.prices)
	}
	for _, px := range l.prices {
		sz := levels[px]
		if sz < 0 {
			sz = -sz
		}
		l.sizes = append(l.sizes, sz)
	}
	return l
}

func (l *ladder) empty() bool {
	return l.cur >= len(l.prices)
}

// best returns the best remaining price. Callers must check empty first.
func (l *ladder) best() float64 {
	return l.prices[l.cur]
}

func (l *ladder) bestSize() int64 {
	return l.sizes[l.cur]
}

// consume removes qty from the best level, advancing the cursor when the
// level is exhausted. qty must not exceed bestSize.
func (l *ladder) consume(qty int64) {
	l.sizes[l.cur] -= qty
	if l.sizes[l.cur] == 0 {
		l.cur++
	}
}
