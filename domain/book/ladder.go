package book

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

// ladder is one side's price-level index: an ordered map from price to
// PriceLevel. Bids compare descending and asks ascending, so the best
// level is always the leftmost node.
type ladder struct {
	tree *rbt.Tree[int64, *PriceLevel]
}

func newLadder(side Side) *ladder {
	cmp := func(a, b int64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if side == Buy {
		asc := cmp
		cmp = func(a, b int64) int { return asc(b, a) }
	}
	return &ladder{tree: rbt.NewWith[int64, *PriceLevel](cmp)}
}

func (l *ladder) getOrCreate(price int64) *PriceLevel {
	if lvl, ok := l.tree.Get(price); ok {
		return lvl
	}
	lvl := &PriceLevel{Price: price}
	l.tree.Put(price, lvl)
	return lvl
}

// best returns the first level in priority order, nil when the side is
// empty.
func (l *ladder) best() *PriceLevel {
	n := l.tree.Left()
	if n == nil {
		return nil
	}
	return n.Value
}

func (l *ladder) remove(price int64) {
	l.tree.Remove(price)
}

func (l *ladder) empty() bool {
	return l.tree.Empty()
}

func (l *ladder) len() int {
	return l.tree.Size()
}

// walk visits levels best-first.
func (l *ladder) walk(fn func(*PriceLevel)) {
	it := l.tree.Iterator()
	for it.Next() {
		fn(it.Value())
	}
}
