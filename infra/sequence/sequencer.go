// Package sequence issues the strictly monotonic ids that order every
// command applied to the book. The trade stream is fully determined by
// command order, so sequencing is the replay anchor.
package sequence

import "sync/atomic"

type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer resuming from start: zero on a fresh book,
// the last replayed sequence after recovery.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next command sequence id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset is only valid directly after WAL replay.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
