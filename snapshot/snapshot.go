// Package snapshot persists and restores the set of resting orders.
// A snapshot plus the WAL tail after its sequence reproduces the book
// exactly; it also bounds how much WAL replay costs at startup.
package snapshot

import "time"

type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []OrderEntry
}

// OrderEntry captures one resting order. Remaining, not initial,
// quantity is persisted: restored orders re-enter the book with their
// unfilled size.
type OrderEntry struct {
	ID    uint64
	Side  int
	Type  int
	Price int64
	Qty   int64
}
