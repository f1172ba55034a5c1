package snapshot

import "njord/infra/memory"

// Reader marks the boundaries of a consistent read of book state. It
// is a thin adapter over memory.ReaderEpoch: while a reader is between
// Begin and End, retired orders it may still reference are not
// reclaimed.
type Reader struct {
	epoch *memory.ReaderEpoch
}

func NewReader() *Reader {
	return &Reader{epoch: &memory.ReaderEpoch{}}
}

func (r *Reader) Begin() {
	r.epoch.Enter()
}

func (r *Reader) End() {
	r.epoch.Exit()
}

// Epoch exposes the underlying epoch for the reclaim job.
func (r *Reader) Epoch() *memory.ReaderEpoch {
	return r.epoch
}
