package memory

import "sync/atomic"

// GlobalEpoch advances once per reclaim pass.
var GlobalEpoch atomic.Uint64

const inactive = ^uint64(0)

// ReaderEpoch records the epoch a snapshot reader entered its read
// section in, or inactive when it is outside one.
type ReaderEpoch struct {
	epoch atomic.Uint64
}

func (r *ReaderEpoch) Enter() {
	r.epoch.Store(GlobalEpoch.Load())
}

func (r *ReaderEpoch) Exit() {
	r.epoch.Store(inactive)
}

func (r *ReaderEpoch) Value() uint64 {
	return r.epoch.Load()
}

// ReclaimablePool is the only requirement reclamation places on a
// destination pool.
type ReclaimablePool interface {
	PutAny(any)
}

// AdvanceEpochAndReclaim bumps the global epoch and returns retired
// objects to pool. While any reader is inside a read section the ring
// is left untouched: the reclaim side only ever consumes, never
// re-queues, so the ring stays single-producer single-consumer with
// the retiring writer. A reader that enters mid-drain cannot reach a
// retired object, since retirement removes it from the book first.
func AdvanceEpochAndReclaim(ring *RetireRing, pool ReclaimablePool, readers ...*ReaderEpoch) {
	GlobalEpoch.Add(1)
	if minReaderEpoch(readers...) != inactive {
		return
	}

	for {
		obj := ring.Dequeue()
		if obj == nil {
			return
		}
		pool.PutAny(obj)
	}
}

func minReaderEpoch(rs ...*ReaderEpoch) uint64 {
	min := inactive
	for _, r := range rs {
		if r == nil {
			continue
		}
		if v := r.Value(); v < min {
			min = v
		}
	}
	return min
}
