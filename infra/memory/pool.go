// Package memory provides object pooling and epoch-based reclamation
// for book entities. Retired orders cannot be recycled immediately:
// a snapshot reader may still be walking them, so they park in a retire
// ring until every reader has moved past the epoch in which they died.
package memory

import "sync"

// Pool is a typed object pool. It also participates in type-erased
// reclamation through PutAny.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}

// PutAny lets Pool[T] satisfy ReclaimablePool. The type assertion is
// deliberate: handing the wrong type to a pool is a wiring bug.
func (p *Pool[T]) PutAny(v any) {
	obj, ok := v.(*T)
	if !ok {
		panic("memory.Pool: PutAny received wrong type")
	}
	p.Put(obj)
}
