package book

import "errors"

// Soft rejections: the command is refused, nothing is mutated, and the
// caller gets an explicit reason. These are normal business outcomes.
var (
	ErrDuplicateOrder   = errors.New("order id already resident")
	ErrOrderNotFound    = errors.New("order not found")
	ErrNoImmediateMatch = errors.New("fill-and-kill order has no immediate match")
	ErrInvalidOrder     = errors.New("price and quantity must be positive")
)

// ErrOverfill signals index or level corruption inside the matching
// loop. It must never occur under correct operation; the owning service
// should treat the book as poisoned and restart it.
var ErrOverfill = errors.New("fill exceeds remaining quantity")

// IsSoftReject reports whether err is a recoverable rejection rather
// than an internal fault.
func IsSoftReject(err error) bool {
	return errors.Is(err, ErrDuplicateOrder) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrNoImmediateMatch) ||
		errors.Is(err, ErrInvalidOrder)
}
