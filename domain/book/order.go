package book

import "fmt"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderType int

const (
	// GoodTillCancel rests on the book until filled or canceled.
	GoodTillCancel OrderType = iota
	// FillAndKill executes what it can immediately and never rests.
	FillAndKill
)

func (t OrderType) String() string {
	switch t {
	case GoodTillCancel:
		return "GTC"
	case FillAndKill:
		return "FAK"
	default:
		return "unknown"
	}
}

// Order is a resident book entity. The book owns every live Order;
// callers interact through ids only. The intrusive prev/next links
// double as the order's position handle inside its price level, so
// cancellation never traverses the FIFO.
type Order struct {
	ID        uint64
	Side      Side
	Type      OrderType
	Price     int64
	Initial   int64
	Remaining int64

	next *Order
	prev *Order
}

// Fill reduces the remaining quantity. Asking for more than remains is
// an internal-consistency fault of the matching loop, reported as
// ErrOverfill rather than a panic so callers can escalate it.
func (o *Order) Fill(qty int64) error {
	if qty > o.Remaining {
		return fmt.Errorf("%w: order %d fill %d exceeds remaining %d",
			ErrOverfill, o.ID, qty, o.Remaining)
	}
	o.Remaining -= qty
	return nil
}

func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

func (o *Order) FilledQty() int64 {
	return o.Initial - o.Remaining
}

// Next walks the level FIFO front-to-back. Read-only.
func (o *Order) Next() *Order {
	return o.next
}
