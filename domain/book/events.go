package book

// EventSink receives human-facing notifications from the book facade.
// The book itself only returns structured results; anything narrative
// (audit trail, console output, structured logs) hangs off this
// interface. Implementations must not call back into the book.
type EventSink interface {
	OrderAccepted(o *Order)
	OrderRejected(id uint64, reason error)
	OrderCanceled(id uint64)
	TradeExecuted(t Trade)
}

// NopSink discards all events. It is the default sink.
type NopSink struct{}

func (NopSink) OrderAccepted(*Order)        {}
func (NopSink) OrderRejected(uint64, error) {}
func (NopSink) OrderCanceled(uint64)        {}
func (NopSink) TradeExecuted(Trade)         {}

// Allocator supplies Order storage. The default allocator heap-allocates;
// the service layer plugs in a pooled allocator so retired orders are
// recycled once snapshot readers can no longer observe them.
type Allocator interface {
	Get() *Order
	Retire(*Order)
}

type heapAllocator struct{}

func (heapAllocator) Get() *Order   { return &Order{} }
func (heapAllocator) Retire(*Order) {}
