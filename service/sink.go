package service

import (
	"encoding/json"

	"go.uber.org/zap"

	"njord/domain/book"
	"njord/infra/memory"
)

// poolAllocator feeds the book from the shared order pool and parks
// retired orders in the retire ring for epoch-safe recycling. A full
// ring leaks the order to the garbage collector rather than blocking
// the matching path.
type poolAllocator struct {
	pool *memory.Pool[book.Order]
	ring *memory.RetireRing
}

func (a poolAllocator) Get() *book.Order {
	return a.pool.Get()
}

func (a poolAllocator) Retire(o *book.Order) {
	_ = a.ring.Enqueue(o)
}

// zapSink is the audit trail: every accepted, rejected, canceled order
// and every execution is logged with structured fields. The book core
// itself never logs.
type zapSink struct {
	log *zap.Logger
}

func (s *zapSink) OrderAccepted(o *book.Order) {
	s.log.Info("order accepted",
		zap.Uint64("id", o.ID),
		zap.String("side", SideString(o.Side)),
		zap.String("type", TypeString(o.Type)),
		zap.Int64("price", o.Price),
		zap.Int64("qty", o.Initial),
	)
}

func (s *zapSink) OrderRejected(id uint64, reason error) {
	s.log.Info("order rejected",
		zap.Uint64("id", id),
		zap.String("reason", reason.Error()),
	)
}

func (s *zapSink) OrderCanceled(id uint64) {
	s.log.Info("order canceled", zap.Uint64("id", id))
}

func (s *zapSink) TradeExecuted(t book.Trade) {
	s.log.Info("trade executed",
		zap.Uint64("bid_id", t.Bid.OrderID),
		zap.Int64("bid_price", t.Bid.Price),
		zap.Uint64("ask_id", t.Ask.OrderID),
		zap.Int64("ask_price", t.Ask.Price),
		zap.Int64("qty", t.Quantity()),
	)
}

func encodeTrade(t book.Trade) ([]byte, error) {
	return json.Marshal(t)
}
