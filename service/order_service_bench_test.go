package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"njord/domain/book"
	"njord/infra/memory"
	"njord/infra/sequence"
	"njord/infra/wal/entry"
	"njord/infra/wal/outbox"
	"njord/snapshot"
)

func benchService(b *testing.B) *OrderService {
	b.Helper()

	wal, err := entry.Open(entry.Config{
		Dir:             b.TempDir(),
		SegmentSize:     64 << 20,
		SegmentDuration: time.Hour,
	})
	if err != nil {
		b.Fatal(err)
	}
	ob, err := outbox.Open(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		_ = wal.Close()
		_ = ob.Close()
	})

	return New(Deps{
		Pool:      memory.NewPool(func() *book.Order { return &book.Order{} }),
		Ring:      memory.NewRetireRing(1 << 12),
		Reader:    snapshot.NewReader(),
		Sequencer: sequence.New(0),
		WAL:       wal,
		Outbox:    ob,
		Log:       zap.NewNop(),
	})
}

func BenchmarkPlaceOrderResting(b *testing.B) {
	svc := benchService(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Alternating non-crossing sides keeps the book resting.
		if i%2 == 0 {
			_, _, _ = svc.PlaceOrder(book.GoodTillCancel, uint64(i+1), book.Buy, 100, 1)
		} else {
			_, _, _ = svc.PlaceOrder(book.GoodTillCancel, uint64(i+1), book.Sell, 200, 1)
		}
	}
}

func BenchmarkPlaceOrderMatching(b *testing.B) {
	svc := benchService(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := uint64(i*2 + 1)
		_, _, _ = svc.PlaceOrder(book.GoodTillCancel, id, book.Buy, 100, 1)
		_, _, _ = svc.PlaceOrder(book.GoodTillCancel, id+1, book.Sell, 100, 1)
	}
}
