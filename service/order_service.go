package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"njord/domain/book"
	"njord/infra/kafka"
	"njord/infra/memory"
	"njord/infra/sequence"
	"njord/infra/wal/entry"
	"njord/infra/wal/outbox"
	"njord/snapshot"
)

// OrderService is the only write entry point into the engine. It owns
// the book and serializes every mutation through the caller's single
// goroutine: WAL append, book command, outbox insert, in that order.
type OrderService struct {
	book     *book.Book
	pool     *memory.Pool[book.Order]
	ring     *memory.RetireRing
	reader   *snapshot.Reader
	seqGen   *sequence.Sequencer
	wal      *entry.WAL
	outbox   *outbox.Outbox
	commands *kafka.Reader
	log      *zap.Logger

	snapDir      string
	snapInterval time.Duration
}

type Deps struct {
	Pool      *memory.Pool[book.Order]
	Ring      *memory.RetireRing
	Reader    *snapshot.Reader
	Sequencer *sequence.Sequencer
	WAL       *entry.WAL
	Outbox    *outbox.Outbox
	Commands  *kafka.Reader
	Log       *zap.Logger

	// Snapshot ticks are serviced by Run between commands; leaving
	// either field zero disables periodic snapshots.
	SnapshotDir      string
	SnapshotInterval time.Duration
}

func New(d Deps) *OrderService {
	s := &OrderService{
		pool:         d.Pool,
		ring:         d.Ring,
		reader:       d.Reader,
		seqGen:       d.Sequencer,
		wal:          d.WAL,
		outbox:       d.Outbox,
		commands:     d.Commands,
		log:          d.Log,
		snapDir:      d.SnapshotDir,
		snapInterval: d.SnapshotInterval,
	}
	s.book = book.New(
		book.WithAllocator(poolAllocator{pool: d.Pool, ring: d.Ring}),
		book.WithSink(&zapSink{log: d.Log}),
	)
	return s
}

// Book exposes the underlying facade for read-only queries.
func (s *OrderService) Book() *book.Book {
	return s.book
}

// PlaceOrder journals and executes one add command. The returned
// sequence orders the command in the WAL; trades are also queued on
// the outbox for publication.
func (s *OrderService) PlaceOrder(typ book.OrderType, id uint64, side book.Side, price, qty int64) ([]book.Trade, uint64, error) {
	seq := s.seqGen.Next()

	cmd := Command{
		Op:      OpPlace,
		OrderID: id,
		Type:    TypeString(typ),
		Side:    SideString(side),
		Price:   price,
		Qty:     qty,
	}
	if err := s.journal(entry.RecordPlace, seq, cmd); err != nil {
		return nil, seq, err
	}

	trades, err := s.book.AddOrder(typ, id, side, price, qty)
	if err != nil {
		return nil, seq, s.classify(err)
	}

	return trades, seq, s.enqueueTrades(seq, trades)
}

// CancelOrder journals and executes one cancel. Unknown ids propagate
// as book.ErrOrderNotFound, already logged by the sink.
func (s *OrderService) CancelOrder(id uint64) (uint64, error) {
	seq := s.seqGen.Next()

	cmd := Command{Op: OpCancel, OrderID: id}
	if err := s.journal(entry.RecordCancel, seq, cmd); err != nil {
		return seq, err
	}

	return seq, s.classify(s.book.CancelOrder(id))
}

// ModifyOrder journals and executes one modify (cancel-then-readd; the
// order keeps its type, loses its queue position).
func (s *OrderService) ModifyOrder(id uint64, side book.Side, price, qty int64) ([]book.Trade, uint64, error) {
	seq := s.seqGen.Next()

	cmd := Command{
		Op:      OpModify,
		OrderID: id,
		Side:    SideString(side),
		Price:   price,
		Qty:     qty,
	}
	if err := s.journal(entry.RecordModify, seq, cmd); err != nil {
		return nil, seq, err
	}

	trades, err := s.book.ModifyOrder(id, side, price, qty)
	if err != nil {
		return nil, seq, s.classify(err)
	}

	return trades, seq, s.enqueueTrades(seq, trades)
}

// Size reports the count of live resting orders.
func (s *OrderService) Size() int {
	return s.book.Size()
}

// Depth returns the aggregate per-price view, bids then asks, taken
// under a read epoch.
func (s *OrderService) Depth() (bids, asks []book.LevelInfo) {
	s.reader.Begin()
	defer s.reader.End()
	return s.book.Levels()
}

// Orders returns a copy of every resting order under a read epoch.
func (s *OrderService) Orders() []book.Order {
	s.reader.Begin()
	defer s.reader.End()

	out := make([]book.Order, 0, s.book.Size())
	s.book.Scan(func(o *book.Order) {
		out = append(out, *o)
	})
	return out
}

// AdvanceEpoch runs one reclamation pass. Called periodically by a
// background job.
func (s *OrderService) AdvanceEpoch() {
	memory.AdvanceEpochAndReclaim(s.ring, s.pool, s.reader.Epoch())
}

func (s *OrderService) journal(t entry.RecordType, seq uint64, cmd Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	if err := s.wal.Append(entry.NewRecord(t, seq, data)); err != nil {
		return fmt.Errorf("wal append: %w", err)
	}
	if err := s.wal.Sync(); err != nil {
		return fmt.Errorf("wal sync: %w", err)
	}
	return nil
}

func (s *OrderService) enqueueTrades(seq uint64, trades []book.Trade) error {
	for i, t := range trades {
		payload, err := encodeTrade(t)
		if err != nil {
			return err
		}
		if err := s.outbox.Put(seq, uint32(i), payload); err != nil {
			return fmt.Errorf("outbox put: %w", err)
		}
	}
	return nil
}

// classify escalates overfill to a fatal log before propagating; soft
// rejections pass through untouched (the sink already reported them).
func (s *OrderService) classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, book.ErrOverfill) {
		s.log.Error("book corrupted, restart required", zap.Error(err))
	}
	return err
}
