package service

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"njord/domain/book"
	"njord/infra/memory"
	"njord/infra/sequence"
	"njord/infra/wal/entry"
	"njord/infra/wal/outbox"
	"njord/snapshot"
)

type testEnv struct {
	svc     *OrderService
	wal     *entry.WAL
	outbox  *outbox.Outbox
	walDir  string
	obDir   string
	snapDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		walDir:  t.TempDir(),
		obDir:   t.TempDir(),
		snapDir: t.TempDir(),
	}
	e.open(t)
	return e
}

func (e *testEnv) open(t *testing.T) {
	t.Helper()

	wal, err := entry.Open(entry.Config{
		Dir:             e.walDir,
		SegmentSize:     1 << 20,
		SegmentDuration: time.Hour,
	})
	require.NoError(t, err)

	ob, err := outbox.Open(e.obDir)
	require.NoError(t, err)

	e.wal = wal
	e.outbox = ob
	e.svc = New(Deps{
		Pool:      memory.NewPool(func() *book.Order { return &book.Order{} }),
		Ring:      memory.NewRetireRing(1 << 10),
		Reader:    snapshot.NewReader(),
		Sequencer: sequence.New(0),
		WAL:       wal,
		Outbox:    ob,
		Log:       zap.NewNop(),
	})
}

func (e *testEnv) close(t *testing.T) {
	t.Helper()
	require.NoError(t, e.wal.Close())
	require.NoError(t, e.outbox.Close())
}

func TestPlaceJournalsAndQueuesTrades(t *testing.T) {
	e := newTestEnv(t)
	defer e.close(t)

	_, seq1, err := e.svc.PlaceOrder(book.GoodTillCancel, 1, book.Buy, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq1)

	trades, seq2, err := e.svc.PlaceOrder(book.GoodTillCancel, 2, book.Sell, 100, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq2)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(4), trades[0].Quantity())

	// Both commands are journaled, executed or not.
	var recs int
	lastSeq, err := entry.Replay(e.walDir, func(*entry.Record) error {
		recs++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, recs)
	assert.Equal(t, uint64(2), lastSeq)

	// The trade waits on the outbox for the broadcaster.
	var pending int
	require.NoError(t, e.outbox.ScanPending(func(r *outbox.Record) error {
		pending++
		assert.Equal(t, uint64(2), r.Seq)
		return nil
	}))
	assert.Equal(t, 1, pending)
}

func TestRejectedPlaceIsStillJournaled(t *testing.T) {
	e := newTestEnv(t)
	defer e.close(t)

	_, _, err := e.svc.PlaceOrder(book.FillAndKill, 1, book.Buy, 100, 10)
	require.ErrorIs(t, err, book.ErrNoImmediateMatch)

	var recs int
	_, err = entry.Replay(e.walDir, func(*entry.Record) error {
		recs++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, recs)
	assert.Equal(t, 0, e.svc.Size())
}

func TestRecoverReplaysWAL(t *testing.T) {
	e := newTestEnv(t)

	_, _, err := e.svc.PlaceOrder(book.GoodTillCancel, 1, book.Buy, 100, 10)
	require.NoError(t, err)
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 2, book.Buy, 101, 5)
	require.NoError(t, err)
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 3, book.Sell, 105, 7)
	require.NoError(t, err)
	_, err = e.svc.CancelOrder(2)
	require.NoError(t, err)
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 4, book.Sell, 100, 6)
	require.NoError(t, err)

	wantBids, wantAsks := e.svc.Depth()
	wantSize := e.svc.Size()

	e.close(t)
	e.open(t)
	defer e.close(t)

	require.NoError(t, e.svc.Recover(e.snapDir, e.walDir))

	bids, asks := e.svc.Depth()
	assert.Equal(t, wantBids, bids)
	assert.Equal(t, wantAsks, asks)
	assert.Equal(t, wantSize, e.svc.Size())

	// Sequencing resumes after the last journaled command.
	_, seq, err := e.svc.PlaceOrder(book.GoodTillCancel, 10, book.Buy, 90, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), seq)
}

func TestRecoverUsesSnapshotAndTail(t *testing.T) {
	e := newTestEnv(t)

	_, _, err := e.svc.PlaceOrder(book.GoodTillCancel, 1, book.Buy, 100, 10)
	require.NoError(t, err)
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 2, book.Sell, 110, 8)
	require.NoError(t, err)

	e.svc.snapshotOnce(&snapshot.Writer{Dir: e.snapDir})

	// Tail commands after the snapshot.
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 3, book.Buy, 99, 3)
	require.NoError(t, err)
	_, err = e.svc.CancelOrder(1)
	require.NoError(t, err)

	wantBids, wantAsks := e.svc.Depth()

	e.close(t)
	e.open(t)
	defer e.close(t)

	require.NoError(t, e.svc.Recover(e.snapDir, e.walDir))

	bids, asks := e.svc.Depth()
	assert.Equal(t, wantBids, bids)
	assert.Equal(t, wantAsks, asks)
}

func TestSnapshotCoversEveryClaimedSequence(t *testing.T) {
	e := newTestEnv(t)

	_, _, err := e.svc.PlaceOrder(book.GoodTillCancel, 1, book.Buy, 100, 10)
	require.NoError(t, err)
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 2, book.Sell, 105, 8)
	require.NoError(t, err)
	_, _, err = e.svc.PlaceOrder(book.GoodTillCancel, 3, book.Buy, 99, 3)
	require.NoError(t, err)

	e.svc.snapshotOnce(&snapshot.Writer{Dir: e.snapDir})

	wantBids, wantAsks := e.svc.Depth()

	e.close(t)

	// Recovery skips WAL records at or below the snapshot sequence,
	// so the snapshot alone must reproduce every command it claims to
	// cover. Deleting the WAL makes any gap visible.
	require.NoError(t, os.RemoveAll(e.walDir))
	e.open(t)
	defer e.close(t)

	require.NoError(t, e.svc.Recover(e.snapDir, e.walDir))

	bids, asks := e.svc.Depth()
	assert.Equal(t, wantBids, bids)
	assert.Equal(t, wantAsks, asks)

	// Sequencing resumes past the snapshot even with no WAL tail.
	_, seq, err := e.svc.PlaceOrder(book.GoodTillCancel, 9, book.Buy, 90, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), seq)
}

func TestDispatchAppliesCommands(t *testing.T) {
	e := newTestEnv(t)
	defer e.close(t)

	require.NoError(t, e.svc.dispatch(Command{
		Op: OpPlace, OrderID: 1, Type: "GTC", Side: "buy", Price: 100, Qty: 10,
	}))
	require.NoError(t, e.svc.dispatch(Command{
		Op: OpModify, OrderID: 1, Side: "buy", Price: 101, Qty: 10,
	}))
	require.NoError(t, e.svc.dispatch(Command{
		Op: OpCancel, OrderID: 1,
	}))
	assert.Equal(t, 0, e.svc.Size())

	// Malformed fields drop the command instead of stopping the loop.
	require.NoError(t, e.svc.dispatch(Command{
		Op: OpPlace, OrderID: 2, Type: "IOC", Side: "buy", Price: 100, Qty: 10,
	}))
	require.NoError(t, e.svc.dispatch(Command{Op: "noop"}))
	assert.Equal(t, 0, e.svc.Size())
}

func TestDispatchConsumesSoftRejects(t *testing.T) {
	e := newTestEnv(t)
	defer e.close(t)

	require.NoError(t, e.svc.dispatch(Command{Op: OpCancel, OrderID: 42}))
	require.NoError(t, e.svc.dispatch(Command{
		Op: OpPlace, OrderID: 7, Type: "FAK", Side: "sell", Price: 100, Qty: 1,
	}))
}

func TestOrdersReturnsCopies(t *testing.T) {
	e := newTestEnv(t)
	defer e.close(t)

	_, _, err := e.svc.PlaceOrder(book.GoodTillCancel, 1, book.Buy, 100, 10)
	require.NoError(t, err)

	orders := e.svc.Orders()
	require.Len(t, orders, 1)
	orders[0].Remaining = 0

	bids, _ := e.svc.Depth()
	require.Len(t, bids, 1)
	assert.Equal(t, int64(10), bids[0].Quantity)
}
