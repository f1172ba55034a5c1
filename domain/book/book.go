// Package book implements a single-instrument limit order book with
// strict price-time priority. The book is single-writer and
// deterministic: every command runs to completion, including any
// matching it triggers, before control returns to the caller.
package book

// Book composes the two price ladders with the order index. It
// exclusively owns every live Order; nothing outside the package holds
// references into the ladders.
type Book struct {
	bids *ladder
	asks *ladder

	// order index: id -> live order. The order's intrusive links are
	// its position handle inside its level, so cancel is O(1).
	orders map[uint64]*Order

	alloc Allocator
	sink  EventSink
}

type Option func(*Book)

// WithSink routes facade events to sink instead of discarding them.
func WithSink(sink EventSink) Option {
	return func(b *Book) { b.sink = sink }
}

// WithAllocator sources Order storage from alloc.
func WithAllocator(alloc Allocator) Option {
	return func(b *Book) { b.alloc = alloc }
}

func New(opts ...Option) *Book {
	b := &Book{
		bids:   newLadder(Buy),
		asks:   newLadder(Sell),
		orders: make(map[uint64]*Order),
		alloc:  heapAllocator{},
		sink:   NopSink{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddOrder admits a new order and runs matching. Soft rejections
// (duplicate id, FAK without an immediate cross, non-positive price or
// quantity) return a sentinel error and leave the book untouched.
// ErrOverfill reports internal corruption and poisons the book.
func (b *Book) AddOrder(typ OrderType, id uint64, side Side, price, qty int64) ([]Trade, error) {
	if price <= 0 || qty <= 0 {
		b.sink.OrderRejected(id, ErrInvalidOrder)
		return nil, ErrInvalidOrder
	}
	if _, ok := b.orders[id]; ok {
		b.sink.OrderRejected(id, ErrDuplicateOrder)
		return nil, ErrDuplicateOrder
	}
	if typ == FillAndKill && !b.canMatch(side, price) {
		b.sink.OrderRejected(id, ErrNoImmediateMatch)
		return nil, ErrNoImmediateMatch
	}

	o := b.alloc.Get()
	*o = Order{
		ID:        id,
		Side:      side,
		Type:      typ,
		Price:     price,
		Initial:   qty,
		Remaining: qty,
	}

	b.side(side).getOrCreate(price).Enqueue(o)
	b.orders[id] = o
	b.sink.OrderAccepted(o)

	return b.match()
}

// CancelOrder removes a resting order. Unknown ids are a soft
// rejection, reported but harmless.
func (b *Book) CancelOrder(id uint64) error {
	o, ok := b.orders[id]
	if !ok {
		b.sink.OrderRejected(id, ErrOrderNotFound)
		return ErrOrderNotFound
	}
	b.cancel(o)
	return nil
}

// ModifyOrder is cancel-then-readd: the order keeps its id and original
// type but loses queue position, and the re-add can trigger new
// matches. Unknown ids are a soft rejection.
func (b *Book) ModifyOrder(id uint64, side Side, price, qty int64) ([]Trade, error) {
	// Validated up front: a soft rejection must leave the resting
	// order exactly as it was, so the cancel may only run once the
	// re-add is known to be admissible.
	if price <= 0 || qty <= 0 {
		b.sink.OrderRejected(id, ErrInvalidOrder)
		return nil, ErrInvalidOrder
	}
	o, ok := b.orders[id]
	if !ok {
		b.sink.OrderRejected(id, ErrOrderNotFound)
		return nil, ErrOrderNotFound
	}
	typ := o.Type
	b.cancel(o)
	return b.AddOrder(typ, id, side, price, qty)
}

// Size is the count of live resting orders.
func (b *Book) Size() int {
	return len(b.orders)
}

// LevelInfo is one row of the aggregate depth view.
type LevelInfo struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Levels returns the aggregate remaining quantity per price, bids
// descending and asks ascending. The view is a copy; it never exposes
// book internals.
func (b *Book) Levels() (bids, asks []LevelInfo) {
	bids = make([]LevelInfo, 0, b.bids.len())
	asks = make([]LevelInfo, 0, b.asks.len())
	b.bids.walk(func(lvl *PriceLevel) {
		bids = append(bids, LevelInfo{Price: lvl.Price, Quantity: lvl.TotalQty})
	})
	b.asks.walk(func(lvl *PriceLevel) {
		asks = append(asks, LevelInfo{Price: lvl.Price, Quantity: lvl.TotalQty})
	})
	return bids, asks
}

// Scan visits every resting order, bids best-first then asks
// best-first. Orders must be treated as read-only.
func (b *Book) Scan(fn func(*Order)) {
	b.bids.walk(func(lvl *PriceLevel) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			fn(o)
		}
	})
	b.asks.walk(func(lvl *PriceLevel) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			fn(o)
		}
	})
}

// BestBid returns the best bid level price, ok=false when the side is
// empty.
func (b *Book) BestBid() (int64, bool) {
	lvl := b.bids.best()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// BestAsk returns the best ask level price, ok=false when the side is
// empty.
func (b *Book) BestAsk() (int64, bool) {
	lvl := b.asks.best()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

func (b *Book) side(s Side) *ladder {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// canMatch reports whether an order at price would cross the opposite
// side's best level right now.
func (b *Book) canMatch(side Side, price int64) bool {
	if side == Buy {
		best := b.asks.best()
		return best != nil && price >= best.Price
	}
	best := b.bids.best()
	return best != nil && price <= best.Price
}

// match runs the crossing loop until the book uncrosses, then applies
// the fill-and-kill eviction. It is invoked after every successful
// insertion.
func (b *Book) match() ([]Trade, error) {
	var trades []Trade

	for {
		bidLvl := b.bids.best()
		askLvl := b.asks.best()
		if bidLvl == nil || askLvl == nil || bidLvl.Price < askLvl.Price {
			break
		}

		for !bidLvl.Empty() && !askLvl.Empty() {
			bid := bidLvl.Head()
			ask := askLvl.Head()

			qty := min(bid.Remaining, ask.Remaining)

			if err := bid.Fill(qty); err != nil {
				return trades, err
			}
			if err := ask.Fill(qty); err != nil {
				return trades, err
			}
			bidLvl.reduce(qty)
			askLvl.reduce(qty)

			t := Trade{
				Bid: TradeInfo{OrderID: bid.ID, Price: bidLvl.Price, Quantity: qty},
				Ask: TradeInfo{OrderID: ask.ID, Price: askLvl.Price, Quantity: qty},
			}
			trades = append(trades, t)
			b.sink.TradeExecuted(t)

			if bid.IsFilled() {
				bidLvl.PopHead()
				b.unindex(bid)
			}
			if ask.IsFilled() {
				askLvl.PopHead()
				b.unindex(ask)
			}
		}

		if bidLvl.Empty() {
			b.bids.remove(bidLvl.Price)
		}
		if askLvl.Empty() {
			b.asks.remove(askLvl.Price)
		}
	}

	// A fill-and-kill order that only partially filled must not rest.
	// Inspects whichever order now fronts each best level, not the
	// order that was just submitted.
	if lvl := b.bids.best(); lvl != nil {
		if o := lvl.Head(); o != nil && o.Type == FillAndKill {
			b.cancel(o)
		}
	}
	if lvl := b.asks.best(); lvl != nil {
		if o := lvl.Head(); o != nil && o.Type == FillAndKill {
			b.cancel(o)
		}
	}

	return trades, nil
}

// cancel excises a live order from its level and the index.
func (b *Book) cancel(o *Order) {
	side := b.side(o.Side)
	lvl := side.getOrCreate(o.Price)
	lvl.Remove(o)
	if lvl.Empty() {
		side.remove(o.Price)
	}
	b.unindex(o)
	b.sink.OrderCanceled(o.ID)
}

func (b *Book) unindex(o *Order) {
	delete(b.orders, o.ID)
	b.alloc.Retire(o)
}
