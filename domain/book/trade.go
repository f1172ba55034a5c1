package book

// TradeInfo is one side of an execution. Price is the resting price of
// that side's own order, not a single clearing price; the asymmetry is
// part of the reporting contract.
type TradeInfo struct {
	OrderID  uint64 `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// Trade is an immutable record of one match. Bid and Ask quantities are
// always equal.
type Trade struct {
	Bid TradeInfo `json:"bid"`
	Ask TradeInfo `json:"ask"`
}

func (t Trade) Quantity() int64 {
	return t.Bid.Quantity
}
