package service

import (
	"encoding/json"
	"fmt"

	"njord/domain/book"
)

// Op discriminates command payloads on the wire and in the WAL.
const (
	OpPlace  = "place"
	OpCancel = "cancel"
	OpModify = "modify"
)

// Command is the one payload format shared by the Kafka command topic
// and the entry WAL, so a WAL record replays exactly like a consumed
// message.
type Command struct {
	Op      string `json:"op"`
	OrderID uint64 `json:"order_id"`
	Type    string `json:"type,omitempty"` // GTC | FAK, place only
	Side    string `json:"side,omitempty"` // buy | sell
	Price   int64  `json:"price,omitempty"`
	Qty     int64  `json:"qty,omitempty"`
}

func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return c, nil
}

func (c Command) side() (book.Side, error) {
	switch c.Side {
	case "buy":
		return book.Buy, nil
	case "sell":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", c.Side)
	}
}

func (c Command) orderType() (book.OrderType, error) {
	switch c.Type {
	case "GTC":
		return book.GoodTillCancel, nil
	case "FAK":
		return book.FillAndKill, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", c.Type)
	}
}

// SideString and TypeString render book enums for the wire.
func SideString(s book.Side) string {
	if s == book.Buy {
		return "buy"
	}
	return "sell"
}

func TypeString(t book.OrderType) string {
	if t == book.FillAndKill {
		return "FAK"
	}
	return "GTC"
}
