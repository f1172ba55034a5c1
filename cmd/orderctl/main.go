// orderctl submits commands onto the engine's order topic. It is a
// development tool: place, cancel, or modify a single order, or flood
// the topic with generated resting orders.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"strings"
	"time"

	"njord/infra/kafka"
	"njord/service"
)

func main() {
	var (
		brokers = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic   = flag.String("topic", "orders", "order command topic")
		op      = flag.String("op", "place", "operation: place | cancel | modify | flood")
		id      = flag.Uint64("id", 0, "order id")
		typ     = flag.String("type", "GTC", "order type: GTC | FAK")
		side    = flag.String("side", "buy", "order side: buy | sell")
		price   = flag.Int64("price", 0, "limit price in ticks")
		qty     = flag.Int64("qty", 0, "quantity in lots")
		count   = flag.Int("count", 1000, "orders to generate in flood mode")
		mid     = flag.Int64("mid", 10000, "flood mid price in ticks")
		spread  = flag.Int64("spread", 50, "flood half-spread in ticks")
		delay   = flag.Duration("delay", 10*time.Millisecond, "delay between flood orders")
	)
	flag.Parse()

	producer := kafka.NewProducer(strings.Split(*brokers, ","), *topic)
	defer producer.Close()

	ctx := context.Background()

	switch *op {
	case "place", "cancel", "modify":
		cmd := service.Command{
			Op:      *op,
			OrderID: *id,
			Side:    *side,
			Price:   *price,
			Qty:     *qty,
		}
		if *op == "place" {
			cmd.Type = *typ
		}
		if *op == "cancel" {
			cmd.Side, cmd.Price, cmd.Qty = "", 0, 0
		}
		send(ctx, producer, cmd)
		log.Printf("sent %s for order %d", *op, *id)

	case "flood":
		flood(ctx, producer, *count, *mid, *spread, *delay)

	default:
		log.Fatalf("unknown op %q", *op)
	}
}

func send(ctx context.Context, p *kafka.Producer, cmd service.Command) {
	payload, err := cmd.Encode()
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}
	if err := p.Send(ctx, nil, payload); err != nil {
		log.Fatalf("send failed: %v", err)
	}
}

// flood generates resting GTC orders around mid: bids below, asks
// above, so the book fills without trading against itself.
func flood(ctx context.Context, p *kafka.Producer, count int, mid, spread int64, delay time.Duration) {
	log.Printf("flooding %d orders around %d", count, mid)

	for i := 0; i < count; i++ {
		cmd := service.Command{
			Op:      service.OpPlace,
			OrderID: uint64(i + 1),
			Type:    "GTC",
			Qty:     1 + rand.Int63n(100),
		}
		if rand.Intn(2) == 0 {
			cmd.Side = "buy"
			cmd.Price = mid - 1 - rand.Int63n(spread)
		} else {
			cmd.Side = "sell"
			cmd.Price = mid + 1 + rand.Int63n(spread)
		}
		send(ctx, p, cmd)

		if (i+1)%100 == 0 {
			log.Printf("sent %d/%d", i+1, count)
		}
		time.Sleep(delay)
	}

	log.Printf("done")
}
