package service

import (
	"context"
	"errors"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"njord/snapshot"
)

// Run is the single-writer loop. It pulls commands off the order
// topic one at a time and applies them; nothing else may mutate or
// traverse the book while it runs. Snapshot ticks are handled here
// too, between commands, so a snapshot never observes the book
// mid-mutation and never stamps a sequence whose command has not been
// applied. Soft rejections are logged and consumed, an overfill stops
// the loop so the operator can restart from the WAL.
func (s *OrderService) Run(ctx context.Context) error {
	msgs := make(chan segkafka.Message)
	readErr := make(chan error, 1)

	go func() {
		for {
			m, err := s.commands.ReadMessage(ctx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var snapTick <-chan time.Time
	if s.snapDir != "" && s.snapInterval > 0 {
		ticker := time.NewTicker(s.snapInterval)
		defer ticker.Stop()
		snapTick = ticker.C
	}
	snapWriter := &snapshot.Writer{Dir: s.snapDir}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err

		case <-snapTick:
			s.snapshotOnce(snapWriter)

		case msg := <-msgs:
			cmd, err := DecodeCommand(msg.Value)
			if err != nil {
				s.log.Warn("dropping malformed command",
					zap.ByteString("payload", msg.Value),
					zap.Error(err),
				)
				continue
			}
			if err := s.dispatch(cmd); err != nil {
				return err
			}
		}
	}
}

func (s *OrderService) dispatch(cmd Command) error {
	switch cmd.Op {
	case OpPlace:
		typ, err := cmd.orderType()
		if err != nil {
			s.log.Warn("dropping command", zap.Error(err))
			return nil
		}
		side, err := cmd.side()
		if err != nil {
			s.log.Warn("dropping command", zap.Error(err))
			return nil
		}
		_, _, err = s.PlaceOrder(typ, cmd.OrderID, side, cmd.Price, cmd.Qty)
		return ignoreSoft(err)

	case OpCancel:
		_, err := s.CancelOrder(cmd.OrderID)
		return ignoreSoft(err)

	case OpModify:
		side, err := cmd.side()
		if err != nil {
			s.log.Warn("dropping command", zap.Error(err))
			return nil
		}
		_, _, err = s.ModifyOrder(cmd.OrderID, side, cmd.Price, cmd.Qty)
		return ignoreSoft(err)

	default:
		s.log.Warn("dropping command with unknown op", zap.String("op", cmd.Op))
		return nil
	}
}
