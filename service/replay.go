package service

import (
	"fmt"

	"go.uber.org/zap"

	"njord/domain/book"
	"njord/infra/wal/entry"
	"njord/snapshot"
)

// Recover rebuilds book state before the service accepts traffic. It
// loads the latest snapshot, replays the WAL tail past the snapshot
// sequence, and resumes the sequencer after the last journaled
// command. The outbox is not replayed; unpublished trades already
// persisted there are drained by the broadcaster.
//
// Commands are journaled before execution, so the WAL also holds
// commands the book rejected. Replay tolerates the same soft
// rejections live traffic does and fails on anything else.
func (s *OrderService) Recover(snapDir, walDir string) error {
	snapSeq, err := snapshot.Load(snapDir, s.book)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	lastSeq, err := entry.Replay(walDir, func(rec *entry.Record) error {
		if rec.Seq <= snapSeq {
			// Already folded into the snapshot.
			return nil
		}
		return s.apply(rec)
	})
	if err != nil {
		return fmt.Errorf("wal replay: %w", err)
	}

	if lastSeq < snapSeq {
		lastSeq = snapSeq
	}
	s.seqGen.Reset(lastSeq)

	s.log.Info("recovery complete",
		zap.Uint64("snapshot_seq", snapSeq),
		zap.Uint64("last_seq", lastSeq),
		zap.Int("resting_orders", s.book.Size()),
	)
	return nil
}

func (s *OrderService) apply(rec *entry.Record) error {
	cmd, err := DecodeCommand(rec.Data)
	if err != nil {
		return err
	}

	switch rec.Type {
	case entry.RecordPlace:
		typ, err := cmd.orderType()
		if err != nil {
			return err
		}
		side, err := cmd.side()
		if err != nil {
			return err
		}
		_, err = s.book.AddOrder(typ, cmd.OrderID, side, cmd.Price, cmd.Qty)
		return ignoreSoft(err)

	case entry.RecordCancel:
		return ignoreSoft(s.book.CancelOrder(cmd.OrderID))

	case entry.RecordModify:
		side, err := cmd.side()
		if err != nil {
			return err
		}
		_, err = s.book.ModifyOrder(cmd.OrderID, side, cmd.Price, cmd.Qty)
		return ignoreSoft(err)

	default:
		return fmt.Errorf("unknown record type %d at seq %d", rec.Type, rec.Seq)
	}
}

func ignoreSoft(err error) error {
	if book.IsSoftReject(err) {
		return nil
	}
	return err
}
