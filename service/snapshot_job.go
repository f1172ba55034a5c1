package service

import (
	"go.uber.org/zap"

	"njord/snapshot"
)

// snapshotOnce persists the resting book and trims the logs behind it:
// WAL segments fully covered by the snapshot and acknowledged outbox
// records up to its sequence.
//
// It runs on the writer goroutine, between commands, so the book is
// quiescent and the stamped sequence covers exactly the commands whose
// effects the snapshot contains. Recovery skips WAL records at or below
// that sequence, which is only sound under this discipline.
func (s *OrderService) snapshotOnce(w *snapshot.Writer) {
	seq := s.seqGen.Current()

	if err := w.Write(seq, s.book); err != nil {
		s.log.Warn("snapshot write failed", zap.Error(err))
		return
	}

	if err := s.wal.TruncateBefore(seq); err != nil {
		s.log.Warn("wal truncate failed", zap.Error(err))
	}
	if err := s.outbox.TruncateAckedUpTo(seq); err != nil {
		s.log.Warn("outbox truncate failed", zap.Error(err))
	}

	s.log.Info("snapshot written",
		zap.Uint64("seq", seq),
		zap.Int("resting_orders", s.book.Size()),
	)
}
