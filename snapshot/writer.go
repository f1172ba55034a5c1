package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"njord/domain/book"
)

type Writer struct {
	Dir string
}

// Write persists the current resting orders under seq. The file is
// written in place; a torn write is caught by the gob decoder on load
// and falls back to full WAL replay.
func (w *Writer) Write(seq uint64, b *book.Book) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(w.Dir, "snapshot.bin"))
	if err != nil {
		return err
	}
	defer f.Close()

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, b.Size()),
	}

	b.Scan(func(o *book.Order) {
		s.Orders = append(s.Orders, OrderEntry{
			ID:    o.ID,
			Side:  int(o.Side),
			Type:  int(o.Type),
			Price: o.Price,
			Qty:   o.Remaining,
		})
	})

	return gob.NewEncoder(f).Encode(&s)
}
