package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"njord/domain/book"
)

// Load restores resting orders into an empty book and returns the
// snapshot's sequence. A missing snapshot is not an error: recovery
// then replays the full WAL.
func Load(dir string, b *book.Book) (uint64, error) {
	f, err := os.Open(filepath.Join(dir, "snapshot.bin"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, err
	}

	for _, e := range s.Orders {
		// Snapshots only hold resting orders, which never cross, so
		// re-adding them produces no trades.
		if _, err := b.AddOrder(book.OrderType(e.Type), e.ID, book.Side(e.Side), e.Price, e.Qty); err != nil {
			return 0, err
		}
	}

	return s.Seq, nil
}
