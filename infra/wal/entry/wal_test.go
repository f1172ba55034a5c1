package entry

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWALAppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 1 << 20, SegmentDuration: time.Minute})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}

	const n = 100
	for i := 1; i <= n; i++ {
		rec := NewRecord(RecordPlace, uint64(i), []byte(fmt.Sprintf("cmd-%d", i)))
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		if i%20 == 0 {
			_ = w.Sync()
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	count := 0
	lastSeq, err := Replay(dir, func(rec *Record) error {
		if rec.Type != RecordPlace {
			t.Fatalf("unexpected record type: %v", rec.Type)
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != n {
		t.Fatalf("expected %d records, got %d", n, count)
	}
	if lastSeq != n {
		t.Fatalf("expected last seq %d, got %d", n, lastSeq)
	}
}

func TestWALRotationBySize(t *testing.T) {
	dir := t.TempDir()

	// Tiny segment size forces a rotation on almost every append.
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	for i := 1; i <= 10; i++ {
		if err := w.Append(NewRecord(RecordCancel, uint64(i), []byte("x"))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = w.Close()

	var seqs []uint64
	if _, err := Replay(dir, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	}); err != nil {
		t.Fatalf("replay across segments: %v", err)
	}
	if len(seqs) != 10 {
		t.Fatalf("expected 10 records across segments, got %d", len(seqs))
	}
	for i, s := range seqs {
		if s != uint64(i+1) {
			t.Fatalf("replay out of order at %d: got seq %d", i, s)
		}
	}
}

func TestWALReopenContinues(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir, SegmentSize: 1 << 20}

	w, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = w.Append(NewRecord(RecordPlace, 1, []byte("a")))
	_ = w.Close()

	w, err = Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = w.Append(NewRecord(RecordPlace, 2, []byte("b")))
	_ = w.Close()

	count := 0
	if _, err := Replay(dir, func(*Record) error { count++; return nil }); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both records after reopen, got %d", count)
	}
}

func TestWALTruncateBefore(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 1; i <= 10; i++ {
		_ = w.Append(NewRecord(RecordPlace, uint64(i), []byte("payload")))
	}
	if err := w.TruncateBefore(5); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	_ = w.Close()

	if _, err := Replay(dir, func(rec *Record) error {
		if rec.Seq <= 4 {
			t.Fatalf("seq %d should have been truncated", rec.Seq)
		}
		return nil
	}); err != nil {
		t.Fatalf("replay after truncate: %v", err)
	}
}

func TestReplayRejectsOversizedLength(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := w.Append(NewRecord(RecordPlace, 1, []byte("ok"))); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = w.Close()

	// Corrupt frame claiming a multi-gigabyte payload. Replay must
	// report corruption without attempting the allocation.
	header := make([]byte, 21)
	header[0] = byte(RecordPlace)
	binary.BigEndian.PutUint64(header[1:9], 2)
	binary.BigEndian.PutUint64(header[9:17], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(header[17:21], 0xFFFFFFF0)

	path := filepath.Join(dir, "segment-000000.wal")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	if _, err := f.Write(append(header, []byte("junk")...)); err != nil {
		t.Fatalf("write corrupt frame: %v", err)
	}
	_ = f.Close()

	lastSeq, err := Replay(dir, func(*Record) error { return nil })
	if err == nil {
		t.Fatal("expected replay error for oversized length field")
	}
	if lastSeq != 1 {
		t.Fatalf("expected the intact record to survive, got last seq %d", lastSeq)
	}
}

func TestAppendRejectsOversizedPayload(t *testing.T) {
	w, err := Open(Config{Dir: t.TempDir(), SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	if err := w.Append(NewRecord(RecordPlace, 1, make([]byte, MaxRecordLen+1))); err == nil {
		t.Fatal("expected append rejection for oversized payload")
	}
}
