// Package outbox is the durable trade outbox. Every trade the engine
// produces is written here before anything is published; the
// broadcaster drains it with at-least-once semantics, walking each
// record through NEW -> SENT -> ACKED.
package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Record is one outbox entry keyed by the sequence of the command that
// produced it plus the trade's index within that command.
type Record struct {
	Seq         uint64
	Index       uint32
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r *Record) []byte {
	buf := make([]byte, 1+4+8+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[13:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (*Record, error) {
	if len(b) < 13 {
		return nil, errors.New("outbox: record too short")
	}
	return &Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[13:]...),
	}, nil
}

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // durability is the whole point
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Put inserts a NEW entry. Called by the order service in the same
// logical step that produced the trade.
func (o *Outbox) Put(seq uint64, index uint32, payload []byte) error {
	rec := &Record{State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq, index), encodeRecord(rec), pebble.Sync)
}

func (o *Outbox) MarkSent(seq uint64, index uint32) error {
	return o.transition(seq, index, StateSent)
}

func (o *Outbox) MarkAcked(seq uint64, index uint32) error {
	return o.transition(seq, index, StateAcked)
}

func (o *Outbox) transition(seq uint64, index uint32, state State) error {
	key := keyFor(seq, index)
	rec, err := o.get(key)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries++
	rec.LastAttempt = time.Now().UnixNano()
	return o.db.Set(key, encodeRecord(rec), pebble.Sync)
}

func (o *Outbox) Get(seq uint64, index uint32) (*Record, error) {
	return o.get(keyFor(seq, index))
}

func (o *Outbox) get(key []byte) (*Record, error) {
	val, closer, err := o.db.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	rec, err := decodeRecord(val)
	if err != nil {
		return nil, err
	}
	rec.Seq, rec.Index, err = parseKey(key)
	return rec, err
}

// ScanPending visits every non-ACKED record in key order. Returning an
// error from fn aborts the scan.
func (o *Outbox) ScanPending(fn func(*Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State == StateAcked {
			continue
		}
		if rec.Seq, rec.Index, err = parseKey(iter.Key()); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// TruncateAckedUpTo deletes ACKED records with seq <= upTo. Runs from
// the snapshot job once the covering snapshot is durable.
func (o *Outbox) TruncateAckedUpTo(upTo uint64) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		seq, _, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if seq > upTo {
			break
		}
		if rec.State == StateAcked {
			key := append([]byte(nil), iter.Key()...)
			if err := o.db.Delete(key, pebble.Sync); err != nil {
				return err
			}
		}
	}
	return iter.Error()
}

const keyPrefix = "trade/"

func keyFor(seq uint64, index uint32) []byte {
	return []byte(fmt.Sprintf("%s%020d/%06d", keyPrefix, seq, index))
}

func parseKey(b []byte) (seq uint64, index uint32, err error) {
	_, err = fmt.Sscanf(string(b), keyPrefix+"%d/%d", &seq, &index)
	return seq, index, err
}
