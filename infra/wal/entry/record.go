package entry

import "time"

// MaxRecordLen bounds one record's payload. Commands are small JSON
// documents; a length field beyond this is corruption, not data, and
// must not drive an allocation.
const MaxRecordLen = 1 << 20

type RecordType uint8

const (
	RecordPlace RecordType = iota
	RecordCancel
	RecordModify
)

// Record is one durable command. Data carries the JSON-encoded command
// payload; the WAL does not interpret it.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
