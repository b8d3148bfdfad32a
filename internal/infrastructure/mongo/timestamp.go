package mongo

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Timestamp is a time field tolerant of the encodings older records carry:
// BSON datetime, BSON timestamp, RFC 3339 strings and epoch milliseconds.
// It is always written back as a BSON datetime.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func timestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := NewTimestamp(*t)
	return &ts
}

func (t *Timestamp) TimePtr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Time.UTC())
}

func (t *Timestamp) UnmarshalBSONValue(kind bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: kind, Value: data}
	switch kind {
	case bson.TypeNull, bson.TypeUndefined:
		t.Time = time.Time{}
		return nil
	case bson.TypeDateTime:
		t.Time = raw.Time().UTC()
		return nil
	case bson.TypeTimestamp:
		secs, _ := raw.Timestamp()
		t.Time = time.Unix(int64(secs), 0).UTC()
		return nil
	case bson.TypeString:
		parsed, err := time.Parse(time.RFC3339Nano, raw.StringValue())
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", raw.StringValue(), err)
		}
		t.Time = parsed.UTC()
		return nil
	case bson.TypeInt64:
		t.Time = time.UnixMilli(raw.Int64()).UTC()
		return nil
	case bson.TypeInt32:
		t.Time = time.UnixMilli(int64(raw.Int32())).UTC()
		return nil
	case bson.TypeDouble:
		f := raw.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("timestamp: non-finite number")
		}
		t.Time = time.UnixMilli(int64(f)).UTC()
		return nil
	}
	return fmt.Errorf("timestamp: unsupported BSON type %s", kind)
}
