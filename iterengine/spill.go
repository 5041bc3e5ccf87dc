package iterengine

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"

	"go.etcd.io/bbolt"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kolibri-data/relation/column"
)

// SpillPayload is the supplemental bounded-memory materialization
// path of SPEC_FULL §4.4: once a Materialization's row count crosses
// Config.SpillThreshold, rows are written to a temporary single-file
// bbolt database instead of held as a Go slice. It satisfies
// RowIterable identically to SequencePayload; callers cannot tell the
// difference except by memory footprint.
//
// Grounded on storage/bbolt's use of bbolt as an embedded, ordered,
// single-file KV store; repurposed here as a spill target for one
// payload kind rather than the primary table store.
type SpillPayload struct {
	db    *bbolt.DB
	path  string
	codec column.Codec
	n     int
}

var spillBucket = []byte("rows")

// NewSpillPayload writes rows to a fresh temporary bbolt database
// under dir, encoding each row's tags through codec. The caller owns
// the returned payload's lifetime and must call Close to remove the
// backing file.
func NewSpillPayload(dir string, codec column.Codec, rows []Row) (*SpillPayload, error) {
	f, err := os.CreateTemp(dir, "iterengine-spill-*.bolt")
	if err != nil {
		return nil, fmt.Errorf("iterengine: spill: %w", err)
	}
	path := f.Name()
	f.Close()

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("iterengine: spill: %w", err)
	}

	s := &SpillPayload{db: db, path: path, codec: codec, n: len(rows)}
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(spillBucket)
		if err != nil {
			return err
		}
		for i, r := range rows {
			enc, err := s.encodeRow(r)
			if err != nil {
				return err
			}
			if err := b.Put(spillKey(i), enc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}
	return s, nil
}

func spillKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

func (s *SpillPayload) encodeRow(r Row) ([]byte, error) {
	tags := make([]*structpb.Value, r.Len())
	values := make([]*structpb.Value, r.Len())
	for i, tag := range r.tags {
		encTag, err := s.codec.EncodeTag(tag)
		if err != nil {
			return nil, err
		}
		tags[i] = structpb.NewStringValue(base64.StdEncoding.EncodeToString(encTag))
		v, err := structpb.NewValue(normalizeCell(r.values[i]))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	envelope := &structpb.Struct{Fields: map[string]*structpb.Value{
		"tags":   structpb.NewListValue(&structpb.ListValue{Values: tags}),
		"values": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
	return proto.MarshalOptions{Deterministic: true}.Marshal(envelope)
}

func (s *SpillPayload) decodeRow(enc []byte) (Row, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(enc, &envelope); err != nil {
		return Row{}, err
	}
	tagValues := envelope.Fields["tags"].GetListValue().Values
	cellValues := envelope.Fields["values"].GetListValue().Values
	tags := make([]column.Tag, len(tagValues))
	values := make([]any, len(cellValues))
	for i, tv := range tagValues {
		raw, err := base64.StdEncoding.DecodeString(tv.GetStringValue())
		if err != nil {
			return Row{}, err
		}
		tag, err := s.codec.DecodeTag(raw)
		if err != nil {
			return Row{}, err
		}
		tags[i] = tag
	}
	for i, cv := range cellValues {
		values[i] = cv.AsInterface()
	}
	return NewRow(tags, values), nil
}

func (s *SpillPayload) Rows(ctx context.Context, yield func(Row) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(spillBucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := s.decodeRow(v)
			if err != nil {
				return err
			}
			if err := yield(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SpillPayload) Len() int { return s.n }

// Close releases the backing bbolt database and removes its file.
func (s *SpillPayload) Close() error {
	err := s.db.Close()
	os.Remove(s.path)
	return err
}
