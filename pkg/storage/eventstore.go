package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/qscalp/qsh-go/pkg/qsh"
)

// EventStore persists converted L2 event batches and book snapshots in
// Pebble, keyed per instrument.
//
// Key schema:
//
//	h:<instrument>            → Header (JSON)
//	e:<instrument>:<seq u64>  → one transaction's L2 batch (wire codec)
//	s:<instrument>:<seq u64>  → one flat snapshot row (i64 LE)
//
// Sequence numbers are big-endian so range scans iterate in replay
// order.
type EventStore struct {
	db *pebble.DB
}

func OpenEventStore(path string) (*EventStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	return &EventStore{db: db}, nil
}

func (s *EventStore) Close() error { return s.db.Close() }

func headerKey(instrument string) []byte {
	return []byte("h:" + instrument)
}

func seqKey(prefix, instrument string, seq uint64) []byte {
	k := make([]byte, 0, len(prefix)+len(instrument)+9)
	k = append(k, prefix...)
	k = append(k, instrument...)
	k = append(k, ':')
	return binary.BigEndian.AppendUint64(k, seq)
}

func seqPrefix(prefix, instrument string) []byte {
	return []byte(prefix + instrument + ":")
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// SaveHeader records the source file header for an instrument.
func (s *EventStore) SaveHeader(instrument string, h qsh.Header) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if err := s.db.Set(headerKey(instrument), data, pebble.Sync); err != nil {
		return fmt.Errorf("save header: %w", err)
	}
	return nil
}

// LoadHeader returns the stored header, or ok=false when the
// instrument is unknown.
func (s *EventStore) LoadHeader(instrument string) (qsh.Header, bool, error) {
	val, closer, err := s.db.Get(headerKey(instrument))
	if err == pebble.ErrNotFound {
		return qsh.Header{}, false, nil
	}
	if err != nil {
		return qsh.Header{}, false, fmt.Errorf("get header: %w", err)
	}
	defer closer.Close()
	var h qsh.Header
	if err := json.Unmarshal(val, &h); err != nil {
		return qsh.Header{}, false, fmt.Errorf("unmarshal header: %w", err)
	}
	return h, true, nil
}

// Instruments lists every instrument with a stored header.
func (s *EventStore) Instruments() ([]string, error) {
	prefix := []byte("h:")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []string
	for iter.First(); iter.Valid(); iter.Next() {
		out = append(out, string(iter.Key()[len(prefix):]))
	}
	return out, nil
}

// AppendBatch stores one transaction's events under seq. Batches are
// written NoSync; replay throughput matters more than per-batch
// durability.
func (s *EventStore) AppendBatch(instrument string, seq uint64, msgs []qsh.L2Message) error {
	if err := s.db.Set(seqKey("e:", instrument, seq), EncodeBatch(msgs), pebble.NoSync); err != nil {
		return fmt.Errorf("append batch: %w", err)
	}
	return nil
}

// ReadBatches returns up to limit batches starting at seq from.
func (s *EventStore) ReadBatches(instrument string, from uint64, limit int) ([][]qsh.L2Message, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: seqKey("e:", instrument, from),
		UpperBound: keyUpperBound(seqPrefix("e:", instrument)),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out [][]qsh.L2Message
	for iter.First(); iter.Valid() && len(out) < limit; iter.Next() {
		batch, err := DecodeBatch(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, batch)
	}
	return out, nil
}

// AppendSnapshot stores one flat snapshot row under seq.
func (s *EventStore) AppendSnapshot(instrument string, seq uint64, row []int64) error {
	buf := make([]byte, 0, len(row)*8)
	for _, v := range row {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
	}
	if err := s.db.Set(seqKey("s:", instrument, seq), buf, pebble.NoSync); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// ReadSnapshots returns up to limit snapshot rows starting at seq from.
func (s *EventStore) ReadSnapshots(instrument string, from uint64, limit int) ([][]int64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: seqKey("s:", instrument, from),
		UpperBound: keyUpperBound(seqPrefix("s:", instrument)),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out [][]int64
	for iter.First(); iter.Valid() && len(out) < limit; iter.Next() {
		val := iter.Value()
		if len(val)%8 != 0 {
			return nil, qsh.Errorf(qsh.KindValidation, "eventstore", "snapshot row length %d not a multiple of 8", len(val))
		}
		row := make([]int64, len(val)/8)
		for i := range row {
			row[i] = int64(binary.LittleEndian.Uint64(val[i*8:]))
		}
		out = append(out, row)
	}
	return out, nil
}
