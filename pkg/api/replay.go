package api

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qscalp/qsh-go/pkg/convert"
	"github.com/qscalp/qsh-go/pkg/qsh"
	"github.com/qscalp/qsh-go/pkg/storage"
	"github.com/qscalp/qsh-go/pkg/util"
)

// Replay drives one OrderLog file through the conversion pipeline,
// persisting batches to the store (when configured) and broadcasting
// them to subscribed WebSocket clients. The book endpoint reads the
// live book between transactions under the replay mutex.
type Replay struct {
	Header qsh.Header

	mu   sync.RWMutex
	conv *convert.Converter
	seq  uint64
	done bool

	dec   *qsh.Decoder
	depth int
	speed float64
	clock util.Clock
	store *storage.EventStore
	hub   *Hub
	log   *zap.SugaredLogger
}

// NewReplay opens path and prepares a replay at the given snapshot
// depth. speed > 0 paces batches by recorded time; 0 runs flat out.
func NewReplay(path string, depth int, speed float64, store *storage.EventStore, hub *Hub, log *zap.SugaredLogger) (*Replay, error) {
	dec, err := qsh.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := dec.OrderLog()
	if err != nil {
		dec.Close()
		return nil, err
	}
	return &Replay{
		Header: dec.Header,
		conv:   convert.NewConverter(src),
		dec:    dec,
		depth:  depth,
		speed:  speed,
		clock:  util.RealClock{},
		store:  store,
		hub:    hub,
		log:    log,
	}, nil
}

// Run pulls transactions until EOF, the first pipeline error, or ctx
// cancellation.
func (r *Replay) Run(ctx context.Context) error {
	instrument := r.Header.Instrument
	defer r.dec.Close()
	defer func() {
		r.mu.Lock()
		r.done = true
		r.mu.Unlock()
	}()

	if r.store != nil {
		if err := r.store.SaveHeader(instrument, r.Header); err != nil {
			return err
		}
	}

	var prevTS int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.mu.Lock()
		events, err := r.conv.Next()
		if err != nil {
			r.mu.Unlock()
			if err == io.EOF {
				r.log.Infow("replay_done", "instrument", instrument, "transactions", r.seq)
				return nil
			}
			r.log.Errorw("replay_failed", "instrument", instrument, "seq", r.seq, "err", err)
			return err
		}
		r.seq++
		seq := r.seq
		ts := r.conv.Book().UpdatedAt()
		var row []int64
		if ob := r.conv.Book(); ob.Depth(qsh.SideBuy) >= r.depth && ob.Depth(qsh.SideSell) >= r.depth {
			snapTS, snap, snapErr := ob.Snapshot(r.depth)
			if snapErr == nil {
				row = append([]int64{snapTS}, snap...)
			}
		}
		r.mu.Unlock()

		if r.store != nil {
			if err := r.store.AppendBatch(instrument, seq, events); err != nil {
				return err
			}
			if row != nil {
				if err := r.store.AppendSnapshot(instrument, seq, row); err != nil {
					return err
				}
			}
		}
		if len(events) > 0 {
			r.hub.BroadcastToChannel("events:"+instrument, ReplayUpdate{
				Type:       "events",
				Instrument: instrument,
				Seq:        seq,
				Events:     toL2Events(events),
			})
		}

		if r.speed > 0 && prevTS > 0 && ts > prevTS {
			wait := time.Duration(float64(ts-prevTS)/r.speed) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(wait):
			}
		}
		if ts > 0 {
			prevTS = ts
		}
	}
}

// SnapshotDTO returns the current book state.
func (r *Replay) SnapshotDTO() BookSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ob := r.conv.Book()

	bids := ob.BidLevels()
	asks := ob.AskLevels()
	snap := BookSnapshot{
		Instrument: r.Header.Instrument,
		Bids:       make([]PriceLevel, len(bids)),
		Asks:       make([]PriceLevel, len(asks)),
		MidPrice:   ob.MidPrice(),
		Timestamp:  ob.UpdatedAt(),
	}
	for i, l := range bids {
		snap.Bids[i] = PriceLevel{Price: l.Price, Volume: l.Volume}
	}
	for i, l := range asks {
		snap.Asks[i] = PriceLevel{Price: l.Price, Volume: l.Volume}
	}
	return snap
}

// Done reports whether the replay has finished.
func (r *Replay) Done() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}
