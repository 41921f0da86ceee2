package convert

import (
	"io"

	"github.com/qscalp/qsh-go/pkg/book"
	"github.com/qscalp/qsh-go/pkg/qsh"
)

// Snapshot rows are flat: a timestamp followed by depth×(bid_price,
// bid_volume, ask_price, ask_volume).

// CollectBookSnapshots replays an order-log source and appends a
// depth-k snapshot row after every transaction for which both sides
// are at least k levels deep.
func CollectBookSnapshots(src book.RecordSource, depth int) ([]int64, error) {
	c := NewConverter(src)
	var rows []int64
	for {
		if _, err := c.Next(); err != nil {
			if err == io.EOF {
				return rows, nil
			}
			return nil, err
		}
		ob := c.Book()
		if ob.Depth(qsh.SideBuy) < depth || ob.Depth(qsh.SideSell) < depth {
			continue
		}
		ts, snap, err := ob.Snapshot(depth)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ts)
		rows = append(rows, snap...)
	}
}

// CollectQuoteRows flattens a Quotes stream into depth-k rows of the
// same layout, timestamped from the header recording time advanced by
// each record's frame delta. Records shallower than k are skipped.
func CollectQuoteRows(s *qsh.QuotesStream, recordingTime int64, depth int) ([]int64, error) {
	ts := recordingTime
	var rows []int64
	for {
		q, err := s.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		ts += q.FrameTimeDelta
		if len(q.Bids) < depth || len(q.Asks) < depth {
			continue
		}
		rows = append(rows, ts)
		for i := 0; i < depth; i++ {
			rows = append(rows, q.Bids[i].Price, q.Bids[i].Volume, q.Asks[i].Price, q.Asks[i].Volume)
		}
	}
}
