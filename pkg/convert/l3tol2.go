package convert

import (
	"io"

	"github.com/qscalp/qsh-go/pkg/book"
	"github.com/qscalp/qsh-go/pkg/qsh"
)

// Converter is the L3→L2 pipeline: it pulls order-log records, groups
// them into transactions, translates each transaction into canonical
// actions and replays them on an order book, yielding the resulting L2
// events per transaction.
//
// The pipeline is single-threaded and pull-based; the emitted event
// sequence is a deterministic function of the input bytes.
type Converter struct {
	txs *book.TxScanner
	ob  *book.OrderBook
}

// NewConverter builds the pipeline over a record source. Non-system
// records are dropped before grouping.
func NewConverter(src book.RecordSource) *Converter {
	return &Converter{
		txs: book.NewTxScanner(src, book.SystemRecord),
		ob:  book.New(),
	}
}

// Book exposes the live book, e.g. for depth checks and snapshots
// between transactions.
func (c *Converter) Book() *book.OrderBook { return c.ob }

// Next processes the next transaction and returns its L2 events. The
// slice is empty for transactions fully absorbed inside the translator
// (intra-transaction crosses). Returns io.EOF at clean end of input.
func (c *Converter) Next() ([]qsh.L2Message, error) {
	for {
		tx, err := c.txs.Next()
		if err != nil {
			return nil, err
		}
		if !book.FIOKWithTrades(tx) {
			continue
		}
		if tx[0].OrderFlags.Has(qsh.OLNewSession) {
			c.ob.Clear()
			return []qsh.L2Message{{Kind: qsh.L2Clear}}, nil
		}

		msgs, err := ToL3(tx)
		if err != nil {
			return nil, err
		}
		events := make([]qsh.L2Message, 0, len(msgs))
		for _, m := range msgs {
			switch m.Kind {
			case qsh.L3Add:
				err = c.ob.Add(m.Rec, &events)
			case qsh.L3Cancel:
				err = c.ob.Cancel(m.Rec, &events)
			case qsh.L3Trade:
				err = c.ob.Trade(m.Rec, &events)
			}
			if err != nil {
				return nil, err
			}
		}
		return events, nil
	}
}

// All drains the pipeline and returns the flattened event sequence.
func (c *Converter) All() ([]qsh.L2Message, error) {
	var out []qsh.L2Message
	for {
		events, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
	}
}
