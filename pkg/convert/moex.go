package convert

import (
	"sort"

	"github.com/qscalp/qsh-go/pkg/qsh"
)

// The MOEX order log encodes one aggressing order as a chain of Fill
// events against the resting orders it consumes. This file untangles a
// single transaction into canonical Add / Cancel / Trade actions.

// chunk groups the records of a transaction constituting one event:
// either a lone order action, or a run of adds (src) and the fills
// they caused (tgt).
//
//	[o, o, o, x, x, o] -> [[o], [o, o, x, x], [o]]
type chunk struct {
	trades bool
	order  qsh.OrderLog
	src    []qsh.OrderLog
	tgt    []qsh.OrderLog
}

func chunks(tx []qsh.OrderLog) ([]chunk, error) {
	fillIDs := make(map[int64]struct{})
	for i := range tx {
		if tx[i].Event == qsh.MsgFill {
			fillIDs[tx[i].OrderID] = struct{}{}
		}
	}

	// Fast path: no fills anywhere, every surviving record is a lone
	// Add or Cancel.
	if len(fillIDs) == 0 {
		out := make([]chunk, 0, len(tx))
		for _, rec := range tx {
			if rec.Event == qsh.MsgRemove || rec.Type == qsh.OrderIOK || rec.Type == qsh.OrderFOK {
				continue
			}
			out = append(out, chunk{order: rec})
		}
		return out, nil
	}

	var out []chunk
	var src, tgt []qsh.OrderLog
	flush := func() {
		if len(src)+len(tgt) > 0 {
			out = append(out, chunk{trades: true, src: src, tgt: tgt})
			src, tgt = nil, nil
		}
	}

	for _, rec := range tx {
		_, inFills := fillIDs[rec.OrderID]
		switch {
		case rec.Event == qsh.MsgAdd && inFills:
			src = append(src, rec)
		case rec.Event == qsh.MsgFill:
			tgt = append(tgt, rec)
		case rec.Event == qsh.MsgRemove:
			// An unfilled IOK residue inside a trade transaction. Real
			// feeds occasionally carry other types here; surface it
			// instead of trusting the record.
			if rec.Type != qsh.OrderIOK {
				return nil, qsh.Errorf(qsh.KindValidation, "moex",
					"remove inside trade transaction has type %s, want IOK: %s", rec.Type, rec)
			}
		default:
			flush()
			if rec.Type == qsh.OrderLimit {
				out = append(out, chunk{order: rec})
			}
		}
	}
	flush()
	return out, nil
}

// ToL3 translates one transaction into canonical L3 actions. Orders
// added and fully matched within the transaction never reach the book
// and are dropped.
func ToL3(tx []qsh.OrderLog) ([]qsh.L3Message, error) {
	cs, err := chunks(tx)
	if err != nil {
		return nil, err
	}

	var out []qsh.L3Message
	for _, c := range cs {
		switch {
		case !c.trades:
			if c.order.Type != qsh.OrderLimit {
				return nil, qsh.Errorf(qsh.KindParsing, "moex", "lone order is %s, want Limit: %s", c.order.Type, c.order)
			}
			switch c.order.Event {
			case qsh.MsgAdd:
				out = append(out, qsh.L3Message{Kind: qsh.L3Add, Rec: c.order})
			case qsh.MsgCancel:
				out = append(out, qsh.L3Message{Kind: qsh.L3Cancel, Rec: c.order})
			default:
				return nil, qsh.Errorf(qsh.KindParsing, "moex", "lone order is %s, want Add or Cancel: %s", c.order.Event, c.order)
			}

		case len(c.src) == 1:
			// One added order causing one or many trades.
			msgs, err := oneSrcTrades(c.src[0], c.tgt)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)

		default:
			// Orders added and matched within the same transaction
			// (auction uncrossing).
			msgs, err := multiSrcTrades(c.src, c.tgt)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		}
	}
	return out, nil
}

func oneSrcTrades(src qsh.OrderLog, tgt []qsh.OrderLog) ([]qsh.L3Message, error) {
	out := make([]qsh.L3Message, 0, len(tgt)+1)
	for _, fill := range tgt {
		if fill.Event != qsh.MsgFill {
			return nil, qsh.Errorf(qsh.KindParsing, "moex", "trade chunk target is %s, want Fill: %s", fill.Event, fill)
		}
		if fill.OrderID == src.OrderID {
			if src.Amount < fill.Amount || src.AmountRest < fill.Amount {
				return nil, qsh.Errorf(qsh.KindInvalidState, "moex",
					"aggressor %d consumed beyond its amount: %s against %s", src.OrderID, fill, src)
			}
			src.Amount -= fill.Amount
			src.AmountRest -= fill.Amount
			continue
		}
		out = append(out, qsh.L3Message{Kind: qsh.L3Trade, Rec: fill})
	}
	if src.AmountRest > 0 && src.Type == qsh.OrderLimit {
		out = append(out, qsh.L3Message{Kind: qsh.L3Add, Rec: src})
	}
	return out, nil
}

func multiSrcTrades(src, tgt []qsh.OrderLog) ([]qsh.L3Message, error) {
	srcs := append([]qsh.OrderLog(nil), src...)
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].OrderID < srcs[j].OrderID })

	var out []qsh.L3Message
	for _, fill := range tgt {
		if fill.Event != qsh.MsgFill {
			return nil, qsh.Errorf(qsh.KindParsing, "moex", "trade chunk target is %s, want Fill: %s", fill.Event, fill)
		}
		ix := sort.Search(len(srcs), func(i int) bool { return srcs[i].OrderID >= fill.OrderID })
		if ix < len(srcs) && srcs[ix].OrderID == fill.OrderID {
			s := &srcs[ix]
			if s.Amount < fill.Amount || s.AmountRest < fill.Amount {
				return nil, qsh.Errorf(qsh.KindInvalidState, "moex",
					"order %d consumed beyond its amount: %s against %s", s.OrderID, fill, *s)
			}
			s.Amount -= fill.Amount
			s.AmountRest -= fill.Amount
			continue
		}
		out = append(out, qsh.L3Message{Kind: qsh.L3Trade, Rec: fill})
	}

	// Residues of orders added in this transaction rest on the book;
	// fully matched ones are dropped.
	for _, s := range srcs {
		if s.AmountRest <= 0 || s.Type != qsh.OrderLimit {
			continue
		}
		if s.Event != qsh.MsgAdd {
			return nil, qsh.Errorf(qsh.KindParsing, "moex", "trade chunk source is %s, want Add: %s", s.Event, s)
		}
		s.Amount = s.AmountRest
		out = append(out, qsh.L3Message{Kind: qsh.L3Add, Rec: s})
	}
	return out, nil
}
