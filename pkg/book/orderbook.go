package book

import (
	"sort"

	"github.com/qscalp/qsh-go/pkg/qsh"
)

// Level is one price level: its aggregate volume and the live orders
// resting at it in time priority.
type Level struct {
	Price  int64
	Volume int64
	Orders []qsh.OrderLog
}

// LevelSummary is a (price, volume) view of a level without its orders.
type LevelSummary struct {
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
}

// OrderBook is an L3 price-level book rebuilt from canonical order-log
// actions. The buy side is kept sorted by price descending, the sell
// side ascending, so the best price on either side is index 0.
//
// Sides are plain sorted slices rather than a tree: observed depths are
// dozens of levels and best-price access stays O(1).
type OrderBook struct {
	buy     []Level
	sell    []Level
	updated int64
}

func New() *OrderBook { return &OrderBook{} }

// findLevel locates the level for price on the given side. When the
// level is absent, ix is its sorted insertion index.
func (b *OrderBook) findLevel(side qsh.Side, price int64) (ix int, ok bool) {
	if side == qsh.SideBuy {
		ix = sort.Search(len(b.buy), func(i int) bool { return b.buy[i].Price <= price })
		return ix, ix < len(b.buy) && b.buy[ix].Price == price
	}
	ix = sort.Search(len(b.sell), func(i int) bool { return b.sell[i].Price >= price })
	return ix, ix < len(b.sell) && b.sell[ix].Price == price
}

func (b *OrderBook) side(s qsh.Side) *[]Level {
	if s == qsh.SideBuy {
		return &b.buy
	}
	return &b.sell
}

// Add rests a new order on the book. The record must not carry Fill or
// cancellation flags and must arrive with its full amount intact.
func (b *OrderBook) Add(rec qsh.OrderLog, events *[]qsh.L2Message) error {
	switch {
	case rec.OrderFlags.Has(qsh.OLFill):
		return qsh.Errorf(qsh.KindValidation, "book.add", "record is Fill: %s", rec)
	case rec.OrderFlags.Has(qsh.OLCanceled):
		return qsh.Errorf(qsh.KindValidation, "book.add", "record is Canceled: %s", rec)
	case rec.OrderFlags.Has(qsh.OLCanceledGroup):
		return qsh.Errorf(qsh.KindValidation, "book.add", "record is CanceledGroup: %s", rec)
	case rec.AmountRest == 0:
		return qsh.Errorf(qsh.KindValidation, "book.add", "amount_rest == 0: %s", rec)
	case rec.Amount != rec.AmountRest:
		return qsh.Errorf(qsh.KindValidation, "book.add", "amount != amount_rest: %s", rec)
	}

	lvls := b.side(rec.Side)
	ix, ok := b.findLevel(rec.Side, rec.Price)
	var size int64
	if !ok {
		*lvls = append(*lvls, Level{})
		copy((*lvls)[ix+1:], (*lvls)[ix:])
		(*lvls)[ix] = Level{Price: rec.Price, Volume: rec.Amount, Orders: []qsh.OrderLog{rec}}
		size = rec.Amount
	} else {
		lvl := &(*lvls)[ix]
		lvl.Orders = append(lvl.Orders, rec)
		lvl.Volume += rec.Amount
		size = lvl.Volume
	}

	if events != nil {
		*events = append(*events, qsh.L2Message{Kind: qsh.L2Quote, Side: rec.Side, Price: rec.Price, Size: size})
	}
	b.updated = qsh.ToUnixMillis(rec.Timestamp)
	return nil
}

// Cancel removes an order (amount_rest == 0) or shrinks it to its new
// residual (0 < amount_rest < stored amount).
func (b *OrderBook) Cancel(rec qsh.OrderLog, events *[]qsh.L2Message) error {
	switch {
	case rec.OrderFlags.Has(qsh.OLFill):
		return qsh.Errorf(qsh.KindValidation, "book.cancel", "record is Fill: %s", rec)
	case rec.OrderFlags.Has(qsh.OLAdd):
		return qsh.Errorf(qsh.KindValidation, "book.cancel", "record is Add: %s", rec)
	}

	lvls := b.side(rec.Side)
	ix, ok := b.findLevel(rec.Side, rec.Price)
	if !ok {
		return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "level %d not found: %s", rec.Price, rec)
	}
	lvl := &(*lvls)[ix]

	oi := -1
	for i := range lvl.Orders {
		if lvl.Orders[i].OrderID == rec.OrderID {
			oi = i
			break
		}
	}
	if oi < 0 {
		return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "order not found in level: %s", rec)
	}

	if rec.AmountRest == 0 {
		diff := lvl.Orders[oi].Amount
		if lvl.Volume < diff {
			return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "level volume %d < order amount %d", lvl.Volume, diff)
		}
		lvl.Orders = append(lvl.Orders[:oi], lvl.Orders[oi+1:]...)
		lvl.Volume -= diff
		switch {
		case len(lvl.Orders) == 0:
			if lvl.Volume != 0 {
				return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "empty level retains volume %d", lvl.Volume)
			}
			*lvls = append((*lvls)[:ix], (*lvls)[ix+1:]...)
			if events != nil {
				*events = append(*events, qsh.L2Message{Kind: qsh.L2Remove, Side: rec.Side, Price: rec.Price})
			}
		case lvl.Volume == 0:
			return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "level volume 0 with %d orders left", len(lvl.Orders))
		default:
			if events != nil {
				*events = append(*events, qsh.L2Message{Kind: qsh.L2Quote, Side: rec.Side, Price: rec.Price, Size: lvl.Volume})
			}
		}
	} else {
		if lvl.Orders[oi].Amount <= rec.AmountRest {
			return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "stored amount %d <= cancel residual %d", lvl.Orders[oi].Amount, rec.AmountRest)
		}
		diff := lvl.Orders[oi].Amount - rec.AmountRest
		if lvl.Volume <= diff {
			return qsh.Errorf(qsh.KindInvalidState, "book.cancel", "level volume %d <= canceled volume %d", lvl.Volume, diff)
		}
		lvl.Volume -= diff
		lvl.Orders[oi].Amount = rec.AmountRest
		lvl.Orders[oi].AmountRest = rec.AmountRest
		if events != nil {
			*events = append(*events, qsh.L2Message{Kind: qsh.L2Quote, Side: rec.Side, Price: rec.Price, Size: lvl.Volume})
		}
	}

	b.updated = qsh.ToUnixMillis(rec.Timestamp)
	return nil
}

// Trade consumes amount from a resting order, removing it when fully
// filled.
func (b *OrderBook) Trade(rec qsh.OrderLog, events *[]qsh.L2Message) error {
	switch {
	case rec.OrderFlags.Has(qsh.OLAdd):
		return qsh.Errorf(qsh.KindValidation, "book.trade", "record is Add: %s", rec)
	case rec.OrderFlags.Has(qsh.OLCanceled):
		return qsh.Errorf(qsh.KindValidation, "book.trade", "record is Canceled: %s", rec)
	case rec.OrderFlags.Has(qsh.OLCanceledGroup):
		return qsh.Errorf(qsh.KindValidation, "book.trade", "record is CanceledGroup: %s", rec)
	case rec.Amount == 0:
		return qsh.Errorf(qsh.KindValidation, "book.trade", "amount == 0: %s", rec)
	}

	lvls := b.side(rec.Side)
	ix, ok := b.findLevel(rec.Side, rec.Price)
	if !ok {
		return qsh.Errorf(qsh.KindInvalidState, "book.trade", "level %d not found: %s", rec.Price, rec)
	}
	lvl := &(*lvls)[ix]

	oi := -1
	for i := range lvl.Orders {
		if lvl.Orders[i].OrderID == rec.OrderID {
			oi = i
			break
		}
	}
	if oi < 0 {
		return qsh.Errorf(qsh.KindInvalidState, "book.trade", "order not found in level: %s", rec)
	}

	order := &lvl.Orders[oi]
	if order.Amount == rec.Amount {
		lvl.Orders = append(lvl.Orders[:oi], lvl.Orders[oi+1:]...)
	} else {
		if order.Amount <= rec.Amount || order.AmountRest <= rec.Amount {
			return qsh.Errorf(qsh.KindInvalidState, "book.trade", "order volume mismatch: stored %s, fill %s", order, rec)
		}
		order.Amount -= rec.Amount
		order.AmountRest -= rec.Amount
	}
	if lvl.Volume < rec.Amount {
		return qsh.Errorf(qsh.KindInvalidState, "book.trade", "level volume %d < fill amount %d", lvl.Volume, rec.Amount)
	}
	lvl.Volume -= rec.Amount

	switch {
	case len(lvl.Orders) == 0:
		if lvl.Volume != 0 {
			return qsh.Errorf(qsh.KindInvalidState, "book.trade", "empty level retains volume %d", lvl.Volume)
		}
		*lvls = append((*lvls)[:ix], (*lvls)[ix+1:]...)
		if events != nil {
			*events = append(*events, qsh.L2Message{Kind: qsh.L2Remove, Side: rec.Side, Price: rec.Price})
		}
	case lvl.Volume == 0:
		return qsh.Errorf(qsh.KindInvalidState, "book.trade", "level volume 0 with %d orders left", len(lvl.Orders))
	default:
		if events != nil {
			*events = append(*events, qsh.L2Message{Kind: qsh.L2Quote, Side: rec.Side, Price: rec.Price, Size: lvl.Volume})
		}
	}

	b.updated = qsh.ToUnixMillis(rec.Timestamp)
	return nil
}

// Clear empties both sides. The caller emits the corresponding L2
// Clear event.
func (b *OrderBook) Clear() {
	b.buy = b.buy[:0]
	b.sell = b.sell[:0]
}

// Depth returns the number of levels on a side.
func (b *OrderBook) Depth(side qsh.Side) int {
	if side == qsh.SideBuy {
		return len(b.buy)
	}
	return len(b.sell)
}

// LevelAt returns the (price, volume) summary of the i-th best level.
func (b *OrderBook) LevelAt(side qsh.Side, i int) (int64, int64) {
	lvls := *b.side(side)
	return lvls[i].Price, lvls[i].Volume
}

// UpdatedAt returns the Unix-millisecond timestamp of the last applied
// record.
func (b *OrderBook) UpdatedAt() int64 { return b.updated }

// Snapshot returns the book timestamp and a flat array of depth rows
// (bid_price, bid_volume, ask_price, ask_volume). Both sides must be at
// least depth levels deep.
func (b *OrderBook) Snapshot(depth int) (int64, []int64, error) {
	if len(b.buy) < depth || len(b.sell) < depth {
		return 0, nil, qsh.Errorf(qsh.KindValidation, "book.snapshot",
			"depth %d exceeds book depth (buy %d, sell %d)", depth, len(b.buy), len(b.sell))
	}
	snap := make([]int64, depth*4)
	for i := 0; i < depth; i++ {
		j := i * 4
		snap[j+0] = b.buy[i].Price
		snap[j+1] = b.buy[i].Volume
		snap[j+2] = b.sell[i].Price
		snap[j+3] = b.sell[i].Volume
	}
	return b.updated, snap, nil
}

// MidPrice returns the midpoint of the best bid and ask, or 0 when
// either side is empty.
func (b *OrderBook) MidPrice() float64 {
	if len(b.buy) == 0 || len(b.sell) == 0 {
		return 0
	}
	return float64(b.buy[0].Price+b.sell[0].Price) * 0.5
}

// BidLevels returns the buy side as summaries, best bid first.
func (b *OrderBook) BidLevels() []LevelSummary { return summaries(b.buy) }

// AskLevels returns the sell side as summaries, best ask first.
func (b *OrderBook) AskLevels() []LevelSummary { return summaries(b.sell) }

func summaries(lvls []Level) []LevelSummary {
	out := make([]LevelSummary, len(lvls))
	for i, l := range lvls {
		out[i] = LevelSummary{Price: l.Price, Volume: l.Volume}
	}
	return out
}
