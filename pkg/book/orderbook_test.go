package book

import (
	"reflect"
	"testing"

	"github.com/qscalp/qsh-go/pkg/qsh"
)

func sideFlag(side qsh.Side) qsh.OLFlags {
	if side == qsh.SideBuy {
		return qsh.OLBuy
	}
	return qsh.OLSell
}

func addRec(id int64, side qsh.Side, price, amount int64) qsh.OrderLog {
	rec := qsh.OrderLog{
		OrderID:    id,
		Price:      price,
		Amount:     amount,
		AmountRest: amount,
		Side:       side,
		OrderFlags: qsh.OLAdd | qsh.OLQuote | sideFlag(side),
		Type:       qsh.OrderLimit,
	}
	rec.Event = qsh.MsgTypeOf(&rec)
	return rec
}

func cancelRec(id int64, side qsh.Side, price, rest int64) qsh.OrderLog {
	rec := qsh.OrderLog{
		OrderID:    id,
		Price:      price,
		AmountRest: rest,
		Side:       side,
		OrderFlags: qsh.OLCanceled | sideFlag(side),
	}
	rec.Event = qsh.MsgTypeOf(&rec)
	return rec
}

func fillRec(id int64, side qsh.Side, price, amount int64) qsh.OrderLog {
	rec := qsh.OrderLog{
		OrderID:    id,
		Price:      price,
		Amount:     amount,
		Side:       side,
		OrderFlags: qsh.OLFill | sideFlag(side),
	}
	rec.Event = qsh.MsgTypeOf(&rec)
	return rec
}

// checkInvariants verifies level aggregates and price ordering on both
// sides.
func checkInvariants(t *testing.T, b *OrderBook) {
	t.Helper()
	for _, side := range []qsh.Side{qsh.SideBuy, qsh.SideSell} {
		var lvls []LevelSummary
		if side == qsh.SideBuy {
			lvls = b.BidLevels()
		} else {
			lvls = b.AskLevels()
		}
		for i, l := range lvls {
			if l.Volume <= 0 {
				t.Errorf("%v level %d has volume %d", side, l.Price, l.Volume)
			}
			if i > 0 {
				prev := lvls[i-1].Price
				if side == qsh.SideBuy && l.Price >= prev {
					t.Errorf("buy side not strictly descending: %d after %d", l.Price, prev)
				}
				if side == qsh.SideSell && l.Price <= prev {
					t.Errorf("sell side not strictly ascending: %d after %d", l.Price, prev)
				}
			}
		}
	}
	if b.Depth(qsh.SideBuy) > 0 && b.Depth(qsh.SideSell) > 0 {
		bb, _ := b.LevelAt(qsh.SideBuy, 0)
		ba, _ := b.LevelAt(qsh.SideSell, 0)
		if bb >= ba {
			t.Errorf("best bid %d >= best ask %d", bb, ba)
		}
	}
}

func TestAddSingleOrder(t *testing.T) {
	// One Add produces one Quote event and a one-level buy side.
	b := New()
	var events []qsh.L2Message
	if err := b.Add(addRec(42, qsh.SideBuy, 100, 3), &events); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	want := []qsh.L2Message{{Kind: qsh.L2Quote, Side: qsh.SideBuy, Price: 100, Size: 3}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if b.Depth(qsh.SideBuy) != 1 || b.Depth(qsh.SideSell) != 0 {
		t.Errorf("depth = %d/%d, want 1/0", b.Depth(qsh.SideBuy), b.Depth(qsh.SideSell))
	}
	checkInvariants(t, b)
}

func TestFullCancelRemovesLevel(t *testing.T) {
	b := New()
	if err := b.Add(addRec(42, qsh.SideBuy, 100, 3), nil); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	var events []qsh.L2Message
	if err := b.Cancel(cancelRec(42, qsh.SideBuy, 100, 0), &events); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	want := []qsh.L2Message{{Kind: qsh.L2Remove, Side: qsh.SideBuy, Price: 100}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if b.Depth(qsh.SideBuy) != 0 {
		t.Errorf("buy depth = %d, want 0", b.Depth(qsh.SideBuy))
	}
}

func TestAddCancelRoundTrip(t *testing.T) {
	// Cancel of a freshly added order restores the level exactly.
	b := New()
	if err := b.Add(addRec(1, qsh.SideSell, 200, 4), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(addRec(2, qsh.SideSell, 200, 6), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Cancel(cancelRec(2, qsh.SideSell, 200, 0), nil); err != nil {
		t.Fatal(err)
	}
	p, v := b.LevelAt(qsh.SideSell, 0)
	if p != 200 || v != 4 {
		t.Errorf("level after round trip = (%d, %d), want (200, 4)", p, v)
	}
	checkInvariants(t, b)
}

func TestPartialCancelShrinksOrder(t *testing.T) {
	b := New()
	if err := b.Add(addRec(1, qsh.SideBuy, 100, 10), nil); err != nil {
		t.Fatal(err)
	}
	var events []qsh.L2Message
	if err := b.Cancel(cancelRec(1, qsh.SideBuy, 100, 4), &events); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	want := []qsh.L2Message{{Kind: qsh.L2Quote, Side: qsh.SideBuy, Price: 100, Size: 4}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	checkInvariants(t, b)
}

func TestTrade(t *testing.T) {
	b := New()
	if err := b.Add(addRec(1, qsh.SideSell, 100, 5), nil); err != nil {
		t.Fatal(err)
	}

	// Partial fill shrinks the order and the level.
	var events []qsh.L2Message
	if err := b.Trade(fillRec(1, qsh.SideSell, 100, 2), &events); err != nil {
		t.Fatalf("Trade() error: %v", err)
	}
	want := []qsh.L2Message{{Kind: qsh.L2Quote, Side: qsh.SideSell, Price: 100, Size: 3}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}

	// Filling the residue removes the level.
	events = nil
	if err := b.Trade(fillRec(1, qsh.SideSell, 100, 3), &events); err != nil {
		t.Fatalf("Trade() error: %v", err)
	}
	want = []qsh.L2Message{{Kind: qsh.L2Remove, Side: qsh.SideSell, Price: 100}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if b.Depth(qsh.SideSell) != 0 {
		t.Errorf("sell depth = %d, want 0", b.Depth(qsh.SideSell))
	}
}

func TestTimePriorityWithinLevel(t *testing.T) {
	b := New()
	if err := b.Add(addRec(1, qsh.SideBuy, 100, 2), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(addRec(2, qsh.SideBuy, 100, 3), nil); err != nil {
		t.Fatal(err)
	}
	// Filling order 1 leaves order 2 resting: lookups are by id, and
	// insertion order is preserved.
	if err := b.Trade(fillRec(1, qsh.SideBuy, 100, 2), nil); err != nil {
		t.Fatalf("Trade() error: %v", err)
	}
	p, v := b.LevelAt(qsh.SideBuy, 0)
	if p != 100 || v != 3 {
		t.Errorf("level = (%d, %d), want (100, 3)", p, v)
	}
}

func TestSortOrderAcrossLevels(t *testing.T) {
	b := New()
	for _, rec := range []qsh.OrderLog{
		addRec(1, qsh.SideBuy, 98, 1),
		addRec(2, qsh.SideBuy, 100, 1),
		addRec(3, qsh.SideBuy, 99, 1),
		addRec(4, qsh.SideSell, 103, 1),
		addRec(5, qsh.SideSell, 101, 1),
		addRec(6, qsh.SideSell, 102, 1),
	} {
		if err := b.Add(rec, nil); err != nil {
			t.Fatal(err)
		}
	}
	checkInvariants(t, b)

	if p, _ := b.LevelAt(qsh.SideBuy, 0); p != 100 {
		t.Errorf("best bid = %d, want 100", p)
	}
	if p, _ := b.LevelAt(qsh.SideSell, 0); p != 101 {
		t.Errorf("best ask = %d, want 101", p)
	}
	if mid := b.MidPrice(); mid != 100.5 {
		t.Errorf("MidPrice() = %v, want 100.5", mid)
	}
}

func TestSnapshot(t *testing.T) {
	b := New()
	for _, rec := range []qsh.OrderLog{
		addRec(1, qsh.SideBuy, 100, 3),
		addRec(2, qsh.SideBuy, 99, 4),
		addRec(3, qsh.SideSell, 101, 5),
		addRec(4, qsh.SideSell, 102, 6),
	} {
		if err := b.Add(rec, nil); err != nil {
			t.Fatal(err)
		}
	}

	_, snap, err := b.Snapshot(2)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	want := []int64{100, 3, 101, 5, 99, 4, 102, 6}
	if !reflect.DeepEqual(snap, want) {
		t.Errorf("Snapshot(2) = %v, want %v", snap, want)
	}

	if _, _, err := b.Snapshot(3); !qsh.IsKind(err, qsh.KindValidation) {
		t.Errorf("Snapshot(3) error = %v, want Validation", err)
	}
}

func TestClear(t *testing.T) {
	b := New()
	if err := b.Add(addRec(1, qsh.SideBuy, 100, 3), nil); err != nil {
		t.Fatal(err)
	}
	b.Clear()
	if b.Depth(qsh.SideBuy) != 0 || b.Depth(qsh.SideSell) != 0 {
		t.Errorf("depth after Clear = %d/%d", b.Depth(qsh.SideBuy), b.Depth(qsh.SideSell))
	}
}

func TestAddPreconditions(t *testing.T) {
	fill := addRec(1, qsh.SideBuy, 100, 3)
	fill.OrderFlags |= qsh.OLFill
	canceled := addRec(1, qsh.SideBuy, 100, 3)
	canceled.OrderFlags |= qsh.OLCanceled
	zeroRest := addRec(1, qsh.SideBuy, 100, 3)
	zeroRest.AmountRest = 0
	partial := addRec(1, qsh.SideBuy, 100, 3)
	partial.AmountRest = 2

	tests := []struct {
		name string
		rec  qsh.OrderLog
	}{
		{"fill flag", fill},
		{"canceled flag", canceled},
		{"zero amount_rest", zeroRest},
		{"amount mismatch", partial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Add(tt.rec, nil); !qsh.IsKind(err, qsh.KindValidation) {
				t.Errorf("Add() error = %v, want Validation", err)
			}
		})
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	b := New()
	if err := b.Add(addRec(1, qsh.SideBuy, 100, 3), nil); err != nil {
		t.Fatal(err)
	}
	// Level exists, order does not.
	if err := b.Cancel(cancelRec(9, qsh.SideBuy, 100, 0), nil); !qsh.IsKind(err, qsh.KindInvalidState) {
		t.Errorf("Cancel() error = %v, want InvalidState", err)
	}
	// Level does not exist.
	if err := b.Cancel(cancelRec(1, qsh.SideBuy, 55, 0), nil); !qsh.IsKind(err, qsh.KindInvalidState) {
		t.Errorf("Cancel() error = %v, want InvalidState", err)
	}
}

func TestTradeUnknownOrder(t *testing.T) {
	b := New()
	if err := b.Add(addRec(1, qsh.SideSell, 100, 3), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Trade(fillRec(9, qsh.SideSell, 100, 1), nil); !qsh.IsKind(err, qsh.KindInvalidState) {
		t.Errorf("Trade() error = %v, want InvalidState", err)
	}
	if err := b.Trade(fillRec(1, qsh.SideSell, 100, 9), nil); !qsh.IsKind(err, qsh.KindInvalidState) {
		t.Errorf("oversized Trade() error = %v, want InvalidState", err)
	}
}
