package qsh

// OrderLogDecoder decodes the OrderLog stream. Fields are delta-encoded
// against the previously emitted record and a handful of running
// accumulators, so a decoder instance is bound to one stream for its
// lifetime and records must be pulled in file order.
type OrderLogDecoder struct {
	prev      OrderLog
	orderID   int64
	dealID    int64
	dealPrice int64
	oi        int64
}

// Parse consumes exactly one record and returns a value copy. The
// returned record never aliases decoder state.
func (d *OrderLogDecoder) Parse(r *Reader) (OrderLog, error) {
	frameTimeDelta, err := r.Growing()
	if err != nil {
		return OrderLog{}, err
	}
	eb, err := r.Byte()
	if err != nil {
		return OrderLog{}, err
	}
	of, err := r.U16()
	if err != nil {
		return OrderLog{}, err
	}
	entryFlags, orderFlags := OLEntryFlags(eb), OLFlags(of)

	d.prev.FrameTimeDelta = frameTimeDelta
	d.prev.OrderFlags = orderFlags
	d.prev.EntryFlags = entryFlags

	if entryFlags.Has(EntryDateTime) {
		dt, err := r.Growing()
		if err != nil {
			return OrderLog{}, err
		}
		if d.prev.Timestamp, err = cadd(d.prev.Timestamp, dt); err != nil {
			return OrderLog{}, err
		}
	}
	if entryFlags.Has(EntryOrderID) {
		if orderFlags.Has(OLAdd) {
			// Add records advance the running order id.
			delta, err := r.Growing()
			if err != nil {
				return OrderLog{}, err
			}
			if d.orderID, err = cadd(d.orderID, delta); err != nil {
				return OrderLog{}, err
			}
			d.prev.OrderID = d.orderID
		} else {
			// Other records reference an order relative to the running
			// id without moving it.
			delta, err := r.SLEB()
			if err != nil {
				return OrderLog{}, err
			}
			if d.prev.OrderID, err = cadd(d.orderID, delta); err != nil {
				return OrderLog{}, err
			}
		}
	} else {
		d.prev.OrderID = d.orderID
	}
	if entryFlags.Has(EntryPrice) {
		delta, err := r.SLEB()
		if err != nil {
			return OrderLog{}, err
		}
		if d.prev.Price, err = cadd(d.prev.Price, delta); err != nil {
			return OrderLog{}, err
		}
	}
	if entryFlags.Has(EntryAmount) {
		if d.prev.Amount, err = r.SLEB(); err != nil {
			return OrderLog{}, err
		}
	}

	d.prev.AmountRest = 0
	d.prev.DealID = 0
	d.prev.DealPrice = 0
	d.prev.OI = 0

	switch {
	case orderFlags.Has(OLFill):
		if entryFlags.Has(EntryAmountRest) {
			if d.prev.AmountRest, err = r.SLEB(); err != nil {
				return OrderLog{}, err
			}
		}
		if entryFlags.Has(EntryDealID) {
			delta, err := r.Growing()
			if err != nil {
				return OrderLog{}, err
			}
			if d.dealID, err = cadd(d.dealID, delta); err != nil {
				return OrderLog{}, err
			}
		}
		if entryFlags.Has(EntryDealPrice) {
			delta, err := r.SLEB()
			if err != nil {
				return OrderLog{}, err
			}
			if d.dealPrice, err = cadd(d.dealPrice, delta); err != nil {
				return OrderLog{}, err
			}
		}
		if entryFlags.Has(EntryOI) {
			delta, err := r.SLEB()
			if err != nil {
				return OrderLog{}, err
			}
			if d.oi, err = cadd(d.oi, delta); err != nil {
				return OrderLog{}, err
			}
		}
		d.prev.DealID = d.dealID
		d.prev.DealPrice = d.dealPrice
		d.prev.OI = d.oi
	case orderFlags.Has(OLAdd):
		d.prev.AmountRest = d.prev.Amount
	}

	buy, sell := orderFlags.Has(OLBuy), orderFlags.Has(OLSell)
	switch {
	case buy && sell:
		return OrderLog{}, Errorf(KindParsing, "orderlog", "record %d has both buy and sell flags set", d.prev.OrderID)
	case buy:
		d.prev.Side = SideBuy
	case sell:
		d.prev.Side = SideSell
	default:
		d.prev.Side = SideUnknown
	}

	d.prev.Type = OrderTypeFromFlags(orderFlags)
	d.prev.Event = MsgTypeOf(&d.prev)

	return d.prev, nil
}
