package qsh

// DealsDecoder decodes the Deals stream against a running previous
// record.
type DealsDecoder struct {
	prev Deal
}

func (d *DealsDecoder) Parse(r *Reader) (Deal, error) {
	frameTimeDelta, err := r.Growing()
	if err != nil {
		return Deal{}, err
	}
	fb, err := r.Byte()
	if err != nil {
		return Deal{}, err
	}
	flags := DealFlags(fb)

	if flags.Has(DealTimestamp) {
		delta, err := r.Growing()
		if err != nil {
			return Deal{}, err
		}
		if d.prev.Timestamp, err = cadd(d.prev.Timestamp, delta); err != nil {
			return Deal{}, err
		}
	}
	if flags.Has(DealID) {
		delta, err := r.Growing()
		if err != nil {
			return Deal{}, err
		}
		if d.prev.DealID, err = cadd(d.prev.DealID, delta); err != nil {
			return Deal{}, err
		}
	}
	if flags.Has(DealOrderID) {
		delta, err := r.SLEB()
		if err != nil {
			return Deal{}, err
		}
		if d.prev.OrderID, err = cadd(d.prev.OrderID, delta); err != nil {
			return Deal{}, err
		}
	}
	if flags.Has(DealPrice) {
		delta, err := r.SLEB()
		if err != nil {
			return Deal{}, err
		}
		if d.prev.Price, err = cadd(d.prev.Price, delta); err != nil {
			return Deal{}, err
		}
	}
	if flags.Has(DealAmount) {
		if d.prev.Amount, err = r.SLEB(); err != nil {
			return Deal{}, err
		}
	}
	if flags.Has(DealOI) {
		delta, err := r.SLEB()
		if err != nil {
			return Deal{}, err
		}
		if d.prev.OI, err = cadd(d.prev.OI, delta); err != nil {
			return Deal{}, err
		}
	}

	d.prev.Side = SideFromByte(fb & 0x03)
	d.prev.FrameTimeDelta = frameTimeDelta
	return d.prev, nil
}
