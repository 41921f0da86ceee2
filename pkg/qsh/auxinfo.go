package qsh

// AuxInfoDecoder decodes the AuxInfo stream against a running previous
// record. SessionInfo and Rate fields are absolute, everything else is
// differential.
type AuxInfoDecoder struct {
	prev AuxInfo
}

func (d *AuxInfoDecoder) Parse(r *Reader) (AuxInfo, error) {
	frameTimeDelta, err := r.Growing()
	if err != nil {
		return AuxInfo{}, err
	}
	fb, err := r.Byte()
	if err != nil {
		return AuxInfo{}, err
	}
	flags := AuxFlags(fb)
	d.prev.FrameTimeDelta = frameTimeDelta

	if flags.Has(AuxTimestamp) {
		delta, err := r.Growing()
		if err != nil {
			return AuxInfo{}, err
		}
		if d.prev.Timestamp, err = cadd(d.prev.Timestamp, delta); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxAskTotal) {
		delta, err := r.SLEB()
		if err != nil {
			return AuxInfo{}, err
		}
		if d.prev.AskTotal, err = cadd(d.prev.AskTotal, delta); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxBidTotal) {
		delta, err := r.SLEB()
		if err != nil {
			return AuxInfo{}, err
		}
		if d.prev.BidTotal, err = cadd(d.prev.BidTotal, delta); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxOI) {
		delta, err := r.SLEB()
		if err != nil {
			return AuxInfo{}, err
		}
		if d.prev.OI, err = cadd(d.prev.OI, delta); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxPrice) {
		delta, err := r.SLEB()
		if err != nil {
			return AuxInfo{}, err
		}
		if d.prev.Price, err = cadd(d.prev.Price, delta); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxSessionInfo) {
		if d.prev.HiLimit, err = r.SLEB(); err != nil {
			return AuxInfo{}, err
		}
		if d.prev.LowLimit, err = r.SLEB(); err != nil {
			return AuxInfo{}, err
		}
		if d.prev.Deposit, err = r.F64(); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxRate) {
		if d.prev.Rate, err = r.F64(); err != nil {
			return AuxInfo{}, err
		}
	}
	if flags.Has(AuxMessage) {
		if d.prev.Message, err = r.String(); err != nil {
			return AuxInfo{}, err
		}
	} else {
		d.prev.Message = ""
	}

	return d.prev, nil
}
