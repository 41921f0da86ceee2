package qsh

import "sort"

// QuotesDecoder decodes the Quotes stream. The stream carries
// differential rows against a running per-price aggregate: volume 0
// removes a price, anything else overwrites it. Negative volumes are
// bids, positive are asks.
type QuotesDecoder struct {
	levels map[int64]int64
	key    int64
}

// Parse consumes exactly one record and returns a deep copy of the
// aggregate; the running map and key persist across records.
func (d *QuotesDecoder) Parse(r *Reader) (Quotes, error) {
	if d.levels == nil {
		d.levels = make(map[int64]int64)
	}

	frameTimeDelta, err := r.Growing()
	if err != nil {
		return Quotes{}, err
	}
	nrows, err := r.SLEB()
	if err != nil {
		return Quotes{}, err
	}

	for i := int64(0); i < nrows; i++ {
		delta, err := r.SLEB()
		if err != nil {
			return Quotes{}, err
		}
		if d.key, err = cadd(d.key, delta); err != nil {
			return Quotes{}, err
		}
		volume, err := r.SLEB()
		if err != nil {
			return Quotes{}, err
		}
		if volume == 0 {
			if _, ok := d.levels[d.key]; !ok {
				return Quotes{}, Errorf(KindInvalidState, "quotes", "key not found: removal of absent price %d", d.key)
			}
			delete(d.levels, d.key)
		} else {
			d.levels[d.key] = volume
		}
	}

	q := Quotes{FrameTimeDelta: frameTimeDelta}
	prices := make([]int64, 0, len(d.levels))
	for p := range d.levels {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	for _, p := range prices {
		if v := d.levels[p]; v < 0 {
			q.Bids = append(q.Bids, Quote{Price: p, Volume: -v})
		} else {
			q.Asks = append(q.Asks, Quote{Price: p, Volume: v})
		}
	}
	return q, nil
}
