package qsh

import "io"

// Record streams pull one decoded record per call. Next returns io.EOF
// when the byte source is cleanly exhausted; any other error terminates
// iteration at the record that produced it.

type OrderLogStream struct {
	r   *Reader
	dec OrderLogDecoder
}

func NewOrderLogStream(r *Reader) *OrderLogStream { return &OrderLogStream{r: r} }

func (s *OrderLogStream) Next() (OrderLog, error) {
	if s.r.EOF() {
		return OrderLog{}, io.EOF
	}
	return s.dec.Parse(s.r)
}

type QuotesStream struct {
	r   *Reader
	dec QuotesDecoder
}

func NewQuotesStream(r *Reader) *QuotesStream { return &QuotesStream{r: r} }

func (s *QuotesStream) Next() (Quotes, error) {
	if s.r.EOF() {
		return Quotes{}, io.EOF
	}
	return s.dec.Parse(s.r)
}

type DealsStream struct {
	r   *Reader
	dec DealsDecoder
}

func NewDealsStream(r *Reader) *DealsStream { return &DealsStream{r: r} }

func (s *DealsStream) Next() (Deal, error) {
	if s.r.EOF() {
		return Deal{}, io.EOF
	}
	return s.dec.Parse(s.r)
}

type AuxInfoStream struct {
	r   *Reader
	dec AuxInfoDecoder
}

func NewAuxInfoStream(r *Reader) *AuxInfoStream { return &AuxInfoStream{r: r} }

func (s *AuxInfoStream) Next() (AuxInfo, error) {
	if s.r.EOF() {
		return AuxInfo{}, io.EOF
	}
	return s.dec.Parse(s.r)
}
