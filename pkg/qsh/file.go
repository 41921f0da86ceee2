package qsh

import (
	"os"

	"github.com/klauspost/compress/gzip"
)

// Decoder owns an open .qsh file: the gzip layer, the primitive reader
// and the parsed header. One Decoder serves one file; it is not safe
// for concurrent use.
type Decoder struct {
	Header Header

	f  *os.File
	gz *gzip.Reader
	r  *Reader
}

// Open opens a gzipped QSH file and parses its header.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapIo("open", err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, WrapIo("gunzip", err)
	}
	r := NewReader(gz)
	h, err := ParseHeader(r)
	if err != nil {
		gz.Close()
		f.Close()
		return nil, err
	}
	return &Decoder{Header: h, f: f, gz: gz, r: r}, nil
}

func (d *Decoder) Close() error {
	gzErr := d.gz.Close()
	if err := d.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// Reader exposes the primitive reader positioned at the first record.
func (d *Decoder) Reader() *Reader { return d.r }

// OrderLog returns the record stream for an OrderLog file.
func (d *Decoder) OrderLog() (*OrderLogStream, error) {
	if d.Header.Stream != StreamOrderLog {
		return nil, Errorf(KindValidation, "stream", "file carries %s, want OrderLog", d.Header.Stream)
	}
	return NewOrderLogStream(d.r), nil
}

// Quotes returns the record stream for a Quotes file.
func (d *Decoder) Quotes() (*QuotesStream, error) {
	if d.Header.Stream != StreamQuotes {
		return nil, Errorf(KindValidation, "stream", "file carries %s, want Quotes", d.Header.Stream)
	}
	return NewQuotesStream(d.r), nil
}

// Deals returns the record stream for a Deals file.
func (d *Decoder) Deals() (*DealsStream, error) {
	if d.Header.Stream != StreamDeals {
		return nil, Errorf(KindValidation, "stream", "file carries %s, want Deals", d.Header.Stream)
	}
	return NewDealsStream(d.r), nil
}

// AuxInfo returns the record stream for an AuxInfo file.
func (d *Decoder) AuxInfo() (*AuxInfoStream, error) {
	if d.Header.Stream != StreamAuxInfo {
		return nil, Errorf(KindValidation, "stream", "file carries %s, want AuxInfo", d.Header.Stream)
	}
	return NewAuxInfoStream(d.r), nil
}
