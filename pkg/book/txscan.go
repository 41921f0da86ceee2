package book

import "github.com/qscalp/qsh-go/pkg/qsh"

// RecordSource is any pull source of order-log records. *qsh.OrderLogStream
// satisfies it; Next returns io.EOF at clean end of stream.
type RecordSource interface {
	Next() (qsh.OrderLog, error)
}

// TxScanner groups order-log records into transactions: a maximal run
// of records whose last one carries TxEnd. Records failing the filter
// (when set) are dropped before grouping. A trailing run without TxEnd
// is discarded when the source ends.
//
// Memory stays O(max transaction size); the scanner never buffers the
// stream.
type TxScanner struct {
	src    RecordSource
	filter func(*qsh.OrderLog) bool
	acc    []qsh.OrderLog
}

// NewTxScanner wraps src. filter may be nil to group every record.
func NewTxScanner(src RecordSource, filter func(*qsh.OrderLog) bool) *TxScanner {
	return &TxScanner{src: src, filter: filter, acc: make([]qsh.OrderLog, 0, 16)}
}

// Next returns the next complete transaction, io.EOF at end of input,
// or the first decode error.
func (s *TxScanner) Next() ([]qsh.OrderLog, error) {
	for {
		rec, err := s.src.Next()
		if err != nil {
			// Includes io.EOF: a trailing unterminated group is dropped.
			return nil, err
		}
		if s.filter != nil && !s.filter(&rec) {
			continue
		}
		s.acc = append(s.acc, rec)
		if TxEnd(&rec) {
			tx := s.acc
			s.acc = make([]qsh.OrderLog, 0, 16)
			return tx, nil
		}
	}
}
