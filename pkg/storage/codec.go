package storage

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/qscalp/qsh-go/pkg/qsh"
)

// L2 wire format, one message per frame:
//
//	tag byte            0=Quote 1=Remove 2=Clear
//	Quote:  side byte, price i64 LE, size i64 LE
//	Remove: side byte, price i64 LE
//	Clear:  tag only
//
// A writer and reader must be paired; the stream is gzip-compressed as
// a whole.
const (
	tagQuote byte = iota
	tagRemove
	tagClear
)

// AppendMessage appends the wire encoding of m to buf.
func AppendMessage(buf []byte, m qsh.L2Message) []byte {
	switch m.Kind {
	case qsh.L2Quote:
		buf = append(buf, tagQuote, byte(m.Side))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(m.Price))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(m.Size))
	case qsh.L2Remove:
		buf = append(buf, tagRemove, byte(m.Side))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(m.Price))
	case qsh.L2Clear:
		buf = append(buf, tagClear)
	}
	return buf
}

// EncodeBatch encodes a transaction's events back to back.
func EncodeBatch(msgs []qsh.L2Message) []byte {
	var buf []byte
	for _, m := range msgs {
		buf = AppendMessage(buf, m)
	}
	return buf
}

// DecodeBatch decodes a back-to-back encoded batch.
func DecodeBatch(b []byte) ([]qsh.L2Message, error) {
	var out []qsh.L2Message
	for len(b) > 0 {
		m, n, err := decodeOne(b)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		b = b[n:]
	}
	return out, nil
}

func decodeOne(b []byte) (qsh.L2Message, int, error) {
	switch b[0] {
	case tagQuote:
		if len(b) < 18 {
			return qsh.L2Message{}, 0, qsh.Errorf(qsh.KindIo, "l2codec", "truncated quote frame")
		}
		return qsh.L2Message{
			Kind:  qsh.L2Quote,
			Side:  qsh.Side(b[1]),
			Price: int64(binary.LittleEndian.Uint64(b[2:])),
			Size:  int64(binary.LittleEndian.Uint64(b[10:])),
		}, 18, nil
	case tagRemove:
		if len(b) < 10 {
			return qsh.L2Message{}, 0, qsh.Errorf(qsh.KindIo, "l2codec", "truncated remove frame")
		}
		return qsh.L2Message{
			Kind:  qsh.L2Remove,
			Side:  qsh.Side(b[1]),
			Price: int64(binary.LittleEndian.Uint64(b[2:])),
		}, 10, nil
	case tagClear:
		return qsh.L2Message{Kind: qsh.L2Clear}, 1, nil
	default:
		return qsh.L2Message{}, 0, qsh.Errorf(qsh.KindValidation, "l2codec", "unknown message tag 0x%02x", b[0])
	}
}

// EventWriter streams L2 messages into a gzipped sink.
type EventWriter struct {
	gz  *gzip.Writer
	buf []byte
}

func NewEventWriter(w io.Writer) *EventWriter {
	gz, _ := gzip.NewWriterLevel(w, gzip.BestCompression)
	return &EventWriter{gz: gz}
}

// Write appends one batch of messages to the stream.
func (w *EventWriter) Write(msgs []qsh.L2Message) error {
	w.buf = w.buf[:0]
	for _, m := range msgs {
		w.buf = AppendMessage(w.buf, m)
	}
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.gz.Write(w.buf); err != nil {
		return qsh.WrapIo("l2codec.write", err)
	}
	return nil
}

// Close flushes the gzip stream. The underlying writer stays open.
func (w *EventWriter) Close() error { return w.gz.Close() }

// EventReader is the matching reader: one message per Next, io.EOF at
// clean end of stream.
type EventReader struct {
	gz *gzip.Reader
	br *bufio.Reader
}

func NewEventReader(r io.Reader) (*EventReader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, qsh.WrapIo("l2codec.open", err)
	}
	return &EventReader{gz: gz, br: bufio.NewReader(gz)}, nil
}

func (r *EventReader) Next() (qsh.L2Message, error) {
	tag, err := r.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return qsh.L2Message{}, io.EOF
		}
		return qsh.L2Message{}, qsh.WrapIo("l2codec.read", err)
	}
	m := qsh.L2Message{}
	switch tag {
	case tagQuote:
		m.Kind = qsh.L2Quote
		var b [17]byte
		if _, err := io.ReadFull(r.br, b[:]); err != nil {
			return qsh.L2Message{}, qsh.WrapIo("l2codec.read", err)
		}
		m.Side = qsh.Side(b[0])
		m.Price = int64(binary.LittleEndian.Uint64(b[1:]))
		m.Size = int64(binary.LittleEndian.Uint64(b[9:]))
	case tagRemove:
		m.Kind = qsh.L2Remove
		var b [9]byte
		if _, err := io.ReadFull(r.br, b[:]); err != nil {
			return qsh.L2Message{}, qsh.WrapIo("l2codec.read", err)
		}
		m.Side = qsh.Side(b[0])
		m.Price = int64(binary.LittleEndian.Uint64(b[1:]))
	case tagClear:
		m.Kind = qsh.L2Clear
	default:
		return qsh.L2Message{}, qsh.Errorf(qsh.KindValidation, "l2codec", "unknown message tag 0x%02x", tag)
	}
	return m, nil
}

func (r *EventReader) Close() error { return r.gz.Close() }
