package qsh

import (
	"bytes"
	"math"
	"testing"
	"testing/iotest"
)

func newTestReader(b []byte) *Reader {
	return NewReader(bytes.NewReader(b))
}

func TestULEB(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
	}{
		{"zero", 0},
		{"one byte max", 127},
		{"two bytes", 128},
		{"mid", 300},
		{"sentinel", growingSentinel},
		{"max", math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(ulebEnc(tt.v))
			got, err := r.ULEB()
			if err != nil {
				t.Fatalf("ULEB() error: %v", err)
			}
			if got != tt.v {
				t.Errorf("ULEB() = %d, want %d", got, tt.v)
			}
		})
	}
}

func TestULEBOverflow(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"too many bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{"final byte too large", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(tt.in)
			if _, err := r.ULEB(); !IsKind(err, KindOverflow) {
				t.Errorf("ULEB() error = %v, want Overflow", err)
			}
		})
	}
}

func TestSLEB(t *testing.T) {
	tests := []int64{0, 1, -1, 63, 64, -64, -65, 127, 128, -128, 300, -300, math.MaxInt64, math.MinInt64}
	for _, v := range tests {
		r := newTestReader(slebEnc(v))
		got, err := r.SLEB()
		if err != nil {
			t.Fatalf("SLEB(%d) error: %v", v, err)
		}
		if got != v {
			t.Errorf("SLEB() = %d, want %d", got, v)
		}
	}
}

func TestGrowing(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int64
	}{
		{"plain uleb branch", growingEnc(42), 42},
		{"just below sentinel", ulebEnc(growingSentinel - 1), growingSentinel - 1},
		{"sentinel escapes to sleb", growingEscEnc(-5), -5},
		{"sentinel with large value", growingEscEnc(1 << 40), 1 << 40},
		{"sentinel encoding its own value", growingEscEnc(growingSentinel), growingSentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReader(tt.in)
			got, err := r.Growing()
			if err != nil {
				t.Fatalf("Growing() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Growing() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGrowingOverflow(t *testing.T) {
	// A ULEB value above MaxInt64 that is not the sentinel cannot be a
	// growing integer.
	r := newTestReader(ulebEnc(math.MaxUint64))
	if _, err := r.Growing(); !IsKind(err, KindOverflow) {
		t.Errorf("Growing() error = %v, want Overflow", err)
	}
}

func TestFixedWidth(t *testing.T) {
	in := concat(
		[]byte{0xab},
		u16Enc(0xbeef),
		u64Enc(0x0102030405060708),
		u64Enc(math.Float64bits(-2.5)),
	)
	r := newTestReader(in)

	b, err := r.Byte()
	if err != nil || b != 0xab {
		t.Fatalf("Byte() = %x, %v", b, err)
	}
	u16, err := r.U16()
	if err != nil || u16 != 0xbeef {
		t.Fatalf("U16() = %x, %v", u16, err)
	}
	u64, err := r.U64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("U64() = %x, %v", u64, err)
	}
	f, err := r.F64()
	if err != nil || f != -2.5 {
		t.Fatalf("F64() = %v, %v", f, err)
	}
	if !r.EOF() {
		t.Error("EOF() = false after consuming everything")
	}
}

func TestU64AcrossRefills(t *testing.T) {
	// A one-byte-at-a-time source forces every multi-byte read to
	// straddle refill boundaries.
	src := iotest.OneByteReader(bytes.NewReader(u64Enc(0x1122334455667788)))
	r := NewReader(src)
	got, err := r.U64()
	if err != nil {
		t.Fatalf("U64() error: %v", err)
	}
	if got != 0x1122334455667788 {
		t.Errorf("U64() = %x, want 1122334455667788", got)
	}
}

func TestUnexpectedEnd(t *testing.T) {
	r := newTestReader([]byte{0x01, 0x02, 0x03})
	if _, err := r.U64(); !IsKind(err, KindIo) {
		t.Errorf("U64() on short input error = %v, want Io", err)
	}
}

func TestString(t *testing.T) {
	r := newTestReader(strEnc("Si-3.20"))
	got, err := r.String()
	if err != nil {
		t.Fatalf("String() error: %v", err)
	}
	if got != "Si-3.20" {
		t.Errorf("String() = %q, want %q", got, "Si-3.20")
	}
}

func TestStringInvalidUtf8(t *testing.T) {
	in := append(slebEnc(2), 0xff, 0xfe)
	r := newTestReader(in)
	if _, err := r.String(); !IsKind(err, KindValidation) {
		t.Errorf("String() error = %v, want Validation", err)
	}
}

func TestStringNegativeLength(t *testing.T) {
	r := newTestReader(slebEnc(-1))
	if _, err := r.String(); !IsKind(err, KindValidation) {
		t.Errorf("String() error = %v, want Validation", err)
	}
}

func TestCadd(t *testing.T) {
	if v, err := cadd(40, 2); err != nil || v != 42 {
		t.Errorf("cadd(40, 2) = %d, %v", v, err)
	}
	if _, err := cadd(math.MaxInt64, 1); !IsKind(err, KindOverflow) {
		t.Errorf("cadd(max, 1) error = %v, want Overflow", err)
	}
	if _, err := cadd(math.MinInt64, -1); !IsKind(err, KindOverflow) {
		t.Errorf("cadd(min, -1) error = %v, want Overflow", err)
	}
}
