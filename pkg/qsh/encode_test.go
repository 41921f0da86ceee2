package qsh

import "encoding/binary"

// Byte-level encoders mirroring the QSH primitive encodings, used to
// construct test inputs.

func ulebEnc(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func slebEnc(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// growingEnc encodes v on the plain ULEB branch; negative values and
// the sentinel value itself fall back to growingEscEnc.
func growingEnc(v int64) []byte {
	if v >= 0 && v != growingSentinel {
		return ulebEnc(uint64(v))
	}
	return growingEscEnc(v)
}

// growingEscEnc forces the sentinel + SLEB branch.
func growingEscEnc(v int64) []byte {
	return append(ulebEnc(growingSentinel), slebEnc(v)...)
}

func strEnc(s string) []byte {
	return append(slebEnc(int64(len(s))), s...)
}

func u16Enc(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func u64Enc(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func i64Enc(v int64) []byte { return u64Enc(uint64(v)) }

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
