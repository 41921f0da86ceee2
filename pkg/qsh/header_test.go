package qsh

import "testing"

func headerBytes(sig string, version byte, streamCount byte, streamType byte) []byte {
	return concat(
		[]byte(sig),
		[]byte{version},
		strEnc("QScalp"),
		strEnc("test recording"),
		i64Enc(637_200_000_000_000),
		[]byte{streamCount},
		[]byte{streamType},
		strEnc("Si-3.20"),
	)
}

func TestParseHeader(t *testing.T) {
	r := newTestReader(headerBytes("QScalp History Data", 4, 1, 0x70))
	h, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader() error: %v", err)
	}
	if h.Version != 4 {
		t.Errorf("Version = %d, want 4", h.Version)
	}
	if h.Recorder != "QScalp" {
		t.Errorf("Recorder = %q", h.Recorder)
	}
	if h.Comment != "test recording" {
		t.Errorf("Comment = %q", h.Comment)
	}
	if h.RecordingTime != 637_200_000_000_000 {
		t.Errorf("RecordingTime = %d", h.RecordingTime)
	}
	if h.Stream != StreamOrderLog {
		t.Errorf("Stream = %v, want OrderLog", h.Stream)
	}
	if h.Instrument != "Si-3.20" {
		t.Errorf("Instrument = %q", h.Instrument)
	}
}

func TestParseHeaderNegativeRecordingTimeClamped(t *testing.T) {
	in := concat(
		[]byte("QScalp History Data"),
		[]byte{4},
		strEnc(""),
		strEnc(""),
		i64Enc(-10),
		[]byte{1},
		[]byte{0x10},
		strEnc("SBER"),
	)
	h, err := ParseHeader(newTestReader(in))
	if err != nil {
		t.Fatalf("ParseHeader() error: %v", err)
	}
	if h.RecordingTime != 0 {
		t.Errorf("RecordingTime = %d, want 0", h.RecordingTime)
	}
}

func TestParseHeaderRejects(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"bad signature", headerBytes("QScalp History Fata", 4, 1, 0x70)},
		{"wrong version", headerBytes("QScalp History Data", 5, 1, 0x70)},
		{"zero streams", headerBytes("QScalp History Data", 4, 0, 0x70)},
		{"two streams", headerBytes("QScalp History Data", 4, 2, 0x70)},
		{"own orders stream", headerBytes("QScalp History Data", 4, 1, 0x30)},
		{"own trades stream", headerBytes("QScalp History Data", 4, 1, 0x40)},
		{"messages stream", headerBytes("QScalp History Data", 4, 1, 0x50)},
		{"garbage stream", headerBytes("QScalp History Data", 4, 1, 0xff)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(newTestReader(tt.in)); !IsKind(err, KindValidation) {
				t.Errorf("ParseHeader() error = %v, want Validation", err)
			}
		})
	}
}

func TestStreamKindMapping(t *testing.T) {
	tests := []struct {
		b    byte
		want StreamKind
	}{
		{0x10, StreamQuotes},
		{0x20, StreamDeals},
		{0x60, StreamAuxInfo},
		{0x70, StreamOrderLog},
	}
	for _, tt := range tests {
		h, err := ParseHeader(newTestReader(headerBytes("QScalp History Data", 4, 1, tt.b)))
		if err != nil {
			t.Fatalf("ParseHeader(0x%02x) error: %v", tt.b, err)
		}
		if h.Stream != tt.want {
			t.Errorf("Stream(0x%02x) = %v, want %v", tt.b, h.Stream, tt.want)
		}
	}
}
