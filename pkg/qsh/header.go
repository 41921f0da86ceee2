package qsh

import "bytes"

var signature = []byte("QScalp History Data")

// supportedVersion is the only container version this decoder reads.
const supportedVersion = 4

// ParseHeader consumes and validates the QSH container prefix. It must
// be called before pulling records.
func ParseHeader(r *Reader) (Header, error) {
	sig, err := r.Bytes(len(signature))
	if err != nil {
		return Header{}, err
	}
	if !bytes.Equal(sig, signature) {
		return Header{}, Errorf(KindValidation, "header", "bad signature %q, not a qsh file", sig)
	}

	version, err := r.Byte()
	if err != nil {
		return Header{}, err
	}
	if version != supportedVersion {
		return Header{}, Errorf(KindValidation, "header", "unsupported format version %d", version)
	}

	recorder, err := r.String()
	if err != nil {
		return Header{}, err
	}
	comment, err := r.String()
	if err != nil {
		return Header{}, err
	}
	recordingTime, err := r.I64()
	if err != nil {
		return Header{}, err
	}
	if recordingTime < 0 {
		recordingTime = 0
	}

	streamCount, err := r.Byte()
	if err != nil {
		return Header{}, err
	}
	if streamCount != 1 {
		return Header{}, Errorf(KindValidation, "header", "stream_count=%d, multi-stream files are not supported", streamCount)
	}

	streamType, err := r.Byte()
	if err != nil {
		return Header{}, err
	}
	stream := StreamKind(streamType)
	switch stream {
	case StreamQuotes, StreamDeals, StreamAuxInfo, StreamOrderLog:
	default:
		return Header{}, Errorf(KindValidation, "header", "unsupported stream type 0x%02x", streamType)
	}

	instrument, err := r.String()
	if err != nil {
		return Header{}, err
	}

	return Header{
		Version:       version,
		Recorder:      recorder,
		Comment:       comment,
		RecordingTime: recordingTime,
		Stream:        stream,
		Instrument:    instrument,
	}, nil
}
