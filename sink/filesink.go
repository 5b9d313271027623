package sink

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// SampleFormat selects the on-the-wire byte width and encoding a
// FormatWriter converts modulated int16 IQ samples into before handing
// them to the underlying io.Writer.
//
// Grounded on original_source/src/rf_file.c's rf_file_open type switch
// (RF_UINT8, RF_INT8, RF_UINT16, RF_INT16, RF_INT32, RF_FLOAT,
// RF_UNMOD_UINT8), one format per exported conversion function there.
type SampleFormat int

const (
	// FormatInt16 passes samples through unchanged, two bytes per value,
	// little-endian. Grounded on _rf_file_write_int16's direct fwrite of
	// the input buffer with no conversion step.
	FormatInt16 SampleFormat = iota
	// FormatUint8 shifts each sample into the unsigned top byte.
	// Grounded on _rf_file_write_uint8.
	FormatUint8
	// FormatInt8 takes each sample's signed top byte.
	// Grounded on _rf_file_write_int8.
	FormatInt8
	// FormatUint16 offsets each sample into the unsigned 16-bit range.
	// Grounded on _rf_file_write_uint16.
	FormatUint16
	// FormatInt32 widens each sample into a 32-bit value, replicating the
	// low 16 bits into the high half as the original does.
	// Grounded on _rf_file_write_int32.
	FormatInt32
	// FormatFloat32 scales each sample to the range [-1,1].
	// Grounded on _rf_file_write_float.
	FormatFloat32
)

// previewBytes caps the preview size reported by the one-shot debug log a
// sink emits on its first write, mirroring rf_file.c's
// MAX_BYTES_TO_SHOW/once_printed behaviour. Only byte counts are logged,
// not the bytes themselves.
const previewBytes = 2048

// FormatWriter converts modulated IQ sample pairs to a fixed-width wire
// format and writes the result to an underlying io.Writer, logging the
// size of the first block once at debug level. Unlike the C original's file
// static/global once_printed flag, preview state lives per-instance in
// previewOnce, so independent FormatWriters in the same process log
// independently.
type FormatWriter struct {
	w      io.Writer
	format SampleFormat
	logger *log.Logger

	previewOnce sync.Once
}

// NewFormatWriter wraps w, converting samples to format before each
// write. A nil logger disables preview logging.
func NewFormatWriter(w io.Writer, format SampleFormat, logger *log.Logger) *FormatWriter {
	return &FormatWriter{w: w, format: format, logger: logger}
}

// WriteSamples converts iq (interleaved I,Q,I,Q,... pairs) to the
// configured format and writes the result, returning the number of IQ
// sample pairs written.
func (f *FormatWriter) WriteSamples(iq []int16) (int, error) {
	if len(iq)%2 != 0 {
		return 0, errors.Errorf("sink: iq sample slice has odd length %d", len(iq))
	}
	npairs := len(iq) / 2

	buf, err := f.encode(iq)
	if err != nil {
		return 0, errors.Wrap(err, "sink: encoding samples")
	}

	f.previewOnce.Do(func() { f.logPreview(buf) })

	if _, err := f.w.Write(buf); err != nil {
		return 0, errors.Wrap(err, "sink: writing formatted samples")
	}
	return npairs, nil
}

func (f *FormatWriter) encode(iq []int16) ([]byte, error) {
	n := len(iq)
	switch f.format {
	case FormatInt16:
		buf := make([]byte, n*2)
		for i, v := range iq {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		}
		return buf, nil
	case FormatUint8:
		buf := make([]byte, n)
		for i, v := range iq {
			buf[i] = byte((int32(v) - math.MinInt16) >> 8)
		}
		return buf, nil
	case FormatInt8:
		buf := make([]byte, n)
		for i, v := range iq {
			buf[i] = byte(v >> 8)
		}
		return buf, nil
	case FormatUint16:
		buf := make([]byte, n*2)
		for i, v := range iq {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(int32(v)-math.MinInt16))
		}
		return buf, nil
	case FormatInt32:
		buf := make([]byte, n*4)
		for i, v := range iq {
			u := uint32(uint16(v))
			binary.LittleEndian.PutUint32(buf[i*4:], u<<16|u)
		}
		return buf, nil
	case FormatFloat32:
		const scale = 1.0 / 32767.0
		buf := make([]byte, n*4)
		for i, v := range iq {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)*scale))
		}
		return buf, nil
	default:
		return nil, errors.Errorf("sink: unrecognised sample format %d", f.format)
	}
}

func (f *FormatWriter) logPreview(buf []byte) {
	if f.logger == nil {
		return
	}
	shown := buf
	if len(shown) > previewBytes {
		shown = shown[:previewBytes]
	}
	f.logger.Debug("writing formatted IQ preview", "format", f.format, "bytes", len(buf), "preview_bytes", len(shown))
}
