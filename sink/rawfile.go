package sink

import (
	"io"

	"github.com/pkg/errors"
)

// RawFile writes bytes through unchanged to an underlying io.WriteCloser.
// It is the Sink used for unmodulated raw frame bytes written straight to
// a file or stdout, with no per-sample format conversion.
//
// Grounded on original_source/src/rf_file.c's _rf_file_write_unmod_uint8,
// which fwrites the raw byte buffer directly; the hex-highlighting preview
// that function prints around 0xA9 0x59 sync markers is replaced here with
// a structured one-shot debug log, since DSR's 11-bit sync word does not
// byte-align the way the original's 2-byte marker did.
type RawFile struct {
	wc     io.WriteCloser
	logger loggerFunc

	previewDone bool
}

// loggerFunc is satisfied by (*log.Logger).Debug; kept as a narrow
// function type so RawFile does not need to import charmbracelet/log just
// to accept an optional logger.
type loggerFunc func(msg interface{}, keyvals ...interface{})

// NewRawFile wraps wc. log may be nil to disable preview logging.
func NewRawFile(wc io.WriteCloser, log loggerFunc) *RawFile {
	return &RawFile{wc: wc, logger: log}
}

// Write implements Sink.
func (r *RawFile) Write(p []byte) (int, error) {
	if !r.previewDone {
		r.previewDone = true
		if r.logger != nil {
			shown := len(p)
			if shown > previewBytes {
				shown = previewBytes
			}
			r.logger("raw sink: writing preview", "bytes", len(p), "preview_bytes", shown)
		}
	}
	n, err := r.wc.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "sink: raw file write")
	}
	return n, nil
}

// Close implements Sink.
func (r *RawFile) Close() error {
	return r.wc.Close()
}
