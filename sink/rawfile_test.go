package sink

import (
	"bytes"
	"io"
	"testing"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func TestRawFileWritesThroughUnchanged(t *testing.T) {
	var buf bytes.Buffer
	r := NewRawFile(nopWriteCloser{&buf}, nil)
	data := []byte{0x71, 0x20, 0x00, 0xff}
	n, err := r.Write(data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(data) {
		t.Errorf("n = %d, want %d", n, len(data))
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("buf = %v, want %v", buf.Bytes(), data)
	}
}

func TestRawFileLogsPreviewOnce(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	logFn := func(msg interface{}, keyvals ...interface{}) { calls++ }
	r := NewRawFile(nopWriteCloser{&buf}, logFn)

	r.Write([]byte{1, 2, 3})
	r.Write([]byte{4, 5, 6})

	if calls != 1 {
		t.Errorf("logger called %d times, want 1 (preview only on first write)", calls)
	}
}

func TestRawFileClose(t *testing.T) {
	var buf bytes.Buffer
	r := NewRawFile(nopWriteCloser{&buf}, nil)
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
