package sink

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestFormatWriterInt16PassThrough(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFormatWriter(&buf, FormatInt16, nil)
	iq := []int16{100, -100, 32767, -32768}
	n, err := fw.WriteSamples(iq)
	if err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if buf.Len() != 8 {
		t.Fatalf("buf.Len() = %d, want 8", buf.Len())
	}
	for i, want := range iq {
		got := int16(binary.LittleEndian.Uint16(buf.Bytes()[i*2:]))
		if got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestFormatWriterUint8Offset(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFormatWriter(&buf, FormatUint8, nil)
	// Minimum int16 must map to 0, maximum to 255.
	if _, err := fw.WriteSamples([]int16{-32768, 32767}); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	got := buf.Bytes()
	if got[0] != 0 {
		t.Errorf("I byte = %d, want 0", got[0])
	}
	if got[1] != 255 {
		t.Errorf("Q byte = %d, want 255", got[1])
	}
}

func TestFormatWriterOddLengthRejected(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFormatWriter(&buf, FormatInt16, nil)
	if _, err := fw.WriteSamples([]int16{1, 2, 3}); err == nil {
		t.Error("WriteSamples with odd-length iq slice: want error, got nil")
	}
}

func TestFormatWriterFloat32Range(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFormatWriter(&buf, FormatFloat32, nil)
	if _, err := fw.WriteSamples([]int16{32767, -32768}); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if buf.Len() != 8 {
		t.Fatalf("buf.Len() = %d, want 8", buf.Len())
	}
}

func TestFormatWriterUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFormatWriter(&buf, SampleFormat(99), nil)
	if _, err := fw.WriteSamples([]int16{1, 2}); err == nil {
		t.Error("WriteSamples with unknown format: want error, got nil")
	}
}
