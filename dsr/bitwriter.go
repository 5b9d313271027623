// Package dsr implements the Digitales Satellitenradio (DSR) baseband
// channel encoder: the 77-bit block / 320-bit frame pipeline, its BCH(63,44)
// parity, PRBS scrambling, bit-level interleaver, and Programme Service
// label codec.
package dsr

import "github.com/mewkiz/pkg/errutil"

// MaxFieldWidth is the largest field width a single Write/Read call accepts.
const MaxFieldWidth = 32

// Write packs the low nbits of value MSB-first into buf starting at
// bitOffset, and returns the offset immediately following the written
// field. Earlier-written bits are preserved; bits beyond the field are
// untouched except within the byte straddled by the field's edges.
//
// buf must be zero-valued on entry for bits the caller has not yet written,
// since Write only ever sets bits, never clears them.
func Write(buf []byte, bitOffset int, value uint64, nbits int) (next int, err error) {
	if nbits == 0 {
		return bitOffset, nil
	}
	if nbits < 0 || nbits > MaxFieldWidth {
		return bitOffset, errutil.Newf("dsr: invalid field width %d, want 0..%d", nbits, MaxFieldWidth)
	}
	if bitOffset < 0 || bitOffset+nbits > 8*len(buf) {
		return bitOffset, errutil.Newf("dsr: bit range [%d,%d) out of bounds for %d-byte buffer", bitOffset, bitOffset+nbits, len(buf))
	}
	for i := 0; i < nbits; i++ {
		// MSB-first: bit i of the field (0 = most significant of the nbits
		// written) lands at bitOffset+i.
		bit := (value >> uint(nbits-1-i)) & 1
		if bit != 0 {
			pos := bitOffset + i
			buf[pos/8] |= 1 << uint(7-pos%8)
		}
	}
	return bitOffset + nbits, nil
}

// Read extracts nbits MSB-first from buf starting at bitOffset and returns
// the value along with the offset immediately following the read field.
func Read(buf []byte, bitOffset int, nbits int) (value uint64, next int, err error) {
	if nbits == 0 {
		return 0, bitOffset, nil
	}
	if nbits < 0 || nbits > MaxFieldWidth {
		return 0, bitOffset, errutil.Newf("dsr: invalid field width %d, want 0..%d", nbits, MaxFieldWidth)
	}
	if bitOffset < 0 || bitOffset+nbits > 8*len(buf) {
		return 0, bitOffset, errutil.Newf("dsr: bit range [%d,%d) out of bounds for %d-byte buffer", bitOffset, bitOffset+nbits, len(buf))
	}
	var v uint64
	for i := 0; i < nbits; i++ {
		pos := bitOffset + i
		bit := (buf[pos/8] >> uint(7-pos%8)) & 1
		v = v<<1 | uint64(bit)
	}
	return v, bitOffset + nbits, nil
}
