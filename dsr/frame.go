package dsr

import "github.com/mewkiz/pkg/errutil"

// FrameSize is the size in bytes of one DSR frame.
const FrameSize = 40

// SyncWord is the 11-bit pattern marking frame A; frame B uses its 11-bit
// complement.
const SyncWord = 0x712
const syncMask = 0x7FF

// Frame is one assembled 320-bit DSR frame.
type Frame [FrameSize]byte

// interleaveSpread[x] scatters the bits of byte x (C-style LSB bit
// numbering: bit i is (x>>i)&1) into the even-weighted bit positions of a
// 16-bit word: interleaveSpread[x] == sum((x>>i)&1 << (2*i), i=0..7). This
// is the table form described in SPEC_FULL.md; it is verified against the
// formula in frame_test.go (invariant 2) but the production Assemble path
// below uses the direct bit-pair reference form for clarity, since the
// table's LSB-indexed convention does not align with the MSB-first
// addressing BlockBuilder and Write/Read use elsewhere in this package, and
// reconciling the two inside the hot path would trade a working primitive
// for a subtler one.
var interleaveSpread [256]uint16

func init() {
	for x := 0; x < 256; x++ {
		var v uint16
		for i := 0; i < 8; i++ {
			if x>>uint(i)&1 != 0 {
				v |= 1 << uint(2*i)
			}
		}
		interleaveSpread[x] = v
	}
}

// interleaveBitPair writes the 154-bit interleave of blocks a and b
// (position 2i = bit i of a, position 2i+1 = bit i of b, for i=0..76,
// MSB-first addressing) into dst starting at dstOffset.
func interleaveBitPair(dst []byte, dstOffset int, a, b Block) (next int, err error) {
	off := dstOffset
	for i := 0; i < 77; i++ {
		abit, _, err := Read(a[:], i, 1)
		if err != nil {
			return off, errutil.Err(err)
		}
		bbit, _, err := Read(b[:], i, 1)
		if err != nil {
			return off, errutil.Err(err)
		}
		off, err = Write(dst, off, abit, 1)
		if err != nil {
			return off, errutil.Err(err)
		}
		off, err = Write(dst, off, bbit, 1)
		if err != nil {
			return off, errutil.Err(err)
		}
	}
	return off, nil
}

// AssembleFrame packs two block pairs into one 320-bit DSR frame: sync word
// and SA bit, the interleaved payload halves, then the PRBS scramble over
// bits 11..319. frameParity selects the A (false) or B (true) sync word; sa
// defaults to false when no service-descriptor stream is wired in (see
// SPEC_FULL.md §9).
func AssembleFrame(blockAPair, blockBPair [2]Block, frameParity bool, sa bool) (Frame, error) {
	var fr Frame
	buf := fr[:]

	sync := uint64(SyncWord)
	if frameParity {
		sync = ^uint64(SyncWord) & syncMask
	}
	off, err := Write(buf, 0, sync, 11)
	if err != nil {
		return fr, errutil.Err(err)
	}

	saBit := uint64(0)
	if sa {
		saBit = 1
	}
	off, err = Write(buf, off, saBit, 1)
	if err != nil {
		return fr, errutil.Err(err)
	}
	if off != 12 {
		return fr, errutil.Newf("dsr: internal offset mismatch after sync+SA: %d", off)
	}

	off, err = interleaveBitPair(buf, off, blockAPair[0], blockAPair[1])
	if err != nil {
		return fr, errutil.Err(err)
	}
	if off != 166 {
		return fr, errutil.Newf("dsr: internal offset mismatch after half A: %d", off)
	}

	off, err = interleaveBitPair(buf, off, blockBPair[0], blockBPair[1])
	if err != nil {
		return fr, errutil.Err(err)
	}
	if off != 320 {
		return fr, errutil.Newf("dsr: internal offset mismatch after half B: %d", off)
	}

	prbs := NewPrbs()
	// Skip 11 bits (the sync word is never scrambled), then scramble bits
	// 11..319.
	for i := 0; i < 11; i++ {
		prbs.NextBit()
	}
	if err := prbs.XorRange(buf, 11, 309); err != nil {
		return fr, errutil.Err(err)
	}

	return fr, nil
}
