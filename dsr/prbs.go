package dsr

import "github.com/mewkiz/pkg/errutil"

// PrbsSeed is the fixed initial LFSR state used for every frame's
// scrambling mask.
const PrbsSeed = 0x0BD

// Prbs is a 9-bit linear feedback shift register used for energy-dispersal
// scrambling. The zero value is not ready for use; call Reset first.
type Prbs struct {
	state uint16
}

// NewPrbs returns a Prbs already reset to the fixed seed.
func NewPrbs() *Prbs {
	p := &Prbs{}
	p.Reset()
	return p
}

// Reset restores the LFSR to its fixed initial state, 0x0BD.
func (p *Prbs) Reset() {
	p.state = PrbsSeed
}

// NextBit returns the next output bit and advances the LFSR.
func (p *Prbs) NextBit() byte {
	out := byte(p.state & 1)
	fb := (p.state ^ (p.state >> 4)) & 1
	p.state = (p.state >> 1) | (fb << 8)
	return out
}

// XorRange XORs nbits of PRBS output into buf starting at startBit, using
// the same MSB-first bit addressing as Write/Read.
func (p *Prbs) XorRange(buf []byte, startBit, nbits int) error {
	if startBit < 0 || nbits < 0 || startBit+nbits > 8*len(buf) {
		return errutil.Newf("dsr: PRBS range [%d,%d) out of bounds for %d-byte buffer", startBit, startBit+nbits, len(buf))
	}
	for i := 0; i < nbits; i++ {
		pos := startBit + i
		if p.NextBit() != 0 {
			buf[pos/8] ^= 1 << uint(7-pos%8)
		}
	}
	return nil
}
