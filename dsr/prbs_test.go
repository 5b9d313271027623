package dsr

import "testing"

// TestPrbsS4 pins scenario S4: the first 8 output bits starting from the
// fixed seed.
func TestPrbsS4(t *testing.T) {
	want := []byte{1, 0, 1, 1, 1, 1, 0, 1}
	p := NewPrbs()
	for i, w := range want {
		got := p.NextBit()
		if got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}
}

// TestPrbsPeriod pins invariant 4: period exactly 511, and bit 0 of the
// initial state equals the first output bit.
func TestPrbsPeriod(t *testing.T) {
	p := NewPrbs()
	first := p.NextBit()
	if first != PrbsSeed&1 {
		t.Fatalf("first bit = %d, want %d (LSB of seed)", first, PrbsSeed&1)
	}
	p.Reset()
	seen := make([]byte, 0, 511)
	seen = append(seen, p.NextBit())
	for i := 1; i < 2000; i++ {
		b := p.NextBit()
		if i < 511 {
			seen = append(seen, b)
			continue
		}
		if i == 511 {
			if b != seen[0] {
				t.Fatalf("sequence did not repeat after 511 bits: got %d, want %d", b, seen[0])
			}
		}
	}

	// The LFSR state first returns to the seed after exactly 511 steps.
	p.Reset()
	for i := 1; i <= 511; i++ {
		p.NextBit()
		if (p.state == PrbsSeed) != (i == 511) {
			t.Fatalf("after %d steps state = %#x (seed %#x): period is not 511", i, p.state, PrbsSeed)
		}
	}
}

func TestPrbsXorRangeInvolution(t *testing.T) {
	buf := make([]byte, 40)
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	orig := append([]byte(nil), buf...)

	p := NewPrbs()
	if err := p.XorRange(buf, 11, 309); err != nil {
		t.Fatalf("XorRange: %v", err)
	}
	p.Reset()
	if err := p.XorRange(buf, 11, 309); err != nil {
		t.Fatalf("XorRange: %v", err)
	}
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("byte %d = %#x, want %#x (involution failed)", i, buf[i], orig[i])
		}
	}
}
