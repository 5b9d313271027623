package dsr

import "testing"

func TestBuildBlockParityInvariant(t *testing.T) {
	tests := [][4]int16{
		{0, 0, 0, 0},
		{32767, -32768, 1234, -1234},
		{-1, -1, -1, -1},
		{100, -100, 200, -200},
	}
	for _, tt := range tests {
		blk := BuildBlock(tt[0], tt[1], tt[2], tt[3])
		hi, _, err := Read(blk[:], 0, 22)
		if err != nil {
			t.Fatalf("Read data: %v", err)
		}
		lo, _, err := Read(blk[:], 22, 22)
		if err != nil {
			t.Fatalf("Read data: %v", err)
		}
		data := hi<<22 | lo
		parity, _, err := Read(blk[:], 44, 19)
		if err != nil {
			t.Fatalf("Read parity: %v", err)
		}
		if want := BchParity(data); uint32(parity) != want {
			t.Errorf("%v: stored parity %#x, want %#x", tt, parity, want)
		}

		zi1, _, _ := Read(blk[:], 63, 1)
		zi2, _, _ := Read(blk[:], 64, 1)
		if zi1 != 0 || zi2 != 0 {
			t.Errorf("%v: zi1=%d zi2=%d, want 0,0", tt, zi1, zi2)
		}

		l1lsb, _, _ := Read(blk[:], 65, 3)
		r1lsb, _, _ := Read(blk[:], 68, 3)
		l2lsb, _, _ := Read(blk[:], 71, 3)
		r2lsb, _, _ := Read(blk[:], 74, 3)
		if l1lsb != uint64(tt[0]&7) || r1lsb != uint64(tt[1]&7) ||
			l2lsb != uint64(tt[2]&7) || r2lsb != uint64(tt[3]&7) {
			t.Errorf("%v: LSB tails = %d,%d,%d,%d, want %d,%d,%d,%d",
				tt, l1lsb, r1lsb, l2lsb, r2lsb, tt[0]&7, tt[1]&7, tt[2]&7, tt[3]&7)
		}
	}
}

func TestBuildBlockTailBitsZero(t *testing.T) {
	blk := BuildBlock(1, 2, 3, 4)
	tail, _, err := Read(blk[:], 77, 3)
	if err != nil {
		t.Fatalf("Read tail: %v", err)
	}
	if tail != 0 {
		t.Errorf("padding bits 77..79 = %#x, want 0", tail)
	}
}
