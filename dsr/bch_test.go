package dsr

import "testing"

// TestBchParityS3 pins scenario S3: data with only the MSB set.
func TestBchParityS3(t *testing.T) {
	data := uint64(0x80000000000) // bit 43 set, i.e. x^62 coefficient
	got := BchParity(data)
	want := bchBitwiseRemainder(data<<19, 63)
	if got != want {
		t.Fatalf("BchParity(%#x) = %#x, want %#x (reference division)", data, got, want)
	}

	codeword := data<<19 | uint64(got)
	if rem := bchBitwiseRemainder(codeword, 63); rem != 0 {
		t.Errorf("codeword does not divide evenly: remainder %#x", rem)
	}
}

func TestBchParityMatchesReference(t *testing.T) {
	datas := []uint64{
		0,
		1,
		0x80000000000,
		0xFFFFFFFFFFF,
		0x123456789AB,
		0xAAAAAAAAAAA,
		0x555555555555 & ((1 << 44) - 1),
	}
	for _, data := range datas {
		got := BchParity(data)
		want := bchBitwiseRemainder(data<<19, 63)
		if got != want {
			t.Errorf("BchParity(%#x) = %#x, want %#x", data, got, want)
		}
		codeword := data<<19 | uint64(got)
		if rem := bchBitwiseRemainder(codeword, 63); rem != 0 {
			t.Errorf("data %#x: codeword does not divide evenly, remainder %#x", data, rem)
		}
		if got > bchMask {
			t.Errorf("BchParity(%#x) = %#x exceeds 19 bits", data, got)
		}
	}
}
