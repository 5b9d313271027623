package dsr

import "testing"

func TestPsRoundTrip(t *testing.T) {
	tests := []string{"HELLO", "Test123", "Radio", "ABC", "", "12345678", "TOOLONGLABEL"}
	wants := []string{"HELLO   ", "T   123 ", "R       ", "ABC     ", "        ", "12345678", "TOOLONGL"}
	for i, s := range tests {
		enc, err := EncodePs(s)
		if err != nil {
			t.Fatalf("EncodePs(%q): %v", s, err)
		}
		dec, err := DecodePs(enc)
		if err != nil {
			t.Fatalf("DecodePs: %v", err)
		}
		if len(dec) != 8 {
			t.Errorf("DecodePs(EncodePs(%q)) length = %d, want 8", s, len(dec))
		}
		if dec != wants[i] {
			t.Errorf("DecodePs(EncodePs(%q)) = %q, want %q", s, dec, wants[i])
		}
	}
}

func TestPsUnknownCharacterReplacement(t *testing.T) {
	enc, err := EncodePs("lower\x01case")
	if err != nil {
		t.Fatalf("EncodePs: %v", err)
	}
	dec, err := DecodePs(enc)
	if err != nil {
		t.Fatalf("DecodePs: %v", err)
	}
	if len(dec) != 8 {
		t.Fatalf("decoded length = %d, want 8", len(dec))
	}
	// lowercase letters and the control byte are outside the alphabet and
	// must map to the replacement glyph (space), not abort.
	if dec[0] != ' ' {
		t.Errorf("dec[0] = %q, want replacement glyph", dec[0])
	}
}

func TestPsExactFit(t *testing.T) {
	enc, err := EncodePs("ABCDEFGH")
	if err != nil {
		t.Fatalf("EncodePs: %v", err)
	}
	dec, err := DecodePs(enc)
	if err != nil {
		t.Fatalf("DecodePs: %v", err)
	}
	if dec != "ABCDEFGH" {
		t.Errorf("dec = %q, want ABCDEFGH", dec)
	}
}
