package bitfield

import "testing"

func TestAtConcreteScenario(t *testing.T) {
	buf := []byte{0xAB, 0xCD, 0xEF}

	got0, err := At(buf, 0)
	if err != nil {
		t.Fatalf("At(buf, 0): %v", err)
	}
	if got0 != 0xABC {
		t.Errorf("At(buf, 0) = %#x, want 0xABC", got0)
	}

	got1, err := At(buf, 1)
	if err != nil {
		t.Fatalf("At(buf, 1): %v", err)
	}
	if got1 != 0xDEF {
		t.Errorf("At(buf, 1) = %#x, want 0xDEF", got1)
	}
}

func TestAtAlwaysInTwelveBitRange(t *testing.T) {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = 0xFF
	}
	for i := 0; i < 20; i++ {
		v, err := At(buf, i)
		if err != nil {
			t.Fatalf("At(buf, %d): %v", i, err)
		}
		if v >= 0x1000 {
			t.Errorf("At(buf, %d) = %#x, out of 12-bit range", i, v)
		}
	}
}

func TestAtTruncated(t *testing.T) {
	if _, err := At([]byte{0x00}, 0); err == nil {
		t.Fatal("expected error reading past a 1-byte buffer")
	}
}
