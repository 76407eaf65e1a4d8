package varint

import "testing"

func TestDecodeConcreteScenarios(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want uint64
	}{
		{"single byte", []byte{0x12}, 0x12},
		{"two bytes", []byte{0x80, 0x00}, 0x00},
		{"three bytes", []byte{0xC0, 0x00, 0x00}, 0x00},
		{"continuation carries low byte", []byte{0x81, 0xFE}, 0x1FE},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _, err := Decode(c.buf, 0)
			if err != nil {
				t.Fatalf("Decode(%x) error: %v", c.buf, err)
			}
			if got != c.want {
				t.Errorf("Decode(%x) = %#x, want %#x", c.buf, got, c.want)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, _, err := Decode(nil, 0); err == nil {
		t.Fatal("expected error decoding empty buffer")
	}
	if _, _, err := Decode([]byte{0x80}, 0); err == nil {
		t.Fatal("expected error decoding a continuation byte with nothing following")
	}
}

func TestDecodeAtNonzeroOffset(t *testing.T) {
	// A single-byte value embedded after a leading field, to confirm
	// Decode honors a nonzero starting offset and returns the byte
	// position immediately past what it consumed.
	buf := []byte{0xAA, 0xBB, 0x12, 0x34}
	got, next, err := Decode(buf, 2)
	if err != nil {
		t.Fatalf("Decode at offset 2: %v", err)
	}
	if got != 0x12 {
		t.Errorf("Decode at offset 2 = %#x, want 0x12", got)
	}
	if next != 3 {
		t.Errorf("next = %d, want 3", next)
	}
}
