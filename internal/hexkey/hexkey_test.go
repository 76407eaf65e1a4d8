package hexkey

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseCaseInsensitiveAndWhitespaceTolerant(t *testing.T) {
	pattern := "000102030405060708090a0b0c0d0e0f"
	lower := pattern + pattern
	upper := strings.ToUpper(lower)
	spaced := "0001 0203 0405 0607 0809 0a0b 0c0d 0e0f\n0001 0203 0405 0607 0809 0a0b 0c0d 0e0f"

	lowerKey, err := Parse(lower)
	if err != nil {
		t.Fatalf("Parse(lower): %v", err)
	}
	if len(lowerKey) != KeySize {
		t.Fatalf("Parse(lower) length = %d, want %d", len(lowerKey), KeySize)
	}

	upperKey, err := Parse(upper)
	if err != nil {
		t.Fatalf("Parse(upper): %v", err)
	}
	if !bytes.Equal(lowerKey, upperKey) {
		t.Error("Parse is not case-insensitive")
	}

	spacedKey, err := Parse(spaced)
	if err != nil {
		t.Fatalf("Parse(spaced): %v", err)
	}
	if !bytes.Equal(lowerKey, spacedKey) {
		t.Error("Parse did not tolerate interior whitespace")
	}
}

func TestParseWrongLength(t *testing.T) {
	if _, err := Parse("00112233"); err == nil {
		t.Fatal("expected error for a too-short key")
	}
}

func TestParseInvalidHex(t *testing.T) {
	bad := "zz112233445566778899aabbccddeeff00112233445566778899aabbccddee"
	if _, err := Parse(bad); err == nil {
		t.Fatal("expected error for invalid hex digits")
	}
}
