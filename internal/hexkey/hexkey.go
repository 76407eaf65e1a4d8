// Package hexkey parses the CLI's hex-encoded Salsa20 key argument: a
// case-insensitive, whitespace-tolerant 64-character hex string that must
// decode to exactly 32 bytes.
package hexkey

import (
	"fmt"
	"strings"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// KeySize is the required decoded length in bytes.
const KeySize = 32

// Parse strips whitespace from s, validates it decodes to exactly KeySize
// bytes of hex, and returns the decoded key. Hex digits may be upper or
// lower case.
func Parse(s string) ([]byte, error) {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()

	if len(cleaned) != KeySize*2 {
		return nil, fmt.Errorf("hexkey: expected %d hex characters, got %d: %w", KeySize*2, len(cleaned), rtarcerr.BadKey)
	}

	out := make([]byte, KeySize)
	for i := 0; i < KeySize; i++ {
		hi, err := hexDigit(cleaned[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(cleaned[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("hexkey: invalid hex digit %q: %w", c, rtarcerr.BadKey)
	}
}
