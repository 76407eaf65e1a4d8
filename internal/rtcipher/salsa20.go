package rtcipher

import (
	"encoding/binary"
	"math/bits"
)

// Salsa20 constants, matching the reference "expand 16/32-byte k" sigma
// strings used to seed the state matrix depending on key length.
const (
	stateSize = 16
	blockSize = 64
)

var sigma32 = [4]uint32{
	binary.LittleEndian.Uint32([]byte("expa")),
	binary.LittleEndian.Uint32([]byte("nd 3")),
	binary.LittleEndian.Uint32([]byte("2-by")),
	binary.LittleEndian.Uint32([]byte("te k")),
}

var sigma16 = [4]uint32{
	binary.LittleEndian.Uint32([]byte("expa")),
	binary.LittleEndian.Uint32([]byte("nd 1")),
	binary.LittleEndian.Uint32([]byte("6-by")),
	binary.LittleEndian.Uint32([]byte("te k")),
}

// quarterRoundStep is one step of the schedule that Salsa20's double round
// applies: state[out] ^= rotl(state[t1]+state[t2], shift).
type quarterRoundStep struct {
	out, t1, t2 uint8
	shift       uint
}

// schedule is the fixed 32-step quarter-round schedule (4 column-round
// groups of 4 steps, then 4 row-round groups of 4 steps) that one Salsa20
// double round applies; it is run 10 times for the standard 20-round
// cipher.
var schedule = [32]quarterRoundStep{
	// column round
	{4, 0, 12, 7}, {8, 4, 0, 9}, {12, 8, 4, 13}, {0, 12, 8, 18},
	{9, 5, 1, 7}, {13, 9, 5, 9}, {1, 13, 9, 13}, {5, 1, 13, 18},
	{14, 10, 6, 7}, {2, 14, 10, 9}, {6, 2, 14, 13}, {10, 6, 2, 18},
	{3, 15, 11, 7}, {7, 3, 15, 9}, {11, 7, 3, 13}, {15, 11, 7, 18},
	// row round
	{1, 0, 3, 7}, {2, 1, 0, 9}, {3, 2, 1, 13}, {0, 3, 2, 18},
	{6, 5, 4, 7}, {7, 6, 5, 9}, {4, 7, 6, 13}, {5, 4, 7, 18},
	{11, 10, 9, 7}, {8, 11, 10, 9}, {9, 8, 11, 13}, {10, 9, 8, 18},
	{12, 15, 14, 7}, {13, 12, 15, 9}, {14, 13, 12, 13}, {15, 14, 13, 18},
}

// Salsa20 is the standard 20-round Salsa20 stream cipher with a 64-bit
// block position counter spanning state words 8 and 9. It is not used for
// in-archive decryption; the CLI's decrypt mode applies it directly to
// arbitrary files with a caller-supplied key and a zero IV.
type Salsa20 struct {
	state [stateSize]uint32
}

// NewSalsa20 builds a cipher from a 16- or 32-byte key and an 8-byte IV
// (iv may be nil, treated as all-zero).
func NewSalsa20(key []byte, iv []byte) *Salsa20 {
	s := &Salsa20{}
	s.setKey(key)
	s.setIV(iv)
	return s
}

func (s *Salsa20) setKey(key []byte) {
	padded := make([]byte, 32)
	copy(padded, key)

	sigma := sigma16
	if len(key) > 16 {
		sigma = sigma32
	}

	s.state[0] = sigma[0]
	s.state[1] = binary.LittleEndian.Uint32(padded[0:4])
	s.state[2] = binary.LittleEndian.Uint32(padded[4:8])
	s.state[3] = binary.LittleEndian.Uint32(padded[8:12])
	s.state[4] = binary.LittleEndian.Uint32(padded[12:16])
	s.state[5] = sigma[1]
	s.state[10] = sigma[2]
	if len(key) > 16 {
		s.state[11] = binary.LittleEndian.Uint32(padded[16:20])
		s.state[12] = binary.LittleEndian.Uint32(padded[20:24])
		s.state[13] = binary.LittleEndian.Uint32(padded[24:28])
		s.state[14] = binary.LittleEndian.Uint32(padded[28:32])
	} else {
		s.state[11] = binary.LittleEndian.Uint32(padded[0:4])
		s.state[12] = binary.LittleEndian.Uint32(padded[4:8])
		s.state[13] = binary.LittleEndian.Uint32(padded[8:12])
		s.state[14] = binary.LittleEndian.Uint32(padded[12:16])
	}
	s.state[15] = sigma[3]
}

func (s *Salsa20) setIV(iv []byte) {
	if iv == nil {
		s.state[6], s.state[7], s.state[8], s.state[9] = 0, 0, 0, 0
		return
	}
	s.state[6] = binary.LittleEndian.Uint32(iv[0:4])
	s.state[7] = binary.LittleEndian.Uint32(iv[4:8])
	s.state[8], s.state[9] = 0, 0
}

// generateKeyStream runs 10 double rounds over a copy of the state, adds
// the original state back in, and serializes the result little-endian into
// a 64-byte block. It then advances the 64-bit block counter in words 8/9.
func (s *Salsa20) generateKeyStream() [blockSize]byte {
	working := s.state

	for round := 0; round < 10; round++ {
		for _, step := range schedule {
			working[step.out] ^= bits.RotateLeft32(working[step.t1]+working[step.t2], int(step.shift))
		}
	}

	var out [blockSize]byte
	for i := 0; i < stateSize; i++ {
		working[i] += s.state[i]
		binary.LittleEndian.PutUint32(out[i*4:], working[i])
	}

	s.state[8]++
	if s.state[8] == 0 {
		s.state[9]++
	}

	return out
}

// XORKeyStream encrypts (or decrypts, since Salsa20 is symmetric) src into
// dst, which may alias src.
func (s *Salsa20) XORKeyStream(dst, src []byte) {
	for len(src) > 0 {
		ks := s.generateKeyStream()
		n := len(src)
		if n > blockSize {
			n = blockSize
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ ks[i]
		}
		src = src[n:]
		dst = dst[n:]
	}
}
