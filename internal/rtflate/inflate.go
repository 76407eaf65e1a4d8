// Package rtflate wraps raw DEFLATE (negative window bits, i.e. no zlib or
// gzip framing) and implements the "expand" segmented-compression
// container layered on top of node bodies.
package rtflate

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// Inflate decompresses raw-deflate data into a freshly allocated buffer.
// "Raw" means no zlib/gzip header or trailer is present — flate.NewReader
// already operates on the raw deflate stream, so no window-bits parameter
// is needed on the decode side (unlike zlib_params.window_bits on the
// encode side in the original tool).
func Inflate(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("rtflate: inflate: %w: %v", rtarcerr.DecompressionFailed, err)
	}
	return out.Bytes(), nil
}
