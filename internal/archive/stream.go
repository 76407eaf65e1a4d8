package archive

import (
	"fmt"
	"os"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// dataStream is one addressable source of node payload bytes: the
// primary file itself for T5/T6, or one sibling data file per listed
// volume for T7.
type dataStream struct {
	file        *os.File
	sectorSize  uint32
	segmentSize uint32
	dataOffset  uint64
}

func openDataStream(path string, sectorSize, segmentSize uint32, dataOffset uint64) (*dataStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open data stream %q: %w", path, rtarcerr.Io)
	}
	return &dataStream{file: f, sectorSize: sectorSize, segmentSize: segmentSize, dataOffset: dataOffset}, nil
}

func (s *dataStream) readAt(offset uint64, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := s.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("archive: read %d bytes at %d: %w", size, offset, rtarcerr.Io)
	}
	return buf, nil
}

func (s *dataStream) Close() error {
	return s.file.Close()
}
