package mutant

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// largest value accepted by the lz4 filter
const lz4MaxLen = 64 * 1024

type lz4Filter struct{}

func (f lz4Filter) Encode(in []byte) ([]byte, bool, error) {
	if len(in) > lz4MaxLen {
		return nil, false, fmt.Errorf("too large")
	}
	buf := make([]byte, lz4.CompressBlockBound(len(in)))
	var c lz4.Compressor
	n, err := c.CompressBlock(in, buf)
	if err != nil {
		return nil, false, err
	}
	// incompressible or not worth it
	if n == 0 || n >= len(in) {
		return nil, true, nil
	}
	return buf[:n], false, nil
}

func (f lz4Filter) Decode(in []byte) ([]byte, error) {
	buf := make([]byte, lz4MaxLen)
	n, err := lz4.UncompressBlock(in, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
