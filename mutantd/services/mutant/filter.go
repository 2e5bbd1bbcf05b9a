package mutant

import (
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v4"

	"github.com/ntons/mutant/mutantd/internal/util"
)

// Cached values pass through every enabled filter of the chain, each
// prefixing its output with its position. Decoding unwinds the prefixes
// until the nop filter. Positions are persisted: append only.
var chain = []enabler{
	/*0*/ enable(nopFilter{}), // nop filter must be enabled
	/*1*/ enable(lz4Filter{}),
}

type filter interface {
	// skip means input not suitable for this filter, skip it
	Encode(in []byte) (out []byte, skip bool, err error)
	Decode(in []byte) (out []byte, err error)
}

type enabler struct {
	filter
	enabled bool
}

func (x enabler) Enabled() bool { return x.enabled }

func enable(filter filter) enabler {
	return enabler{filter, true}
}

type nopFilter struct{}

func (nopFilter) Encode(in []byte) ([]byte, bool, error) { return in, false, nil }
func (nopFilter) Decode(in []byte) ([]byte, error)       { return in, nil }

func encode(in []byte) ([]byte, error) {
	out := in
	for i, f := range chain {
		if !f.Enabled() {
			continue
		}
		t := make([]byte, binary.MaxVarintLen16)
		t = t[:binary.PutUvarint(t, uint64(i))]
		if b, skip, err := f.Encode(out); err != nil {
			return nil, err
		} else if skip {
			continue
		} else {
			out = append(t, b...)
		}
	}
	return out, nil
}

func decode(in []byte) ([]byte, error) {
	out := in
	for {
		i, n := binary.Uvarint(out)
		if n <= 0 {
			return nil, fmt.Errorf("bad filter tag")
		}
		if i >= uint64(len(chain)) {
			return nil, fmt.Errorf("bad decoded tag %d", i)
		}
		var err error
		if out, err = chain[i].Decode(out[n:]); err != nil {
			return nil, err
		}
		if i == 0 {
			break
		}
	}
	return out, nil
}

func encodeValue(v interface{}) (string, error) {
	if b, err := msgpack.Marshal(v); err != nil {
		return "", err
	} else if b, err = encode(b); err != nil {
		return "", err
	} else {
		return util.BytesToString(b), nil
	}
}

func decodeValue(s string, v interface{}) error {
	if b, err := decode(util.StringToBytes(s)); err != nil {
		return err
	} else if err = msgpack.Unmarshal(b, v); err != nil {
		return err
	} else {
		return nil
	}
}
