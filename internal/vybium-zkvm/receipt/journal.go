package receipt

import (
	"bytes"
	"fmt"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

// Journal is the public output of a run: the committed values in commit
// order. It is immutable.
type Journal struct {
	data []byte
}

// NewJournal wraps a copy of data.
func NewJournal(data []byte) Journal {
	return Journal{data: bytes.Clone(data)}
}

// Bytes returns a copy of the raw journal.
func (j Journal) Bytes() []byte { return bytes.Clone(j.data) }

func (j Journal) Len() int { return len(j.data) }

// Digest is the journal digest bound by the claim.
func (j Journal) Digest() core.Digest { return core.SHA3(j.data) }

// Decode decodes the committed values into vs, in order. Every byte of the
// journal must be consumed.
func (j Journal) Decode(vs ...any) error {
	rest := j.data
	for i, v := range vs {
		var err error
		rest, err = codec.UnmarshalFirst(rest, v)
		if err != nil {
			return fmt.Errorf("journal value %d: %w", i, err)
		}
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d journal bytes left after %d values", codec.ErrTrailingData, len(rest), len(vs))
	}
	return nil
}
