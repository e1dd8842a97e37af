// Package receipt holds the proof artifact of a run and the logic to check
// it against a program identity.
package receipt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

var (
	// ErrMalformed is returned for receipts that cannot be decoded or are
	// structurally invalid.
	ErrMalformed = errors.New("zkvm: malformed receipt")

	// ErrVersion is returned for receipts of an unsupported claim version.
	ErrVersion = errors.New("zkvm: unsupported receipt version")
)

// Receipt attests that a program produced Journal. It does not carry the
// image ID; verifiers supply it.
type Receipt struct {
	journal Journal
	seal    backend.Seal
	version uint32
}

// New builds a receipt at the current claim version.
func New(journal []byte, seal *backend.Seal) *Receipt {
	return &Receipt{
		journal: NewJournal(journal),
		seal:    cloneSeal(seal),
		version: core.ClaimVersion,
	}
}

func (r *Receipt) Journal() Journal { return r.journal }

// Seal returns a copy of the seal.
func (r *Receipt) Seal() backend.Seal { return cloneSeal(&r.seal) }

func (r *Receipt) Version() uint32 { return r.version }

// Claim is the claim the seal must prove if the journal came from imageID.
func (r *Receipt) Claim(imageID core.ImageID) core.Claim {
	c := core.NewClaim(imageID, r.journal.data)
	c.Version = r.version
	return c
}

// Verify checks the receipt against imageID with v.
func (r *Receipt) Verify(v *Verifier, imageID core.ImageID) error {
	return v.Verify(r, imageID)
}

type envelope struct {
	Version uint32       `cbor:"1,keyasint"`
	Journal []byte       `cbor:"2,keyasint"`
	Seal    backend.Seal `cbor:"3,keyasint"`
}

// MarshalBinary encodes the receipt as a versioned envelope.
func (r *Receipt) MarshalBinary() ([]byte, error) {
	return codec.Marshal(envelope{Version: r.version, Journal: r.journal.data, Seal: r.seal})
}

// UnmarshalBinary decodes an envelope produced by MarshalBinary.
func (r *Receipt) UnmarshalBinary(data []byte) error {
	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Version != core.ClaimVersion {
		return fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	if err := codec.Valid(env.Journal); err != nil {
		return fmt.Errorf("%w: journal: %v", ErrMalformed, err)
	}
	if env.Seal.Kind == "" {
		return fmt.Errorf("%w: seal has no kind", ErrMalformed)
	}
	r.journal = Journal{data: env.Journal}
	r.seal = env.Seal
	r.version = env.Version
	return nil
}

func cloneSeal(s *backend.Seal) backend.Seal {
	if s == nil {
		return backend.Seal{}
	}
	return backend.Seal{
		Kind:       s.Kind,
		Commitment: bytes.Clone(s.Commitment),
		Data:       bytes.Clone(s.Data),
	}
}
