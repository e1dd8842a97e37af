package backend

import (
	"bytes"
	"context"
	"fmt"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

// DevProver emits seals that carry only the claim digest. They prove
// nothing and are accepted only by a DevVerifier in dev mode.
type DevProver struct{}

func (DevProver) Kind() SealKind { return KindDev }

func (DevProver) Prove(ctx context.Context, st *Statement) (*Seal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := st.Claim.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeal, err)
	}
	d := st.Claim.Digest()
	return &Seal{Kind: KindDev, Commitment: d.Bytes()}, nil
}

// DevVerifier checks dev seals.
type DevVerifier struct {
	Enabled bool
}

func (DevVerifier) Kind() SealKind { return KindDev }

func (v DevVerifier) Verify(seal *Seal, claim core.Claim) error {
	if !v.Enabled {
		return ErrDevModeDisabled
	}
	if seal == nil || seal.Kind != KindDev || len(seal.Commitment) != core.DigestLen || len(seal.Data) != 0 {
		return ErrInvalidSeal
	}
	d := claim.Digest()
	if !bytes.Equal(seal.Commitment, d[:]) {
		return ErrVerification
	}
	return nil
}
