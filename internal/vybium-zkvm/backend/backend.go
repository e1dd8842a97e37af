// Package backend defines the proof backends that turn an executed session
// into a seal, and check seals against a claim.
//
// Soundness of execution and zero knowledge of private inputs are
// properties of the backend in use; the rest of the module only relies on
// a seal verifying iff it was produced for the same claim.
package backend

import (
	"context"
	"errors"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

// SealKind names the backend a seal was produced with.
type SealKind string

const (
	KindDev     SealKind = "dev"
	KindGroth16 SealKind = "groth16"
)

var (
	// ErrInvalidSeal is returned for seals that cannot be decoded.
	ErrInvalidSeal = errors.New("backend: malformed seal")

	// ErrVerification is returned when a seal does not prove the claim.
	ErrVerification = errors.New("backend: seal does not verify")

	// ErrDevModeDisabled is returned when a dev seal is checked without
	// dev mode.
	ErrDevModeDisabled = errors.New("backend: dev seals are rejected outside dev mode")
)

// Seal is the proof part of a receipt.
type Seal struct {
	Kind       SealKind `cbor:"1,keyasint"`
	Commitment []byte   `cbor:"2,keyasint"`
	Data       []byte   `cbor:"3,keyasint,omitempty"`
}

// Statement is what a prover is asked to prove: the public claim and the
// private commitment to the execution trace.
type Statement struct {
	Claim     core.Claim
	TraceRoot core.TraceRoot
}

// Prover produces seals.
type Prover interface {
	Kind() SealKind
	Prove(ctx context.Context, st *Statement) (*Seal, error)
}

// Verifier checks seals. Verify has no side effects.
type Verifier interface {
	Kind() SealKind
	Verify(seal *Seal, claim core.Claim) error
}
