package groth16

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

const commitmentLen = fr.Bytes

// Backend holds the compiled circuit and its keys.
type Backend struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
	log zerolog.Logger
}

// Setup compiles the circuit and runs the Groth16 setup. gnark logs
// through a package-level logger, which is set to log.
func Setup(log zerolog.Logger) (*Backend, error) {
	gnarklogger.Set(log)

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &Circuit{})
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}
	log.Debug().Int("constraints", ccs.GetNbConstraints()).Msg("groth16 backend ready")
	return &Backend{ccs: ccs, pk: pk, vk: vk, log: log}, nil
}

func (b *Backend) Kind() backend.SealKind { return backend.KindGroth16 }

// Prove produces a seal for st.
func (b *Backend) Prove(ctx context.Context, st *backend.Statement) (*backend.Seal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := st.Claim.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInvalidSeal, err)
	}

	var blind fr.Element
	if _, err := blind.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to sample blinding factor: %w", err)
	}
	blindInt := blind.BigInt(new(big.Int))
	commitment := commit(st.Claim, st.TraceRoot, blindInt)

	w, err := frontend.NewWitness(assignment(st.Claim, st.TraceRoot, blindInt, commitment), ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to build witness: %w", err)
	}
	proof, err := groth16.Prove(b.ccs, b.pk, w)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove failed: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize proof: %w", err)
	}
	out := make([]byte, commitmentLen)
	commitment.FillBytes(out)

	b.log.Debug().Int("proof_len", buf.Len()).Msg("groth16 proof generated")
	return &backend.Seal{Kind: backend.KindGroth16, Commitment: out, Data: buf.Bytes()}, nil
}

// Verify checks seal against claim with the backend's verifying key.
func (b *Backend) Verify(seal *backend.Seal, claim core.Claim) error {
	return b.Verifier().Verify(seal, claim)
}

// Verifier returns a verifier for the backend's verifying key.
func (b *Backend) Verifier() *Verifier {
	return &Verifier{vk: b.vk}
}

// WriteVerifyingKey serializes the verifying key.
func (b *Backend) WriteVerifyingKey(w io.Writer) error {
	_, err := b.vk.WriteTo(w)
	return err
}

// Verifier checks Groth16 seals. It needs only the verifying key.
type Verifier struct {
	vk groth16.VerifyingKey
}

// ReadVerifier loads a verifier from a serialized verifying key.
func ReadVerifier(r io.Reader) (*Verifier, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return &Verifier{vk: vk}, nil
}

func (v *Verifier) Kind() backend.SealKind { return backend.KindGroth16 }

// Verify checks that seal proves claim.
func (v *Verifier) Verify(seal *backend.Seal, claim core.Claim) error {
	if seal == nil || seal.Kind != backend.KindGroth16 || len(seal.Commitment) != commitmentLen {
		return backend.ErrInvalidSeal
	}
	if err := claim.Validate(); err != nil {
		return fmt.Errorf("%w: %v", backend.ErrVerification, err)
	}
	commitment := new(big.Int).SetBytes(seal.Commitment)
	if commitment.Cmp(ecc.BN254.ScalarField()) >= 0 {
		return fmt.Errorf("%w: commitment out of field", backend.ErrInvalidSeal)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(seal.Data)); err != nil {
		return fmt.Errorf("%w: %v", backend.ErrInvalidSeal, err)
	}
	pw, err := frontend.NewWitness(publicAssignment(claim, commitment), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrInvalidSeal, err)
	}
	if err := groth16.Verify(proof, v.vk, pw); err != nil {
		return fmt.Errorf("%w: %v", backend.ErrVerification, err)
	}
	return nil
}
