// Package groth16 is a proof backend built on gnark's Groth16 over BN254.
//
// The circuit proves knowledge of an execution trace commitment and a
// blinding factor that open the public Commitment for the public claim
// (image ID, journal digest and claim version). The receipt carries the
// commitment and the proof; verifiers supply the image ID.
package groth16

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

// limbBytes keeps every limb well below the BN254 scalar field modulus.
const limbBytes = 16

const (
	imageLimbs   = (core.Tip5Len + limbBytes - 1) / limbBytes
	journalLimbs = (core.DigestLen + limbBytes - 1) / limbBytes
	traceLimbs   = (core.Tip5Len + limbBytes - 1) / limbBytes
)

// Circuit binds a claim to a hidden trace commitment.
type Circuit struct {
	ImageID       [imageLimbs]frontend.Variable   `gnark:",public"`
	JournalDigest [journalLimbs]frontend.Variable `gnark:",public"`
	Version       frontend.Variable               `gnark:",public"`
	Commitment    frontend.Variable               `gnark:",public"`

	TraceRoot [traceLimbs]frontend.Variable
	Blind     frontend.Variable
}

// Define asserts Commitment = MiMC(ImageID, JournalDigest, Version, TraceRoot, Blind).
func (c *Circuit) Define(api frontend.API) error {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.ImageID[:]...)
	h.Write(c.JournalDigest[:]...)
	h.Write(c.Version)
	h.Write(c.TraceRoot[:]...)
	h.Write(c.Blind)
	api.AssertIsEqual(h.Sum(), c.Commitment)
	return nil
}

// limbs splits b into big-endian chunks of limbBytes.
func limbs(b []byte) []*big.Int {
	out := make([]*big.Int, 0, (len(b)+limbBytes-1)/limbBytes)
	for i := 0; i < len(b); i += limbBytes {
		end := min(i+limbBytes, len(b))
		out = append(out, new(big.Int).SetBytes(b[i:end]))
	}
	return out
}

// publicInputs returns the public limbs of claim in circuit order.
func publicInputs(claim core.Claim) (image, journal []*big.Int, version *big.Int) {
	return limbs(claim.ImageID[:]), limbs(claim.JournalDigest[:]), new(big.Int).SetUint64(uint64(claim.Version))
}

// commit computes the MiMC commitment natively, in the same order as
// Define.
func commit(claim core.Claim, root core.TraceRoot, blind *big.Int) *big.Int {
	image, journal, version := publicInputs(claim)

	elems := make([]*big.Int, 0, imageLimbs+journalLimbs+1+traceLimbs+1)
	elems = append(elems, image...)
	elems = append(elems, journal...)
	elems = append(elems, version)
	elems = append(elems, limbs(root[:])...)
	elems = append(elems, blind)

	h := mimc.NewMiMC()
	for _, x := range elems {
		var e fr.Element
		e.SetBigInt(x)
		b := e.Bytes()
		h.Write(b[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// assignment builds the full witness.
func assignment(claim core.Claim, root core.TraceRoot, blind, commitment *big.Int) *Circuit {
	c := publicAssignment(claim, commitment)
	for i, l := range limbs(root[:]) {
		c.TraceRoot[i] = l
	}
	c.Blind = blind
	return c
}

// publicAssignment builds the public part of the witness.
func publicAssignment(claim core.Claim, commitment *big.Int) *Circuit {
	image, journal, version := publicInputs(claim)
	c := &Circuit{Version: version, Commitment: commitment}
	for i, l := range image {
		c.ImageID[i] = l
	}
	for i, l := range journal {
		c.JournalDigest[i] = l
	}
	return c
}
