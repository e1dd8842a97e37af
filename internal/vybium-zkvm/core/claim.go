package core

import (
	"encoding/binary"
	"fmt"
)

// ClaimVersion is the version of the claim layout and proof statement.
// It changes whenever either changes.
const ClaimVersion uint32 = 1

// Claim is the public statement a seal attests to: the program that ran
// and the journal it produced.
type Claim struct {
	ImageID       ImageID
	JournalDigest Digest
	Version       uint32
}

// NewClaim builds the claim for a journal produced by imageID.
func NewClaim(imageID ImageID, journal []byte) Claim {
	return Claim{
		ImageID:       imageID,
		JournalDigest: SHA3(journal),
		Version:       ClaimVersion,
	}
}

// Validate checks that the claim is well-formed.
func (c Claim) Validate() error {
	if c.ImageID.IsZero() {
		return fmt.Errorf("claim has no image ID")
	}
	if c.Version != ClaimVersion {
		return fmt.Errorf("unsupported claim version %d", c.Version)
	}
	return nil
}

// Digest hashes the claim with a fixed layout.
func (c Claim) Digest() Digest {
	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], c.Version)
	return SHA3([]byte("vybium-zkvm/claim"), c.ImageID[:], c.JournalDigest[:], version[:])
}
