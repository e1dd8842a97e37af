// Package core holds the digests that bind receipts to programs: the
// program identity, SHA3 digests and the execution trace commitment.
package core

import (
	"encoding/hex"
	"errors"
)

// ImageID identifies a compiled guest program.
type ImageID [Tip5Len]byte

// ErrEmptyArtifact is returned when a program has no artifact to identify it.
var ErrEmptyArtifact = errors.New("core: empty program artifact")

const imageDomain = "vybium-zkvm/image/v1"

// ComputeImageID derives the identity of a program from its name and
// compiled artifact. Identical inputs always give the same ID.
func ComputeImageID(name string, artifact []byte) (ImageID, error) {
	if len(artifact) == 0 {
		return ImageID{}, ErrEmptyArtifact
	}
	buf := make([]byte, 0, len(imageDomain)+1+len(name)+1+len(artifact))
	buf = append(buf, imageDomain...)
	buf = append(buf, 0)
	buf = append(buf, name...)
	buf = append(buf, 0)
	buf = append(buf, artifact...)
	return ImageID(tip5(buf)), nil
}

// ParseImageID decodes a hex-encoded image ID.
func ParseImageID(s string) (ImageID, error) {
	var id ImageID
	if err := parseHex(id[:], s); err != nil {
		return ImageID{}, err
	}
	return id, nil
}

// String returns the hex encoding of id.
func (id ImageID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is unset.
func (id ImageID) IsZero() bool {
	return id == ImageID{}
}
