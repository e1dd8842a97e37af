package core

import (
	"encoding/hex"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"golang.org/x/crypto/sha3"
)

// DigestLen is the byte length of a SHA3-256 digest.
const DigestLen = 32

// Digest is a SHA3-256 digest used for journals, claims and trace events.
type Digest [DigestLen]byte

// SHA3 hashes the concatenation of parts.
func SHA3(parts ...[]byte) Digest {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// String returns the hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns a copy of d as a slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, DigestLen)
	copy(out, d[:])
	return out
}

// tip5Elements is the number of Goldilocks elements in a Tip5 digest.
const tip5Elements = 5

// Tip5Len is the byte length of a serialized Tip5 digest.
const Tip5Len = tip5Elements * 8

// packBytes converts data into field elements, seven bytes per element so
// that every element is below the Goldilocks modulus. The first element
// carries the input length.
func packBytes(data []byte) []field.Element {
	elems := make([]field.Element, 0, 1+(len(data)+6)/7)
	elems = append(elems, field.New(uint64(len(data))))
	for i := 0; i < len(data); i += 7 {
		var v uint64
		for j := 0; j < 7 && i+j < len(data); j++ {
			v |= uint64(data[i+j]) << (8 * j)
		}
		elems = append(elems, field.New(v))
	}
	return elems
}

// digestToBytes serializes a Tip5 digest as little-endian words.
func digestToBytes(d hash.Digest) [Tip5Len]byte {
	var out [Tip5Len]byte
	for i := 0; i < len(d) && i < tip5Elements; i++ {
		val := d[i].Value()
		for j := 0; j < 8; j++ {
			out[i*8+j] = byte(val >> (j * 8))
		}
	}
	return out
}

// tip5 hashes data with the variable-length Tip5 sponge.
func tip5(data []byte) [Tip5Len]byte {
	return digestToBytes(hash.HashVarlen(packBytes(data)))
}

func parseHex(dst []byte, s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("invalid length: expected %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
