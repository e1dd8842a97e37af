// Package bigint delegates fixed-width modular exponentiation to a host
// accelerator and validates the returned result inside the guest.
package bigint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

const (
	// WordBits is the size of one limb.
	WordBits = 32

	// RSA4096WidthWords is the number of limbs of a 4096-bit integer.
	RSA4096WidthWords = 4096 / WordBits

	byteLen = RSA4096WidthWords * WordBits / 8
)

var (
	// ErrNegative is returned when converting a negative integer.
	ErrNegative = errors.New("bigint: negative value")

	// ErrOverflow is returned when a value does not fit the fixed width.
	ErrOverflow = errors.New("bigint: value exceeds 4096 bits")

	// ErrWidth is returned when a word buffer has the wrong length.
	ErrWidth = errors.New("bigint: buffer width mismatch")
)

// RsaArray is an unsigned 4096-bit integer stored as little-endian limbs.
// The zero value is 0.
type RsaArray struct {
	w [RSA4096WidthWords]uint32
}

// FromBig converts x. It fails for negative values and values wider than
// 4096 bits.
func FromBig(x *big.Int) (RsaArray, error) {
	if x.Sign() < 0 {
		return RsaArray{}, ErrNegative
	}
	if x.BitLen() > RSA4096WidthWords*WordBits {
		return RsaArray{}, fmt.Errorf("%w: %d bits", ErrOverflow, x.BitLen())
	}
	var buf [byteLen]byte
	x.FillBytes(buf[:])
	return fromBE(buf[:]), nil
}

// FromUint64 converts v.
func FromUint64(v uint64) RsaArray {
	var a RsaArray
	a.w[0] = uint32(v)
	a.w[1] = uint32(v >> 32)
	return a
}

// FromBytes converts a big-endian byte string of at most 512 bytes.
func FromBytes(be []byte) (RsaArray, error) {
	if len(be) > byteLen {
		return RsaArray{}, fmt.Errorf("%w: %d bytes", ErrOverflow, len(be))
	}
	var buf [byteLen]byte
	copy(buf[byteLen-len(be):], be)
	return fromBE(buf[:]), nil
}

// FromWords copies a little-endian limb buffer of exactly RSA4096WidthWords
// limbs, as passed across the accelerator ABI.
func FromWords(words []uint32) (RsaArray, error) {
	if len(words) != RSA4096WidthWords {
		return RsaArray{}, fmt.Errorf("%w: got %d words, want %d", ErrWidth, len(words), RSA4096WidthWords)
	}
	var a RsaArray
	copy(a.w[:], words)
	return a, nil
}

// PutWords writes a into an ABI limb buffer.
func (a RsaArray) PutWords(dst []uint32) error {
	if len(dst) != RSA4096WidthWords {
		return fmt.Errorf("%w: got %d words, want %d", ErrWidth, len(dst), RSA4096WidthWords)
	}
	copy(dst, a.w[:])
	return nil
}

func fromBE(buf []byte) RsaArray {
	var a RsaArray
	for i := 0; i < RSA4096WidthWords; i++ {
		off := byteLen - 4*(i+1)
		a.w[i] = uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3])
	}
	return a
}

// Bytes returns the 512-byte big-endian encoding of a.
func (a RsaArray) Bytes() []byte {
	out := make([]byte, byteLen)
	for i := 0; i < RSA4096WidthWords; i++ {
		off := byteLen - 4*(i+1)
		out[off] = byte(a.w[i] >> 24)
		out[off+1] = byte(a.w[i] >> 16)
		out[off+2] = byte(a.w[i] >> 8)
		out[off+3] = byte(a.w[i])
	}
	return out
}

// Big returns a as a new big.Int.
func (a RsaArray) Big() *big.Int {
	return new(big.Int).SetBytes(a.Bytes())
}

// Cmp compares a and b as unsigned integers and returns -1, 0 or +1.
func (a RsaArray) Cmp(b RsaArray) int {
	for i := RSA4096WidthWords - 1; i >= 0; i-- {
		switch {
		case a.w[i] < b.w[i]:
			return -1
		case a.w[i] > b.w[i]:
			return 1
		}
	}
	return 0
}

// Less reports whether a < b.
func (a RsaArray) Less(b RsaArray) bool {
	return a.Cmp(b) < 0
}

// Equal reports whether a == b.
func (a RsaArray) Equal(b RsaArray) bool {
	return a.w == b.w
}

// IsZero reports whether a is 0.
func (a RsaArray) IsZero() bool {
	return a.w == [RSA4096WidthWords]uint32{}
}

// String returns the minimal hex encoding of a.
func (a RsaArray) String() string {
	return "0x" + a.Big().Text(16)
}

// MarshalBinary encodes a as 512 big-endian bytes.
func (a RsaArray) MarshalBinary() ([]byte, error) {
	return a.Bytes(), nil
}

// UnmarshalBinary decodes a big-endian byte string of at most 512 bytes.
func (a *RsaArray) UnmarshalBinary(data []byte) error {
	v, err := FromBytes(data)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Hex returns the full-width hex encoding of a.
func (a RsaArray) Hex() string {
	return hex.EncodeToString(a.Bytes())
}
