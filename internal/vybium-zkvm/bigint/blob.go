package bigint

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
)

//go:embed modpow_65537.blob
var modpow65537Raw []byte

// modpow65537 is parsed once at startup and never mutated.
var modpow65537 = mustParseBlob(modpow65537Raw)

var (
	// ErrBadBlob is returned for malformed accelerator blobs.
	ErrBadBlob = errors.New("bigint: malformed accelerator blob")

	blobMagic = [4]byte{'V', 'Z', 'B', 'G'}
)

const (
	blobVersion    = 1
	blobHeaderSize = 4 + 2 + 2 + 4 + 8 + 4
)

// Relation identifies the arithmetic relation a blob encodes.
type Relation uint16

const (
	RelationModPow Relation = 1
)

// Op is one step of the accelerator program.
type Op uint8

const (
	// OpSquare sets x = x*x mod N.
	OpSquare Op = 1
	// OpMulBase sets x = x*base mod N.
	OpMulBase Op = 2
)

// Blob describes the accelerator circuit for one fixed relation.
type Blob struct {
	Version    uint16
	Relation   Relation
	WidthWords uint32
	Exponent   uint64
	Ops        []Op

	raw []byte
}

// ModPow65537Blob returns the embedded blob for x^65537 mod N.
func ModPow65537Blob() *Blob {
	return modpow65537
}

// ParseBlob decodes and checks an accelerator blob. The op program must
// evaluate to the declared exponent.
func ParseBlob(data []byte) (*Blob, error) {
	if len(data) < blobHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadBlob, len(data))
	}
	if [4]byte(data[:4]) != blobMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadBlob)
	}

	b := &Blob{
		Version:    binary.LittleEndian.Uint16(data[4:6]),
		Relation:   Relation(binary.LittleEndian.Uint16(data[6:8])),
		WidthWords: binary.LittleEndian.Uint32(data[8:12]),
		Exponent:   binary.LittleEndian.Uint64(data[12:20]),
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadBlob, b.Version)
	}
	if b.Relation != RelationModPow {
		return nil, fmt.Errorf("%w: unknown relation %d", ErrBadBlob, b.Relation)
	}
	if b.WidthWords != RSA4096WidthWords {
		return nil, fmt.Errorf("%w: width %d words", ErrBadBlob, b.WidthWords)
	}

	n := binary.LittleEndian.Uint32(data[20:24])
	if uint64(len(data)-blobHeaderSize) != uint64(n) {
		return nil, fmt.Errorf("%w: %d ops declared, %d present", ErrBadBlob, n, len(data)-blobHeaderSize)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty op program", ErrBadBlob)
	}

	e := uint64(1)
	b.Ops = make([]Op, n)
	for i, raw := range data[blobHeaderSize:] {
		op := Op(raw)
		switch op {
		case OpSquare:
			if e > 1<<62 {
				return nil, fmt.Errorf("%w: exponent overflow", ErrBadBlob)
			}
			e *= 2
		case OpMulBase:
			e++
		default:
			return nil, fmt.Errorf("%w: unknown op %#x at %d", ErrBadBlob, raw, i)
		}
		b.Ops[i] = op
	}
	if e != b.Exponent {
		return nil, fmt.Errorf("%w: program computes exponent %d, header declares %d", ErrBadBlob, e, b.Exponent)
	}

	b.raw = append([]byte(nil), data...)
	return b, nil
}

func mustParseBlob(data []byte) *Blob {
	b, err := ParseBlob(data)
	if err != nil {
		panic(fmt.Sprintf("embedded accelerator blob: %v", err))
	}
	return b
}

// MarshalBinary returns the encoded blob.
func (b *Blob) MarshalBinary() ([]byte, error) {
	out := make([]byte, blobHeaderSize, blobHeaderSize+len(b.Ops))
	copy(out, blobMagic[:])
	binary.LittleEndian.PutUint16(out[4:6], b.Version)
	binary.LittleEndian.PutUint16(out[6:8], uint16(b.Relation))
	binary.LittleEndian.PutUint32(out[8:12], b.WidthWords)
	binary.LittleEndian.PutUint64(out[12:20], b.Exponent)
	binary.LittleEndian.PutUint32(out[20:24], uint32(len(b.Ops)))
	for _, op := range b.Ops {
		out = append(out, byte(op))
	}
	return out, nil
}

// Raw returns a copy of the bytes b was parsed from.
func (b *Blob) Raw() []byte {
	return append([]byte(nil), b.raw...)
}
