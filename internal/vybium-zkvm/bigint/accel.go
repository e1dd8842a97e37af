package bigint

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrAccelerator wraps failures reported by the host accelerator.
var ErrAccelerator = errors.New("bigint: accelerator failed")

// Accelerator evaluates a blob relation on the host. It is untrusted: its
// output is checked by Blob.Verify and by the guest.
type Accelerator interface {
	ModPow(blob *Blob, base, modulus RsaArray) (RsaArray, *Witness, error)
}

// HostAccelerator is the honest accelerator.
type HostAccelerator struct{}

// ModPow runs the blob program with reduced intermediate values.
func (HostAccelerator) ModPow(blob *Blob, base, modulus RsaArray) (RsaArray, *Witness, error) {
	if modulus.IsZero() {
		return RsaArray{}, nil, ErrZeroModulus
	}

	n := modulus.Big()
	y := base.Big()
	x := base.Big()
	w := &Witness{Steps: make([]Step, len(blob.Ops))}
	for i, op := range blob.Ops {
		prod := new(big.Int)
		switch op {
		case OpSquare:
			prod.Mul(x, x)
		case OpMulBase:
			prod.Mul(x, y)
		default:
			return RsaArray{}, nil, fmt.Errorf("%w: op %#x", ErrBadBlob, op)
		}
		q, r := new(big.Int).DivMod(prod, n, new(big.Int))
		v, err := FromBig(r)
		if err != nil {
			return RsaArray{}, nil, err
		}
		w.Steps[i] = Step{Value: v, Quotient: q}
		x = r
	}
	return w.Steps[len(w.Steps)-1].Value, w, nil
}

// Call records one served accelerator request.
type Call struct {
	Blob    *Blob
	Base    RsaArray
	Modulus RsaArray
	Result  RsaArray
}

// Serve answers a guest SysBigInt request with acc. The witness is checked
// against the blob relation before the result is written into the guest
// buffer; the range check is left to the guest.
func Serve(acc Accelerator, blob []byte, base, modulus, result []uint32) (*Call, error) {
	b, err := ParseBlob(blob)
	if err != nil {
		return nil, err
	}
	bs, err := FromWords(base)
	if err != nil {
		return nil, err
	}
	ms, err := FromWords(modulus)
	if err != nil {
		return nil, err
	}
	if len(result) != RSA4096WidthWords {
		return nil, fmt.Errorf("%w: result has %d words", ErrWidth, len(result))
	}

	r, w, err := acc.ModPow(b, bs, ms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccelerator, err)
	}
	if err := b.Verify(bs, ms, r, w); err != nil {
		return nil, err
	}
	if err := r.PutWords(result); err != nil {
		return nil, err
	}
	return &Call{Blob: b, Base: bs, Modulus: ms, Result: r}, nil
}

// Handler adapts acc to the guest.MemEnv BigInt hook.
func Handler(acc Accelerator) func(blob []byte, base, modulus, result []uint32) error {
	return func(blob []byte, base, modulus, result []uint32) error {
		_, err := Serve(acc, blob, base, modulus, result)
		return err
	}
}
