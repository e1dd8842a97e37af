package bigint

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrZeroModulus is returned for a zero modulus.
	ErrZeroModulus = errors.New("bigint: zero modulus")

	// ErrWitness is returned for a witness that does not match the blob.
	ErrWitness = errors.New("bigint: malformed accelerator witness")

	// ErrRelation is returned when the witness does not satisfy the relation.
	ErrRelation = errors.New("bigint: accelerator relation not satisfied")
)

// maxQuotientBits bounds |q| for x*y = x' + q*N with x, y, x' of fixed width.
const maxQuotientBits = 2*RSA4096WidthWords*WordBits + 1

// Step is the witness for one blob op: the next value and the quotient with
// x*y = Value + Quotient*N.
type Step struct {
	Value    RsaArray
	Quotient *big.Int
}

// Witness is the auxiliary data returned by the accelerator.
type Witness struct {
	Steps []Step
}

// Verify checks that result and w satisfy the blob relation for base and
// modulus. The check is over the integers and bounds only the width of
// each value: a result that differs from the true residue by a multiple of
// the modulus still passes. Callers must range check result themselves.
func (b *Blob) Verify(base, modulus, result RsaArray, w *Witness) error {
	if modulus.IsZero() {
		return ErrZeroModulus
	}
	if w == nil || len(w.Steps) != len(b.Ops) {
		return fmt.Errorf("%w: want %d steps", ErrWitness, len(b.Ops))
	}

	n := modulus.Big()
	y := base.Big()
	x := base.Big()
	lhs := new(big.Int)
	rhs := new(big.Int)
	for i, op := range b.Ops {
		step := w.Steps[i]
		if step.Quotient == nil || step.Quotient.BitLen() > maxQuotientBits {
			return fmt.Errorf("%w: quotient at step %d", ErrWitness, i)
		}
		switch op {
		case OpSquare:
			lhs.Mul(x, x)
		case OpMulBase:
			lhs.Mul(x, y)
		}
		next := step.Value.Big()
		rhs.Mul(step.Quotient, n)
		rhs.Add(rhs, next)
		if lhs.Cmp(rhs) != 0 {
			return fmt.Errorf("%w: step %d", ErrRelation, i)
		}
		x = next
	}
	if !w.Steps[len(w.Steps)-1].Value.Equal(result) {
		return fmt.Errorf("%w: result differs from final step", ErrRelation)
	}
	return nil
}
