// Package guest is the runtime surface available to guest programs.
//
// A guest reaches the host only through Env: it reads input segments,
// commits journal entries and issues the big-integer accelerator call.
// Contract violations abort the running guest with a *Violation panic that
// the executor converts into a failed run; they never terminate the host
// process.
package guest

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
)

// Env is the guest's capability set. Implementations are used from a
// single goroutine.
type Env interface {
	// ReadSegment returns the next unconsumed input segment.
	ReadSegment() ([]byte, error)

	// Commit appends encoded bytes to the journal.
	Commit(data []byte) error

	// SysBigInt asks the host accelerator to evaluate the relation described
	// by blob on base and modulus, writing the candidate into result. All
	// three word buffers share the same width.
	SysBigInt(blob []byte, base, modulus, result []uint32) error
}

var (
	// ErrContractViolation matches every *Violation.
	ErrContractViolation = errors.New("zkvm: contract violation")

	// ErrInputExhausted is returned when the guest reads past the last segment.
	ErrInputExhausted = errors.New("zkvm: read past available input segments")
)

// Violation is raised when a guest breaks the host/guest contract.
type Violation struct {
	Op  string
	Err error
}

func (v *Violation) Error() string {
	return fmt.Sprintf("zkvm: contract violation in %s: %v", v.Op, v.Err)
}

func (v *Violation) Unwrap() error {
	return v.Err
}

// Is makes errors.Is(v, ErrContractViolation) true.
func (v *Violation) Is(target error) bool {
	return target == ErrContractViolation
}

// Abort stops the running guest. It does not return.
func Abort(op string, err error) {
	panic(&Violation{Op: op, Err: err})
}

// Read decodes the next input segment as T.
func Read[T any](env Env) T {
	var v T
	ReadInto(env, &v)
	return v
}

// ReadInto decodes the next input segment into v.
func ReadInto[T any](env Env, v *T) {
	data, err := env.ReadSegment()
	if err != nil {
		Abort("read", err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		Abort("read", err)
	}
}

// ReadSlice returns the next input segment without decoding it. It pairs
// with a raw segment written by the host.
func ReadSlice(env Env) []byte {
	data, err := env.ReadSegment()
	if err != nil {
		Abort("read", err)
	}
	return data
}

// Commit encodes v and appends it to the journal. Committed bytes cannot
// be retracted.
func Commit(env Env, v any) {
	data, err := codec.Marshal(v)
	if err != nil {
		Abort("commit", err)
	}
	if err := env.Commit(data); err != nil {
		Abort("commit", err)
	}
}
