package guest

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

// ErrGuestPanicked is returned when guest code panics outside of Abort.
var ErrGuestPanicked = errors.New("zkvm: guest execution panicked")

// Program is a guest program together with the artifact its identity is
// derived from.
type Program struct {
	// Name is a human readable program name; it is part of the identity.
	Name string

	// Artifact is the compiled guest artifact.
	Artifact []byte

	// Entry is the guest entry point.
	Entry func(env Env)
}

// ImageID returns the identity of p.
func (p *Program) ImageID() (core.ImageID, error) {
	return core.ComputeImageID(p.Name, p.Artifact)
}

// Validate checks that p can be executed.
func (p *Program) Validate() error {
	if p == nil {
		return errors.New("zkvm: nil program")
	}
	if p.Entry == nil {
		return fmt.Errorf("zkvm: program %q has no entry point", p.Name)
	}
	if len(p.Artifact) == 0 {
		return fmt.Errorf("zkvm: program %q: %w", p.Name, core.ErrEmptyArtifact)
	}
	return nil
}

// Panic wraps a value recovered from a guest panic.
type Panic struct {
	Value any
	Stack []byte
}

func (p *Panic) Error() string {
	return fmt.Sprintf("%v: %v", ErrGuestPanicked, p.Value)
}

func (p *Panic) Unwrap() error {
	return ErrGuestPanicked
}

// Run calls entry with env and converts an abort or panic into an error.
func Run(entry func(Env), env Env) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if v, ok := r.(*Violation); ok {
			err = v
			return
		}
		err = &Panic{Value: r, Stack: debug.Stack()}
	}()
	entry(env)
	return nil
}
