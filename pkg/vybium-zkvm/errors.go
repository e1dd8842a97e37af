package vybiumzkvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/executor"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/host"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/prover"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/receipt"
)

// ErrorCode represents a Vybium zkVM error code
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrInvalidConfig represents an invalid configuration error
	ErrInvalidConfig

	// ErrSerialization represents a value that could not be encoded or decoded
	ErrSerialization

	// ErrContractViolation represents a guest that broke the channel or
	// coprocessor contract
	ErrContractViolation

	// ErrVMExecution represents a guest run that failed for another reason
	ErrVMExecution

	// ErrProofGeneration represents a proof generation error
	ErrProofGeneration

	// ErrProofVerification represents a proof that does not verify
	ErrProofVerification

	// ErrInvalidProof represents a malformed receipt or seal
	ErrInvalidProof

	// ErrInvalidInput represents an invalid input error
	ErrInvalidInput
)

var codeNames = map[ErrorCode]string{
	ErrUnknown:           "unknown",
	ErrInvalidConfig:     "invalid config",
	ErrSerialization:     "serialization",
	ErrContractViolation: "contract violation",
	ErrVMExecution:       "execution",
	ErrProofGeneration:   "proof generation",
	ErrProofVerification: "proof verification",
	ErrInvalidProof:      "invalid proof",
	ErrInvalidInput:      "invalid input",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// ZKVMError represents a Vybium zkVM error
type ZKVMError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *ZKVMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-zkvm error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-zkvm error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *ZKVMError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error
func (e *ZKVMError) Is(target error) bool {
	t, ok := target.(*ZKVMError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Code returns the error code carried by err, or ErrUnknown.
func Code(err error) ErrorCode {
	var ze *ZKVMError
	if errors.As(err, &ze) {
		return ze.Code
	}
	return ErrUnknown
}

// classify maps internal errors to codes; fallback is used for anything
// it does not recognize.
func classify(err error, fallback ErrorCode) ErrorCode {
	switch {
	case errors.Is(err, guest.ErrContractViolation):
		return ErrContractViolation
	case errors.Is(err, guest.ErrGuestPanicked),
		errors.Is(err, executor.ErrTimeout),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ErrVMExecution
	case errors.Is(err, prover.ErrTooManySegments),
		errors.Is(err, host.ErrSegmentLimit),
		errors.Is(err, receipt.ErrNilVerifier):
		return ErrInvalidInput
	case errors.Is(err, backend.ErrVerification):
		return ErrProofVerification
	case errors.Is(err, backend.ErrInvalidSeal),
		errors.Is(err, backend.ErrDevModeDisabled),
		errors.Is(err, receipt.ErrMalformed),
		errors.Is(err, receipt.ErrVersion),
		errors.Is(err, receipt.ErrUnknownSealKind):
		return ErrInvalidProof
	case errors.Is(err, codec.ErrEncode),
		errors.Is(err, codec.ErrDecode),
		errors.Is(err, codec.ErrTrailingData):
		return ErrSerialization
	}
	return fallback
}

func wrap(err error, fallback ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	var ze *ZKVMError
	if errors.As(err, &ze) {
		return err
	}
	return &ZKVMError{Code: classify(err, fallback), Message: msg, Cause: err}
}
