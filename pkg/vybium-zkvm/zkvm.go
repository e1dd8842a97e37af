package vybiumzkvm

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend/groth16"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/host"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/prover"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/receipt"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/utils"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (*Config, error) {
	cfg, err := utils.LoadConfig(path)
	if err != nil {
		return nil, &ZKVMError{Code: ErrInvalidConfig, Message: "failed to load config", Cause: err}
	}
	return cfg, nil
}

// NewEnvBuilder returns an empty host environment builder
func NewEnvBuilder() *EnvBuilder {
	return host.NewEnvBuilder()
}

// Read decodes the next input segment as T
func Read[T any](env GuestEnv) T {
	return guest.Read[T](env)
}

// ReadInto decodes the next input segment into v
func ReadInto[T any](env GuestEnv, v *T) {
	guest.ReadInto(env, v)
}

// ReadSlice returns the next input segment as raw bytes
func ReadSlice(env GuestEnv) []byte {
	return guest.ReadSlice(env)
}

// Commit appends v to the journal
func Commit(env GuestEnv, v any) {
	guest.Commit(env, v)
}

// ParseImageID parses a hex image ID
func ParseImageID(s string) (ImageID, error) {
	id, err := core.ParseImageID(s)
	if err != nil {
		return ImageID{}, &ZKVMError{Code: ErrInvalidInput, Message: "invalid image ID", Cause: err}
	}
	return id, nil
}

// DecodeReceipt decodes a receipt produced by Receipt.MarshalBinary
func DecodeReceipt(data []byte) (*Receipt, error) {
	r := new(Receipt)
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, wrap(err, ErrInvalidProof, "failed to decode receipt")
	}
	return r, nil
}

// Option configures a ZKVM
type Option func(*options)

type options struct {
	log      zerolog.Logger
	observer func(Stage)
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithObserver is called when a run enters a proving stage
func WithObserver(fn func(Stage)) Option {
	return func(o *options) { o.observer = fn }
}

// ZKVM proves and verifies guest runs with the configured backend
type ZKVM struct {
	cfg      *Config
	prover   *prover.Prover
	verifier *Verifier
	groth16  *groth16.Backend
}

// New creates a zkVM. For the groth16 backend this runs the circuit setup.
func New(cfg *Config, opts ...Option) (*ZKVM, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ZKVMError{Code: ErrInvalidConfig, Message: "invalid configuration", Cause: err}
	}
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	z := &ZKVM{cfg: cfg.Clone()}
	var b backend.Prover
	switch cfg.Backend {
	case utils.BackendGroth16:
		g, err := groth16.Setup(o.log)
		if err != nil {
			return nil, &ZKVMError{Code: ErrProofGeneration, Message: "groth16 setup failed", Cause: err}
		}
		z.groth16 = g
		b = g
	default:
		b = backend.DevProver{}
	}

	popts := []prover.Option{prover.WithLogger(o.log)}
	if o.observer != nil {
		popts = append(popts, prover.WithObserver(o.observer))
	}
	p, err := prover.New(cfg, b, popts...)
	if err != nil {
		return nil, &ZKVMError{Code: ErrInvalidConfig, Message: "failed to create prover", Cause: err}
	}
	z.prover = p

	z.verifier = receipt.NewVerifier(backend.DevVerifier{Enabled: cfg.DevMode}).WithLogger(o.log)
	if z.groth16 != nil {
		z.verifier.Register(z.groth16.Verifier())
	}
	return z, nil
}

// Config returns a copy of the configuration
func (z *ZKVM) Config() *Config {
	return z.cfg.Clone()
}

// Execute runs program without proving
func (z *ZKVM) Execute(ctx context.Context, program *Program, env *Env) (*Session, error) {
	s, err := z.prover.Execute(ctx, program, env)
	if err != nil {
		return nil, wrap(err, ErrVMExecution, "execution failed")
	}
	return s, nil
}

// Prove runs program and proves the run
func (z *ZKVM) Prove(ctx context.Context, program *Program, env *Env) (*Receipt, error) {
	r, err := z.prover.Prove(ctx, program, env)
	if err != nil {
		return nil, wrap(err, ErrProofGeneration, "proving failed")
	}
	return r, nil
}

// ProveAll proves independent jobs concurrently
func (z *ZKVM) ProveAll(ctx context.Context, jobs []Job) []Result {
	results := z.prover.ProveAll(ctx, jobs)
	for i := range results {
		results[i].Err = wrap(results[i].Err, ErrProofGeneration, "proving failed")
	}
	return results
}

// Verifier returns the receipt verifier
func (z *ZKVM) Verifier() *Verifier {
	return z.verifier
}

// Verify checks that r was produced by the program with imageID
func (z *ZKVM) Verify(r *Receipt, imageID ImageID) error {
	return Verify(z.verifier, r, imageID)
}

// VerifyAll verifies receipts in parallel
func (z *ZKVM) VerifyAll(ctx context.Context, items []VerifyItem) error {
	return wrap(z.verifier.VerifyAll(ctx, items), ErrProofVerification, "verification failed")
}

// WriteVerifyingKey exports the groth16 verifying key
func (z *ZKVM) WriteVerifyingKey(w io.Writer) error {
	if z.groth16 == nil {
		return &ZKVMError{Code: ErrInvalidConfig, Message: "backend has no verifying key"}
	}
	if err := z.groth16.WriteVerifyingKey(w); err != nil {
		return &ZKVMError{Code: ErrSerialization, Message: "failed to write verifying key", Cause: err}
	}
	return nil
}

// NewVerifier builds a standalone verifier. vk, if not nil, is a groth16
// verifying key written by WriteVerifyingKey.
func NewVerifier(cfg *Config, vk io.Reader) (*Verifier, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	v := receipt.NewVerifier(backend.DevVerifier{Enabled: cfg.DevMode})
	if vk != nil {
		gv, err := groth16.ReadVerifier(vk)
		if err != nil {
			return nil, &ZKVMError{Code: ErrSerialization, Message: "failed to load verifying key", Cause: err}
		}
		v.Register(gv)
	}
	return v, nil
}

// Verify checks r against imageID with v
func Verify(v *Verifier, r *Receipt, imageID ImageID) error {
	if v == nil {
		return &ZKVMError{Code: ErrInvalidInput, Message: "nil verifier", Cause: receipt.ErrNilVerifier}
	}
	return wrap(v.Verify(r, imageID), ErrProofVerification, "verification failed")
}
