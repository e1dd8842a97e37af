// Package prover executes guest programs and turns successful runs into
// receipts.
package prover

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/executor"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/host"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/receipt"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/utils"
)

var (
	// ErrBackendMismatch is returned when the backend is not the one the
	// configuration names.
	ErrBackendMismatch = errors.New("zkvm: backend does not match configuration")

	// ErrTooManySegments is returned when an environment exceeds
	// Config.MaxSegments.
	ErrTooManySegments = errors.New("zkvm: too many input segments")
)

// Stage is a step of proving, reported to observers.
type Stage int

const (
	StageExecute Stage = iota
	StageProve
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageExecute:
		return "execute"
	case StageProve:
		return "prove"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Option configures a Prover.
type Option func(*Prover)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Prover) { p.log = log }
}

// WithObserver registers fn to be called when a run enters a stage. fn may
// be called from several goroutines in ProveAll.
func WithObserver(fn func(Stage)) Option {
	return func(p *Prover) { p.observe = fn }
}

// Prover runs programs and proves their execution with one backend.
type Prover struct {
	cfg     *utils.Config
	backend backend.Prover
	log     zerolog.Logger
	observe func(Stage)
}

// New creates a prover. cfg is copied.
func New(cfg *utils.Config, b backend.Prover, opts ...Option) (*Prover, error) {
	if cfg == nil {
		cfg = utils.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if b == nil {
		return nil, errors.New("zkvm: nil backend")
	}
	if string(b.Kind()) != cfg.Backend {
		return nil, fmt.Errorf("%w: configured %q, got %q", ErrBackendMismatch, cfg.Backend, b.Kind())
	}

	p := &Prover{
		cfg:     cfg.Clone(),
		backend: b,
		log:     zerolog.Nop(),
		observe: func(Stage) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns a copy of the prover's configuration.
func (p *Prover) Config() *utils.Config {
	return p.cfg.Clone()
}

// Execute runs program against env without proving.
func (p *Prover) Execute(ctx context.Context, program *guest.Program, env *host.Env) (*executor.Session, error) {
	if env != nil && p.cfg.MaxSegments > 0 && env.Len() > p.cfg.MaxSegments {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySegments, env.Len(), p.cfg.MaxSegments)
	}
	return executor.Execute(ctx, program, env, executor.Options{
		Timeout:         p.cfg.SessionTimeout,
		MaxJournalBytes: p.cfg.MaxJournalBytes,
		Logger:          p.log,
	})
}

// Prove runs program against env and proves the run. Either a complete
// receipt or an error is returned.
func (p *Prover) Prove(ctx context.Context, program *guest.Program, env *host.Env) (*receipt.Receipt, error) {
	p.observe(StageExecute)
	session, err := p.Execute(ctx, program, env)
	if err != nil {
		return nil, err
	}

	p.observe(StageProve)
	st := &backend.Statement{
		Claim:     session.Claim(),
		TraceRoot: session.TraceRoot,
	}
	seal, err := p.backend.Prove(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}

	p.observe(StageDone)
	p.log.Info().
		Str("image_id", session.ImageID.String()).
		Str("backend", string(seal.Kind)).
		Uint64("cycles", session.Cycles).
		Int("segments", session.SegmentsRead).
		Int("journal_len", len(session.Journal)).
		Msg("receipt generated")
	return receipt.New(session.Journal, seal), nil
}

// Job is one independent run for ProveAll.
type Job struct {
	Program *guest.Program
	Env     *host.Env
}

// Result is the outcome of one Job.
type Result struct {
	Receipt *receipt.Receipt
	Err     error
}

// ProveAll proves jobs concurrently, at most Config.Parallelism at a time.
// A failing job does not affect the others. Results are in job order.
func (p *Prover) ProveAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.cfg.Parallelism)
	for i, job := range jobs {
		g.Go(func() error {
			r, err := p.Prove(ctx, job.Program, job.Env)
			results[i] = Result{Receipt: r, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
