// Package executor runs guest programs against a host environment and
// records the execution trace that proof backends commit to.
package executor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/bigint"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/host"
)

var (
	// ErrTimeout is returned when the guest does not halt in time.
	ErrTimeout = errors.New("zkvm: session timed out")

	// ErrSessionClosed is returned to a guest that keeps running after its
	// session was abandoned.
	ErrSessionClosed = errors.New("zkvm: session closed")

	// ErrJournalLimit is returned when a commit would exceed the journal cap.
	ErrJournalLimit = errors.New("zkvm: journal size limit exceeded")

	// ErrNoAccelerator is returned when the environment has no accelerator.
	ErrNoAccelerator = errors.New("zkvm: no accelerator in environment")
)

// Options tune a single execution.
type Options struct {
	// Timeout bounds the run; 0 means only ctx bounds it.
	Timeout time.Duration

	// MaxJournalBytes caps the journal; 0 means no cap.
	MaxJournalBytes int

	Logger zerolog.Logger
}

// Session is the result of a successful execution.
type Session struct {
	ImageID      core.ImageID
	Journal      []byte
	Events       []Event
	TraceRoot    core.TraceRoot
	SegmentsRead int

	// Cycles counts the system calls the guest made.
	Cycles uint64
}

// Claim returns the public claim of the run.
func (s *Session) Claim() core.Claim {
	return core.NewClaim(s.ImageID, s.Journal)
}

// Execute runs program against env. A contract violation, a guest panic or
// a timeout fails the whole run; no partial session is returned.
func Execute(ctx context.Context, program *guest.Program, env *host.Env, opts Options) (*Session, error) {
	if err := program.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, errors.New("zkvm: nil environment")
	}
	imageID, err := program.ImageID()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	log := opts.Logger.With().
		Str("program", program.Name).
		Str("image_id", imageID.String()).
		Logger()
	log.Debug().Int("segments", env.Len()).Msg("execution started")

	run := newRunEnv(env, opts.MaxJournalBytes)
	run.record(EventStart, core.SHA3(imageID[:], binary.LittleEndian.AppendUint64(nil, uint64(env.Len()))))

	done := make(chan error, 1)
	go func() {
		done <- guest.Run(program.Entry, run)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Debug().Err(err).Msg("execution failed")
			return nil, err
		}
	case <-ctx.Done():
		run.closed.Store(true)
		log.Warn().Err(ctx.Err()).Msg("execution abandoned")
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}

	run.record(EventHalt, core.SHA3(run.journal))
	root, err := commitEvents(run.events)
	if err != nil {
		return nil, fmt.Errorf("failed to commit trace: %w", err)
	}

	cycles := uint64(len(run.events) - 2)
	log.Debug().
		Uint64("cycles", cycles).
		Int("segments_read", run.next).
		Int("journal_len", len(run.journal)).
		Msg("execution finished")

	return &Session{
		ImageID:      imageID,
		Journal:      run.journal,
		Events:       run.events,
		TraceRoot:    root,
		SegmentsRead: run.next,
		Cycles:       cycles,
	}, nil
}

// runEnv is the guest.Env of one run. It is owned by the guest goroutine
// until the run finishes.
type runEnv struct {
	env        *host.Env
	next       int
	journal    []byte
	maxJournal int
	events     []Event
	closed     atomic.Bool
}

func newRunEnv(env *host.Env, maxJournal int) *runEnv {
	return &runEnv{env: env, maxJournal: maxJournal}
}

func (r *runEnv) record(kind EventKind, digest core.Digest) {
	r.events = append(r.events, Event{Kind: kind, Index: uint64(len(r.events)), Digest: digest})
}

func (r *runEnv) ReadSegment() ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrSessionClosed
	}
	if r.next >= r.env.Len() {
		return nil, fmt.Errorf("%w: %d segments available", guest.ErrInputExhausted, r.env.Len())
	}
	seg := r.env.Segment(r.next)
	r.next++
	r.record(EventRead, core.SHA3(seg))
	return seg, nil
}

func (r *runEnv) Commit(data []byte) error {
	if r.closed.Load() {
		return ErrSessionClosed
	}
	if err := codec.Valid(data); err != nil {
		return err
	}
	if r.maxJournal > 0 && len(r.journal)+len(data) > r.maxJournal {
		return fmt.Errorf("%w: %d bytes", ErrJournalLimit, r.maxJournal)
	}
	r.journal = append(r.journal, data...)
	r.record(EventCommit, core.SHA3(data))
	return nil
}

func (r *runEnv) SysBigInt(blob []byte, base, modulus, result []uint32) error {
	if r.closed.Load() {
		return ErrSessionClosed
	}
	acc := r.env.Accelerator()
	if acc == nil {
		return ErrNoAccelerator
	}
	call, err := bigint.Serve(acc, blob, base, modulus, result)
	if err != nil {
		return err
	}
	r.record(EventBigInt, core.SHA3(call.Blob.Raw(), call.Base.Bytes(), call.Modulus.Bytes(), call.Result.Bytes()))
	return nil
}
