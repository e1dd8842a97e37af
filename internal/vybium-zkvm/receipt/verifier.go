package receipt

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/backend"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

var (
	// ErrUnknownSealKind is returned when no backend is registered for a seal.
	ErrUnknownSealKind = errors.New("zkvm: no verifier for seal kind")

	// ErrNilVerifier is returned when a receipt is checked without a verifier.
	ErrNilVerifier = errors.New("zkvm: nil verifier")
)

// Verifier dispatches receipts to the backend verifier of their seal kind.
// It is safe for concurrent use once configured.
type Verifier struct {
	backends map[backend.SealKind]backend.Verifier
	log      zerolog.Logger
}

// NewVerifier registers vs. A later verifier of the same kind replaces an
// earlier one.
func NewVerifier(vs ...backend.Verifier) *Verifier {
	v := &Verifier{
		backends: make(map[backend.SealKind]backend.Verifier, len(vs)),
		log:      zerolog.Nop(),
	}
	for _, b := range vs {
		v.Register(b)
	}
	return v
}

// Register adds b. Not safe to call concurrently with Verify.
func (v *Verifier) Register(b backend.Verifier) *Verifier {
	v.backends[b.Kind()] = b
	return v
}

// WithLogger sets the logger.
func (v *Verifier) WithLogger(log zerolog.Logger) *Verifier {
	v.log = log
	return v
}

// Verify checks that r was produced by the program identified by imageID.
func (v *Verifier) Verify(r *Receipt, imageID core.ImageID) error {
	if v == nil {
		return ErrNilVerifier
	}
	if r == nil {
		return fmt.Errorf("%w: nil receipt", ErrMalformed)
	}
	if r.version != core.ClaimVersion {
		return fmt.Errorf("%w: %d", ErrVersion, r.version)
	}
	if imageID.IsZero() {
		return fmt.Errorf("%w: zero image ID", backend.ErrVerification)
	}
	b, ok := v.backends[r.seal.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSealKind, r.seal.Kind)
	}

	if err := b.Verify(&r.seal, r.Claim(imageID)); err != nil {
		v.log.Debug().Err(err).
			Str("image_id", imageID.String()).
			Str("backend", string(r.seal.Kind)).
			Msg("receipt rejected")
		return err
	}
	v.log.Debug().
		Str("image_id", imageID.String()).
		Str("backend", string(r.seal.Kind)).
		Int("journal_len", r.journal.Len()).
		Msg("receipt verified")
	return nil
}

// Item pairs a receipt with the image ID it must match.
type Item struct {
	Receipt *Receipt
	ImageID core.ImageID
}

// VerifyAll verifies items in parallel and returns the first failure.
func (v *Verifier) VerifyAll(ctx context.Context, items []Item) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.Verify(it.Receipt, it.ImageID); err != nil {
				return fmt.Errorf("receipt %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
