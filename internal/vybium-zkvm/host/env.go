// Package host assembles the input environment a guest program runs
// against.
package host

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/bigint"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
)

// ErrSegmentLimit is returned when a write exceeds the configured limit.
var ErrSegmentLimit = errors.New("host: input segment limit reached")

// EnvBuilder collects input segments in write order.
type EnvBuilder struct {
	segments    [][]byte
	accelerator bigint.Accelerator
	limit       int
}

// NewEnvBuilder returns an empty builder using the honest host accelerator.
func NewEnvBuilder() *EnvBuilder {
	return &EnvBuilder{accelerator: bigint.HostAccelerator{}}
}

// Write encodes v and appends it as the next input segment. On error
// nothing is appended.
func (b *EnvBuilder) Write(v any) error {
	if err := b.checkLimit(); err != nil {
		return err
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("host: write segment %d: %w", len(b.segments), err)
	}
	b.segments = append(b.segments, data)
	return nil
}

// WriteSlice appends raw bytes as the next input segment. The guest reads
// it back with guest.ReadSlice.
func (b *EnvBuilder) WriteSlice(data []byte) error {
	if err := b.checkLimit(); err != nil {
		return err
	}
	b.segments = append(b.segments, append([]byte(nil), data...))
	return nil
}

func (b *EnvBuilder) checkLimit() error {
	if b.limit > 0 && len(b.segments) >= b.limit {
		return fmt.Errorf("%w (%d)", ErrSegmentLimit, b.limit)
	}
	return nil
}

// WithAccelerator sets the accelerator the guest's coprocessor calls reach.
func (b *EnvBuilder) WithAccelerator(a bigint.Accelerator) *EnvBuilder {
	b.accelerator = a
	return b
}

// WithSegmentLimit caps the number of segments; 0 means no limit.
func (b *EnvBuilder) WithSegmentLimit(n int) *EnvBuilder {
	b.limit = n
	return b
}

// Build freezes the segments written so far. Later writes to b do not
// affect the returned Env.
func (b *EnvBuilder) Build() *Env {
	segments := make([][]byte, len(b.segments))
	for i, s := range b.segments {
		segments[i] = append([]byte(nil), s...)
	}
	return &Env{segments: segments, accelerator: b.accelerator}
}

// Env is an immutable execution environment. It can back any number of
// runs; each run reads it through its own cursor.
type Env struct {
	segments    [][]byte
	accelerator bigint.Accelerator
}

// Len returns the number of input segments.
func (e *Env) Len() int {
	return len(e.segments)
}

// Segment returns a copy of segment i.
func (e *Env) Segment(i int) []byte {
	return append([]byte(nil), e.segments[i]...)
}

// Accelerator returns the accelerator bound to e.
func (e *Env) Accelerator() bigint.Accelerator {
	return e.accelerator
}
