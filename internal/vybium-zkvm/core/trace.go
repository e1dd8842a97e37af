package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/merkle"
	"golang.org/x/sync/errgroup"
)

// TraceRoot is the Merkle commitment to an execution trace.
type TraceRoot [Tip5Len]byte

// ErrEmptyTrace is returned when committing to a trace without events.
var ErrEmptyTrace = errors.New("core: empty trace")

// leafBatch is the number of leaves hashed per worker.
const leafBatch = 256

// CommitTrace builds a Merkle tree over the given leaves and returns its
// root. Leaves are hashed with Tip5 and the leaf layer is padded with zero
// digests up to a power of two (at least two leaves).
func CommitTrace(leaves [][]byte) (TraceRoot, error) {
	if len(leaves) == 0 {
		return TraceRoot{}, ErrEmptyTrace
	}

	size := 2
	for size < len(leaves) {
		size <<= 1
	}
	digests := make([]hash.Digest, size)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(leaves); start += leafBatch {
		end := min(start+leafBatch, len(leaves))
		g.Go(func() error {
			for i := start; i < end; i++ {
				digests[i] = hash.HashVarlen(packBytes(leaves[i]))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TraceRoot{}, err
	}

	tree, err := merkle.New(digests)
	if err != nil {
		return TraceRoot{}, fmt.Errorf("failed to create Merkle tree: %w", err)
	}
	return TraceRoot(digestToBytes(tree.Root())), nil
}

// String returns the hex encoding of r.
func (r TraceRoot) String() string {
	return hex.EncodeToString(r[:])
}
