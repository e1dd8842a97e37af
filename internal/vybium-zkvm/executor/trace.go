package executor

import (
	"encoding/binary"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/core"
)

// EventKind classifies a trace event.
type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventRead
	EventCommit
	EventBigInt
	EventHalt
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventRead:
		return "read"
	case EventCommit:
		return "commit"
	case EventBigInt:
		return "bigint"
	case EventHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Event is one host/guest interaction. Only digests of the exchanged data
// are kept.
type Event struct {
	Kind   EventKind
	Index  uint64
	Digest core.Digest
}

func (e Event) leaf() []byte {
	out := make([]byte, 1+8+core.DigestLen)
	out[0] = byte(e.Kind)
	binary.LittleEndian.PutUint64(out[1:9], e.Index)
	copy(out[9:], e.Digest[:])
	return out
}

func commitEvents(events []Event) (core.TraceRoot, error) {
	leaves := make([][]byte, len(events))
	for i, e := range events {
		leaves[i] = e.leaf()
	}
	return core.CommitTrace(leaves)
}
