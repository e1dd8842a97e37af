package guest

import "errors"

// MemEnv is an in-memory Env for running guest code outside the executor.
// It records nothing but the journal.
type MemEnv struct {
	Segments [][]byte
	Journal  []byte

	// BigInt handles SysBigInt. When nil the call fails.
	BigInt func(blob []byte, base, modulus, result []uint32) error

	next int
}

// NewMemEnv returns a MemEnv serving the given segments in order.
func NewMemEnv(segments ...[]byte) *MemEnv {
	return &MemEnv{Segments: segments}
}

func (m *MemEnv) ReadSegment() ([]byte, error) {
	if m.next >= len(m.Segments) {
		return nil, ErrInputExhausted
	}
	seg := m.Segments[m.next]
	m.next++
	return seg, nil
}

func (m *MemEnv) Commit(data []byte) error {
	m.Journal = append(m.Journal, data...)
	return nil
}

func (m *MemEnv) SysBigInt(blob []byte, base, modulus, result []uint32) error {
	if m.BigInt == nil {
		return errors.New("zkvm: no accelerator attached")
	}
	return m.BigInt(blob, base, modulus, result)
}

// Remaining returns the number of unread segments.
func (m *MemEnv) Remaining() int {
	return len(m.Segments) - m.next
}
