package executor

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/bigint"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/codec"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/host"
)

func program(name string, entry func(guest.Env)) *guest.Program {
	return &guest.Program{Name: name, Artifact: []byte(name + "-artifact"), Entry: entry}
}

func buildEnv(t *testing.T, values ...any) *host.Env {
	t.Helper()
	b := host.NewEnvBuilder()
	for _, v := range values {
		if err := b.Write(v); err != nil {
			t.Fatalf("Write(%v) error = %v", v, err)
		}
	}
	return b.Build()
}

var echo = program("echo", func(env guest.Env) {
	a := guest.Read[uint64](env)
	b := guest.Read[uint64](env)
	c := guest.Read[uint64](env)
	guest.Commit(env, []uint64{a, b, c})
})

func TestExecuteOrderPreserved(t *testing.T) {
	session, err := Execute(context.Background(), echo, buildEnv(t, uint64(1), uint64(2), uint64(3)), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got []uint64
	if err := codec.Unmarshal(session.Journal, &got); err != nil {
		t.Fatalf("Unmarshal(journal) error = %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("journal = %v, want [1 2 3]", got)
	}
	if session.SegmentsRead != 3 {
		t.Errorf("SegmentsRead = %d, want 3", session.SegmentsRead)
	}
	if session.Cycles != 4 {
		t.Errorf("Cycles = %d, want 4", session.Cycles)
	}

	kinds := []EventKind{EventStart, EventRead, EventRead, EventRead, EventCommit, EventHalt}
	if len(session.Events) != len(kinds) {
		t.Fatalf("recorded %d events, want %d", len(session.Events), len(kinds))
	}
	for i, k := range kinds {
		if session.Events[i].Kind != k {
			t.Errorf("event %d = %s, want %s", i, session.Events[i].Kind, k)
		}
	}
}

func TestExecuteReadPastEnd(t *testing.T) {
	fourth := program("fourth", func(env guest.Env) {
		for i := 0; i < 4; i++ {
			_ = guest.Read[uint64](env)
		}
		guest.Commit(env, uint64(0))
	})

	session, err := Execute(context.Background(), fourth, buildEnv(t, uint64(1), uint64(2), uint64(3)), Options{})
	if !errors.Is(err, guest.ErrInputExhausted) {
		t.Fatalf("Execute() error = %v, want ErrInputExhausted", err)
	}
	if !errors.Is(err, guest.ErrContractViolation) {
		t.Errorf("Execute() error = %v, want ErrContractViolation", err)
	}
	if session != nil {
		t.Error("a failed run must not return a session")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	env := buildEnv(t, uint64(4), uint64(5), uint64(6))

	first, err := Execute(context.Background(), echo, env, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second, err := Execute(context.Background(), echo, env, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !bytes.Equal(first.Journal, second.Journal) {
		t.Error("journals differ across runs")
	}
	if first.TraceRoot != second.TraceRoot {
		t.Error("trace roots differ across runs")
	}
	if first.ImageID != second.ImageID {
		t.Error("image IDs differ across runs")
	}

	other, err := Execute(context.Background(), echo, buildEnv(t, uint64(4), uint64(5), uint64(7)), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if other.TraceRoot == first.TraceRoot {
		t.Error("different inputs should give different traces")
	}
}

func TestExecuteTypeMismatch(t *testing.T) {
	_, err := Execute(context.Background(), echo, buildEnv(t, "one", uint64(2), uint64(3)), Options{})
	if !errors.Is(err, codec.ErrDecode) {
		t.Fatalf("Execute() error = %v, want codec.ErrDecode", err)
	}
}

func TestExecuteGuestPanic(t *testing.T) {
	p := program("panics", func(env guest.Env) {
		var xs []int
		_ = xs[3]
	})
	_, err := Execute(context.Background(), p, buildEnv(t), Options{})
	if !errors.Is(err, guest.ErrGuestPanicked) {
		t.Fatalf("Execute() error = %v, want ErrGuestPanicked", err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	p := program("stuck", func(env guest.Env) {
		<-release
		guest.Commit(env, uint64(1))
	})
	start := time.Now()
	_, err := Execute(context.Background(), p, buildEnv(t), Options{Timeout: 50 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Execute() did not return promptly on timeout")
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Execute(ctx, echo, buildEnv(t), Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestExecuteJournalLimit(t *testing.T) {
	p := program("chatty", func(env guest.Env) {
		guest.Commit(env, bytes.Repeat([]byte{1}, 64))
	})
	_, err := Execute(context.Background(), p, buildEnv(t), Options{MaxJournalBytes: 16})
	if !errors.Is(err, ErrJournalLimit) {
		t.Fatalf("Execute() error = %v, want ErrJournalLimit", err)
	}
}

func TestExecuteRejectsMalformedCommit(t *testing.T) {
	p := program("raw", func(env guest.Env) {
		if err := env.Commit([]byte{0xff}); err != nil {
			guest.Abort("commit", err)
		}
	})
	_, err := Execute(context.Background(), p, buildEnv(t), Options{})
	if !errors.Is(err, codec.ErrDecode) {
		t.Fatalf("Execute() error = %v, want codec.ErrDecode", err)
	}
}

func TestExecuteInvalidProgram(t *testing.T) {
	if _, err := Execute(context.Background(), &guest.Program{Name: "x"}, buildEnv(t), Options{}); err == nil {
		t.Error("Execute() with no entry point should fail")
	}
	if _, err := Execute(context.Background(), echo, nil, Options{}); err == nil {
		t.Error("Execute() with nil env should fail")
	}
}

var modpow = program("modpow", func(env guest.Env) {
	base := guest.Read[bigint.RsaArray](env)
	modulus := guest.Read[bigint.RsaArray](env)
	r := bigint.ModPow65537(env, base, modulus)
	guest.Commit(env, r)
})

type shiftingAccelerator struct{}

func (shiftingAccelerator) ModPow(blob *bigint.Blob, base, modulus bigint.RsaArray) (bigint.RsaArray, *bigint.Witness, error) {
	r, w, err := bigint.HostAccelerator{}.ModPow(blob, base, modulus)
	if err != nil {
		return bigint.RsaArray{}, nil, err
	}
	shifted, err := bigint.FromBig(new(big.Int).Add(r.Big(), modulus.Big()))
	if err != nil {
		return bigint.RsaArray{}, nil, err
	}
	last := &w.Steps[len(w.Steps)-1]
	last.Value = shifted
	last.Quotient = new(big.Int).Sub(last.Quotient, big.NewInt(1))
	return shifted, w, nil
}

type lyingAccelerator struct{}

func (lyingAccelerator) ModPow(blob *bigint.Blob, base, modulus bigint.RsaArray) (bigint.RsaArray, *bigint.Witness, error) {
	_, w, err := bigint.HostAccelerator{}.ModPow(blob, base, modulus)
	if err != nil {
		return bigint.RsaArray{}, nil, err
	}
	return bigint.FromUint64(0), w, nil
}

func TestExecuteCoprocessor(t *testing.T) {
	base := bigint.FromUint64(12345)
	modulus := bigint.FromUint64(1000003)
	want := new(big.Int).Exp(big.NewInt(12345), big.NewInt(65537), big.NewInt(1000003))

	session, err := Execute(context.Background(), modpow, buildEnv(t, base, modulus), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var got bigint.RsaArray
	if err := codec.Unmarshal(session.Journal, &got); err != nil {
		t.Fatalf("Unmarshal(journal) error = %v", err)
	}
	if got.Big().Cmp(want) != 0 {
		t.Errorf("journal = %s, want %s", got, want)
	}

	var sawBigInt bool
	for _, e := range session.Events {
		if e.Kind == EventBigInt {
			sawBigInt = true
		}
	}
	if !sawBigInt {
		t.Error("accelerator call was not recorded in the trace")
	}
}

func TestExecuteCoprocessorAdversarial(t *testing.T) {
	tests := []struct {
		name string
		acc  bigint.Accelerator
		want error
	}{
		{"shifted by modulus", shiftingAccelerator{}, bigint.ErrResultOutOfRange},
		{"relation broken", lyingAccelerator{}, bigint.ErrRelation},
		{"missing accelerator", nil, ErrNoAccelerator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := host.NewEnvBuilder().WithAccelerator(tt.acc)
			if err := b.Write(bigint.FromUint64(1)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := b.Write(bigint.FromUint64(3)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			session, err := Execute(context.Background(), modpow, b.Build(), Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, guest.ErrContractViolation) {
				t.Errorf("Execute() error = %v, want ErrContractViolation", err)
			}
			if session != nil {
				t.Error("no session may be produced for a rejected result")
			}
		})
	}
}
