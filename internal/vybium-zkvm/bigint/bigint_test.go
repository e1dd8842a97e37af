package bigint

import (
	"bytes"
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
)

// shiftingAccelerator returns the true residue plus k*modulus and adjusts
// the last quotient so that the blob relation still holds.
type shiftingAccelerator struct {
	k int64
}

func (s shiftingAccelerator) ModPow(blob *Blob, base, modulus RsaArray) (RsaArray, *Witness, error) {
	r, w, err := HostAccelerator{}.ModPow(blob, base, modulus)
	if err != nil {
		return RsaArray{}, nil, err
	}
	k := big.NewInt(s.k)
	shifted := new(big.Int).Mul(k, modulus.Big())
	shifted.Add(shifted, r.Big())
	v, err := FromBig(shifted)
	if err != nil {
		return RsaArray{}, nil, err
	}
	last := &w.Steps[len(w.Steps)-1]
	last.Value = v
	last.Quotient = new(big.Int).Sub(last.Quotient, k)
	return v, w, nil
}

// rawEnv writes a fixed result without any relation check.
type rawEnv struct {
	guest.MemEnv
	result RsaArray
}

func (e *rawEnv) SysBigInt(blob []byte, base, modulus, result []uint32) error {
	return e.result.PutWords(result)
}

func mustBig(t *testing.T, x *big.Int) RsaArray {
	t.Helper()
	a, err := FromBig(x)
	if err != nil {
		t.Fatalf("FromBig(%s) error = %v", x, err)
	}
	return a
}

func expect65537(base, modulus *big.Int) *big.Int {
	return new(big.Int).Exp(base, big.NewInt(65537), modulus)
}

func TestRsaArrayConversions(t *testing.T) {
	x, _ := new(big.Int).SetString("123456789abcdef0fedcba987654321", 16)
	a := mustBig(t, x)
	if a.Big().Cmp(x) != 0 {
		t.Errorf("Big() = %s, want %s", a.Big(), x)
	}

	b, err := FromBytes(x.Bytes())
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if !a.Equal(b) {
		t.Error("FromBytes and FromBig disagree")
	}
	if len(a.Bytes()) != 512 {
		t.Errorf("Bytes() length = %d, want 512", len(a.Bytes()))
	}

	if FromUint64(1<<40+5).Big().Uint64() != 1<<40+5 {
		t.Error("FromUint64 round trip failed")
	}

	words := make([]uint32, RSA4096WidthWords)
	if err := a.PutWords(words); err != nil {
		t.Fatalf("PutWords() error = %v", err)
	}
	c, err := FromWords(words)
	if err != nil {
		t.Fatalf("FromWords() error = %v", err)
	}
	if !c.Equal(a) {
		t.Error("FromWords(PutWords(a)) != a")
	}

	var d RsaArray
	if err := d.UnmarshalBinary(a.Bytes()); err != nil || !d.Equal(a) {
		t.Errorf("UnmarshalBinary() = %v, %v", d, err)
	}
}

func TestRsaArrayErrors(t *testing.T) {
	if _, err := FromBig(big.NewInt(-1)); !errors.Is(err, ErrNegative) {
		t.Errorf("FromBig(-1) error = %v, want ErrNegative", err)
	}
	tooWide := new(big.Int).Lsh(big.NewInt(1), 4096)
	if _, err := FromBig(tooWide); !errors.Is(err, ErrOverflow) {
		t.Errorf("FromBig(2^4096) error = %v, want ErrOverflow", err)
	}
	if _, err := FromBytes(make([]byte, 513)); !errors.Is(err, ErrOverflow) {
		t.Errorf("FromBytes(513 bytes) error = %v, want ErrOverflow", err)
	}
	if _, err := FromWords(make([]uint32, 64)); !errors.Is(err, ErrWidth) {
		t.Errorf("FromWords(64) error = %v, want ErrWidth", err)
	}
	if err := FromUint64(1).PutWords(make([]uint32, 3)); !errors.Is(err, ErrWidth) {
		t.Errorf("PutWords(3) error = %v, want ErrWidth", err)
	}
}

func TestRsaArrayOrdering(t *testing.T) {
	high := mustBig(t, new(big.Int).Lsh(big.NewInt(1), 4000))
	low := mustBig(t, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 4000), big.NewInt(1)))

	tests := []struct {
		name string
		a, b RsaArray
		want int
	}{
		{"equal zero", RsaArray{}, RsaArray{}, 0},
		{"small", FromUint64(3), FromUint64(4), -1},
		{"high limb wins", high, low, 1},
		{"across limbs", FromUint64(1 << 32), FromUint64(1<<32 - 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cmp(tt.b); got != tt.want {
				t.Errorf("Cmp() = %d, want %d", got, tt.want)
			}
			if got := tt.a.Less(tt.b); got != (tt.want < 0) {
				t.Errorf("Less() = %v", got)
			}
		})
	}
	if !(RsaArray{}).IsZero() || FromUint64(1).IsZero() {
		t.Error("IsZero() wrong")
	}
}

func TestEmbeddedBlob(t *testing.T) {
	b := ModPow65537Blob()
	if b.Exponent != 65537 {
		t.Errorf("Exponent = %d, want 65537", b.Exponent)
	}
	if len(b.Ops) != 17 {
		t.Errorf("len(Ops) = %d, want 17", len(b.Ops))
	}
	if b.WidthWords != RSA4096WidthWords {
		t.Errorf("WidthWords = %d", b.WidthWords)
	}
	enc, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	if !bytes.Equal(enc, b.Raw()) {
		t.Error("MarshalBinary() differs from embedded bytes")
	}
}

func TestParseBlobRejects(t *testing.T) {
	good := ModPow65537Blob().Raw()
	mutate := func(f func([]byte) []byte) []byte {
		return f(append([]byte(nil), good...))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", good[:len(good)-1]},
		{"bad magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"bad version", mutate(func(b []byte) []byte { b[4] = 9; return b })},
		{"bad relation", mutate(func(b []byte) []byte { b[6] = 7; return b })},
		{"bad width", mutate(func(b []byte) []byte { b[8] = 64; return b })},
		{"wrong exponent", mutate(func(b []byte) []byte { b[12] = 3; return b })},
		{"unknown op", mutate(func(b []byte) []byte { b[len(b)-1] = 9; return b })},
		{"program mismatch", mutate(func(b []byte) []byte { b[len(b)-1] = byte(OpSquare); return b })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBlob(tt.data); !errors.Is(err, ErrBadBlob) {
				t.Errorf("ParseBlob() error = %v, want ErrBadBlob", err)
			}
		})
	}
}

func TestModPow65537Honest(t *testing.T) {
	env := &guest.MemEnv{BigInt: Handler(HostAccelerator{})}

	cases := []struct {
		base, modulus *big.Int
	}{
		{big.NewInt(1), big.NewInt(3)},
		{big.NewInt(2), big.NewInt(1000003)},
		{big.NewInt(12345), big.NewInt(65537)},
		{big.NewInt(5), big.NewInt(1)},
		{big.NewInt(99), big.NewInt(7)}, // base above modulus
	}
	for i := 0; i < 4; i++ {
		n, err := rand.Prime(rand.Reader, 1024)
		if err != nil {
			t.Fatalf("rand.Prime() error = %v", err)
		}
		m, err := rand.Prime(rand.Reader, 1024)
		if err != nil {
			t.Fatalf("rand.Prime() error = %v", err)
		}
		n.Mul(n, m)
		base, err := rand.Int(rand.Reader, n)
		if err != nil {
			t.Fatalf("rand.Int() error = %v", err)
		}
		cases = append(cases, struct{ base, modulus *big.Int }{base, n})
	}

	for _, c := range cases {
		var got RsaArray
		err := guest.Run(func(env guest.Env) {
			got = ModPow65537(env, mustBig(t, c.base), mustBig(t, c.modulus))
		}, env)
		if err != nil {
			t.Fatalf("ModPow65537(%s, %s) error = %v", c.base, c.modulus, err)
		}
		if want := expect65537(c.base, c.modulus); got.Big().Cmp(want) != 0 {
			t.Errorf("ModPow65537(%s, %s) = %s, want %s", c.base, c.modulus, got, want)
		}
	}
}

func TestModPow65537RejectsShiftedResult(t *testing.T) {
	base := FromUint64(1)
	modulus := FromUint64(3)

	// The shifted witness is accepted by the blob relation.
	r, w, err := shiftingAccelerator{k: 1}.ModPow(ModPow65537Blob(), base, modulus)
	if err != nil {
		t.Fatalf("ModPow() error = %v", err)
	}
	if r.Big().Int64() != 4 {
		t.Fatalf("shifted result = %s, want 4", r)
	}
	if err := ModPow65537Blob().Verify(base, modulus, r, w); err != nil {
		t.Fatalf("Verify() rejected a relation-consistent witness: %v", err)
	}

	// The guest bound check is what rejects it.
	env := &guest.MemEnv{BigInt: Handler(shiftingAccelerator{k: 1})}
	err = guest.Run(func(env guest.Env) {
		_ = ModPow65537(env, base, modulus)
		t.Error("guest continued after an out-of-range result")
	}, env)
	if !errors.Is(err, ErrResultOutOfRange) {
		t.Fatalf("Run() error = %v, want ErrResultOutOfRange", err)
	}
	if !errors.Is(err, guest.ErrContractViolation) {
		t.Errorf("Run() error = %v, want ErrContractViolation", err)
	}
}

func TestModPow65537BoundCheck(t *testing.T) {
	modulus := big.NewInt(1000003)
	for _, candidate := range []*big.Int{
		modulus,
		new(big.Int).Add(modulus, big.NewInt(1)),
		new(big.Int).Lsh(big.NewInt(1), 4095),
	} {
		env := &rawEnv{result: mustBig(t, candidate)}
		err := guest.Run(func(env guest.Env) {
			_ = ModPow65537(env, FromUint64(2), mustBig(t, modulus))
		}, env)
		if !errors.Is(err, ErrResultOutOfRange) {
			t.Errorf("candidate %s: error = %v, want ErrResultOutOfRange", candidate, err)
		}
	}
}

func TestModPow65537ZeroModulus(t *testing.T) {
	called := false
	env := &guest.MemEnv{BigInt: func(blob []byte, base, modulus, result []uint32) error {
		called = true
		return nil
	}}
	err := guest.Run(func(env guest.Env) {
		_ = ModPow65537(env, FromUint64(2), RsaArray{})
	}, env)
	if !errors.Is(err, ErrZeroModulus) {
		t.Fatalf("Run() error = %v, want ErrZeroModulus", err)
	}
	if called {
		t.Error("accelerator was called with a zero modulus")
	}
}

func TestVerifyRejectsBadWitness(t *testing.T) {
	blob := ModPow65537Blob()
	base := FromUint64(7)
	modulus := FromUint64(1000003)
	r, w, err := HostAccelerator{}.ModPow(blob, base, modulus)
	if err != nil {
		t.Fatalf("ModPow() error = %v", err)
	}
	if err := blob.Verify(base, modulus, r, w); err != nil {
		t.Fatalf("Verify(honest) error = %v", err)
	}

	short := &Witness{Steps: w.Steps[:3]}
	if err := blob.Verify(base, modulus, r, short); !errors.Is(err, ErrWitness) {
		t.Errorf("Verify(short) error = %v, want ErrWitness", err)
	}
	if err := blob.Verify(base, modulus, r, nil); !errors.Is(err, ErrWitness) {
		t.Errorf("Verify(nil) error = %v, want ErrWitness", err)
	}

	bad := &Witness{Steps: append([]Step(nil), w.Steps...)}
	bad.Steps[5].Quotient = new(big.Int).Add(bad.Steps[5].Quotient, big.NewInt(1))
	if err := blob.Verify(base, modulus, r, bad); !errors.Is(err, ErrRelation) {
		t.Errorf("Verify(tampered quotient) error = %v, want ErrRelation", err)
	}

	if err := blob.Verify(base, modulus, FromUint64(1), w); !errors.Is(err, ErrRelation) {
		t.Errorf("Verify(wrong result) error = %v, want ErrRelation", err)
	}
	if err := blob.Verify(base, RsaArray{}, r, w); !errors.Is(err, ErrZeroModulus) {
		t.Errorf("Verify(zero modulus) error = %v, want ErrZeroModulus", err)
	}
}

func TestServeRejectsBadBuffers(t *testing.T) {
	words := make([]uint32, RSA4096WidthWords)
	if _, err := Serve(HostAccelerator{}, []byte("junk"), words, words, words); !errors.Is(err, ErrBadBlob) {
		t.Errorf("Serve(bad blob) error = %v, want ErrBadBlob", err)
	}
	blob := ModPow65537Blob().Raw()
	if _, err := Serve(HostAccelerator{}, blob, words[:5], words, words); !errors.Is(err, ErrWidth) {
		t.Errorf("Serve(short base) error = %v, want ErrWidth", err)
	}
	if _, err := Serve(HostAccelerator{}, blob, words, words, words); !errors.Is(err, ErrAccelerator) {
		t.Errorf("Serve(zero modulus) error = %v, want ErrAccelerator", err)
	}
}
