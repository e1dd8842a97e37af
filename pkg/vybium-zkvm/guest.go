package vybiumzkvm

import (
	"math/big"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/bigint"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
)

// Guest-side sentinel errors
var (
	ErrGuestContract    = guest.ErrContractViolation
	ErrGuestPanicked    = guest.ErrGuestPanicked
	ErrZeroModulus      = bigint.ErrZeroModulus
	ErrResultOutOfRange = bigint.ErrResultOutOfRange
)

// Abort fails the current guest run with a contract violation
func Abort(op string, err error) {
	guest.Abort(op, err)
}

// ModPow65537 returns base^65537 mod modulus using the host accelerator
func ModPow65537(env GuestEnv, base, modulus RsaArray) RsaArray {
	return bigint.ModPow65537(env, base, modulus)
}

// HostAccelerator returns the honest host accelerator
func HostAccelerator() Accelerator {
	return bigint.HostAccelerator{}
}

// RsaFromBig converts x to an RsaArray
func RsaFromBig(x *big.Int) (RsaArray, error) {
	return bigint.FromBig(x)
}

// RsaFromBytes converts a big-endian byte string to an RsaArray
func RsaFromBytes(be []byte) (RsaArray, error) {
	return bigint.FromBytes(be)
}
