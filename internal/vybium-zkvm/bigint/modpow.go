package bigint

import (
	"errors"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/guest"
)

// ErrResultOutOfRange is raised when the accelerator result is not below
// the modulus.
var ErrResultOutOfRange = errors.New("bigint: accelerator result not below modulus")

// ModPow65537 returns base^65537 mod modulus, computed by the host
// accelerator. A zero modulus aborts the guest before the call.
func ModPow65537(env guest.Env, base, modulus RsaArray) RsaArray {
	if modulus.IsZero() {
		guest.Abort("modpow_65537", ErrZeroModulus)
	}

	var result [RSA4096WidthWords]uint32
	if err := env.SysBigInt(modpow65537.Raw(), base.w[:], modulus.w[:], result[:]); err != nil {
		guest.Abort("modpow_65537", err)
	}
	r := RsaArray{w: result}

	// The accelerator relation only holds up to a multiple of the modulus:
	// a dishonest host can return 4 for 1^65537 mod 3 since 4 - 1 = 3.
	// An honest host always returns a value below the modulus.
	if !r.Less(modulus) {
		guest.Abort("modpow_65537", ErrResultOutOfRange)
	}
	return r
}
