package tricrypto_simulator

import "github.com/holiman/uint256"

const (
	N_COINS = 3

	// A is passed with N**N and A_MULTIPLIER folded in, so a nominal
	// amplification of 135 is given as 135 * 27 * A_MULTIPLIER.
	A_MULTIPLIER = 10000

	MAX_ITERATIONS      = 255
	CBRT_MAX_ITERATIONS = 1000

	// 600 / ln(2)
	DEFAULT_MA_TIME uint64 = 866
)

var (
	ZERO      = uint256.NewInt(0)
	ONE       = uint256.NewInt(1)
	PRECISION = uint256.NewInt(1e18)

	MaxUint256 = new(uint256.Int).SetAllOne()

	MIN_GAMMA = uint256.NewInt(1e10)
	MAX_GAMMA = uint256.NewInt(5e16)

	MIN_A = uint256.NewInt(N_COINS * N_COINS * N_COINS * A_MULTIPLIER / 100)
	MAX_A = uint256.NewInt(N_COINS * N_COINS * N_COINS * A_MULTIPLIER * 1000)

	MIN_D = uint256.NewInt(1e17)
	MAX_D = new(uint256.Int).Mul(uint256.NewInt(1e15), PRECISION)

	// x[i] * 1e18 / D must stay inside [MIN_FRAC, MAX_FRAC]
	MIN_FRAC = uint256.NewInt(1e16)
	MAX_FRAC = new(uint256.Int).Mul(uint256.NewInt(100), PRECISION)

	// largest cbrt input that can be scaled by 1e36 without wrapping
	CBRT_EXACT_LIMIT = new(uint256.Int).Div(MaxUint256, pow10(36))

	e6   = pow10(6)
	e12  = pow10(12)
	e14  = pow10(14)
	e18  = PRECISION
	e36  = pow10(36)
	nN   = uint256.NewInt(N_COINS)
	n27  = uint256.NewInt(N_COINS * N_COINS * N_COINS)
	aMul = uint256.NewInt(A_MULTIPLIER)
)

func pow10(n uint64) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(n))
}
