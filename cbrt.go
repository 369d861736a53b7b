package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

var (
	cbrtLimitHigh = new(uint256.Int).Mul(CBRT_EXACT_LIMIT, e18)
	seedNum       = uint256.NewInt(1260)
	seedDen       = uint256.NewInt(1000)
	two           = uint256.NewInt(2)
	three         = uint256.NewInt(3)
)

// Cbrt returns the cube root of a 1e18 fixed-point number in 1e18 precision,
// i.e. the integer cube root of x*1e36.
//
// Below CBRT_EXACT_LIMIT the result is the exact floor. Above it x can only be
// pre-scaled by 1e18 (or not at all past CBRT_EXACT_LIMIT*1e18), so the result
// is rescaled by 1e6 (1e12) and loses that many trailing digits. This cliff is
// expected.
func Cbrt(x *uint256.Int) (*uint256.Int, error) {
	if x.IsZero() {
		return new(uint256.Int), nil
	}

	xx := new(uint256.Int)
	var rescale *uint256.Int
	switch {
	case !x.Lt(cbrtLimitHigh):
		xx.Set(x)
		rescale = e12
	case !x.Lt(CBRT_EXACT_LIMIT):
		// x < CBRT_EXACT_LIMIT*1e18, so x*1e18 fits
		xx.Mul(x, e18)
		rescale = e6
	default:
		// x < MaxUint256/1e36
		xx.Mul(x, e36)
	}

	a, err := icbrt(xx)
	if err != nil {
		return nil, fmt.Errorf("cbrt(%s): %w", x.Dec(), err)
	}
	if rescale != nil {
		a.Mul(a, rescale)
	}
	return a, nil
}

// icbrt is floor(cbrt(xx)) by Newton iteration from a bit-length seed:
// cbrt(2^n) = 2^(n/3) * cbrt(2)^(n%3), with cbrt(2) ~ 1260/1000.
func icbrt(xx *uint256.Int) (*uint256.Int, error) {
	log2x := uint(xx.BitLen() - 1)
	a := new(uint256.Int).Lsh(ONE, log2x/3)
	for k := uint(0); k < log2x%3; k++ {
		a.Mul(a, seedNum)
		a.Div(a, seedDen)
	}

	c := &calc{}
	step := func(a *uint256.Int) *uint256.Int {
		return c.div(c.add(c.mul(two, a), c.div(xx, c.mul(a, a))), three)
	}

	// after one step a >= floor(cbrt(xx)); from there the sequence falls
	// strictly until it reaches the floor
	a = step(a)
	for i := 0; i < CBRT_MAX_ITERATIONS; i++ {
		next := step(a)
		if c.err != nil {
			return nil, c.err
		}
		if !next.Lt(a) {
			return a, nil
		}
		a = next
	}
	return nil, DID_NOT_CONVERGE
}
