package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

var (
	nMinusOneE18 = new(uint256.Int).Mul(uint256.NewInt(N_COINS-1), PRECISION)
	nE18         = new(uint256.Int).Mul(nN, PRECISION)
)

// GeometricMean computes (x0*x1*x2)^(1/3) by Newton iteration
//
//	D = D * ((N-1)*1e18 + prod(x_i/D)) / (N*1e18)
//
// seeded with the largest value. Sorting first keeps the running product
// close to 1e18.
func GeometricMean(unsorted ReserveVector, sort bool) (*uint256.Int, error) {
	x := unsorted
	if sort {
		x = Sort3(x)
	}

	c := &calc{}
	D := new(uint256.Int).Set(&x[0])
	for i := 0; i < MAX_ITERATIONS; i++ {
		Dprev := D
		tmp := new(uint256.Int).Set(PRECISION)
		for k := range x {
			tmp = c.mulDiv(tmp, &x[k], D)
		}
		D = c.mulDiv(D, c.add(nMinusOneE18, tmp), nE18)
		if c.err != nil {
			return nil, fmt.Errorf("geometric_mean: %w", c.err)
		}

		diff := absDiff(D, Dprev)
		if !diff.Gt(ONE) {
			return D, nil
		}
		if scaled, overflow := new(uint256.Int).MulOverflow(diff, PRECISION); !overflow && scaled.Lt(D) {
			return D, nil
		}
	}
	return nil, fmt.Errorf("geometric_mean: %w", DID_NOT_CONVERGE)
}
