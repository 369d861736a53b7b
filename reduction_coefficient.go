package tricrypto_simulator

import "github.com/holiman/uint256"

// ReductionCoefficient returns
//
//	fee_gamma / (fee_gamma + (1 - K0)),  K0 = prod(x) / (sum(x)/N)**N
//
// in 1e18 precision, or K0 itself when fee_gamma is zero. The result is
// 1e18 for a perfectly balanced pool and falls towards 0 with imbalance.
func ReductionCoefficient(x ReserveVector, feeGamma *uint256.Int) *uint256.Int {
	S, overflow := new(uint256.Int).AddOverflow(&x[0], &x[1])
	if !overflow {
		S, overflow = S.AddOverflow(S, &x[2])
	}
	if overflow {
		// the ratio only depends on proportions
		for k := range x {
			x[k].Rsh(&x[k], 2)
		}
		S = new(uint256.Int).Add(&x[0], &x[1])
		S.Add(S, &x[2])
	}
	if S.IsZero() {
		return new(uint256.Int)
	}

	c := &calc{}
	K := new(uint256.Int).Set(PRECISION)
	for k := range x {
		// x[k] <= S, so the quotient is at most N*K
		K = c.mulDiv(c.mul(K, nN), &x[k], S)
	}
	if K.Gt(PRECISION) {
		K.Set(PRECISION)
	}

	if feeGamma.IsZero() {
		return K
	}
	// K <= 1e18, so the denominator is at least fee_gamma
	denominator := c.sub(c.add(feeGamma, PRECISION), K)
	K = c.mulDiv(feeGamma, PRECISION, denominator)
	if c.err != nil || K.Gt(PRECISION) {
		return new(uint256.Int).Set(PRECISION)
	}
	return K
}
