package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

var (
	maxX      = new(uint256.Int).Mul(new(uint256.Int).Div(MaxUint256, PRECISION), n27)
	twoNE18   = new(uint256.Int).Mul(uint256.NewInt(2*N_COINS), PRECISION)
	hundred   = uint256.NewInt(100)
	nE18Coins = new(uint256.Int).Mul(PRECISION, nN)
)

func checkAGamma(ANN, gamma *uint256.Int) error {
	if ANN.Lt(MIN_A) || ANN.Gt(MAX_A) {
		return UNSAFE_A
	}
	if gamma.Lt(MIN_GAMMA) || gamma.Gt(MAX_GAMMA) {
		return UNSAFE_GAMMA
	}
	return nil
}

// NewtonD finds the invariant D for reserves xUnsorted by Newton's method.
//
// K0Prev is an optional warm start: the value 1e18*prod(x_i*N/D) observed at
// a nearby point (see WarmStartK0). With a zero or nil K0Prev the seed is
// N*geometric_mean(x). Both seeds converge to the same D within
// max(10000, D/1e12); the iteration itself stops once a step moves D by no
// more than max(100, D/1e14).
func NewtonD(ANN, gamma *uint256.Int, xUnsorted ReserveVector, K0Prev *uint256.Int) (*uint256.Int, error) {
	if err := checkAGamma(ANN, gamma); err != nil {
		return nil, err
	}

	x := Sort3(xUnsorted)
	if !x[0].Lt(maxX) {
		return nil, fmt.Errorf("newton_D: reserve %s out of limits: %w", x[0].Dec(), OVERFLOW)
	}
	if x[2].IsZero() {
		return nil, fmt.Errorf("newton_D: empty pool: %w", UNSAFE_X)
	}

	// x[0] < maxX, so three of them cannot wrap
	S := new(uint256.Int).Add(&x[0], &x[1])
	S.Add(S, &x[2])

	var D *uint256.Int
	var err error
	if K0Prev == nil || K0Prev.IsZero() {
		D, err = GeometricMean(x, false)
		if err != nil {
			return nil, err
		}
		// the geometric mean is bounded by x[0]
		D.Mul(D, nN)
	} else {
		D, err = warmStartD(x, K0Prev)
		if err != nil {
			return nil, err
		}
	}
	if D.IsZero() {
		return nil, fmt.Errorf("newton_D: zero seed: %w", UNSAFE_X)
	}

	c := &calc{}
	for i := 0; i < MAX_ITERATIONS; i++ {
		Dprev := D

		// K0 = 1e18 * prod(x_i * N / D)
		K0 := c.mulDiv(nE18Coins, &x[0], D)
		K0 = c.mulDiv(c.mul(K0, nN), &x[1], D)
		K0 = c.mulDiv(c.mul(K0, nN), &x[2], D)

		// gamma <= MAX_GAMMA, so the sum cannot wrap
		g1k0 := new(uint256.Int).Add(gamma, PRECISION)
		if g1k0.Gt(K0) {
			g1k0.Sub(g1k0, K0)
		} else {
			g1k0.Sub(K0, g1k0)
		}
		g1k0.AddUint64(g1k0, 1)

		// D / (A * N**N) * g1k0**2 / gamma**2, multiplications kept ahead of
		// the divisions they feed
		mul1 := c.div(c.mul(PRECISION, D), gamma)
		mul1 = c.div(c.mul(mul1, g1k0), gamma)
		mul1 = c.div(c.mul(c.mul(mul1, g1k0), aMul), ANN)

		// 2*N*K0 / g1k0
		mul2 := c.div(c.mul(twoNE18, K0), g1k0)

		negFprime := c.add(S, c.div(c.mul(S, mul2), PRECISION))
		negFprime = c.add(negFprime, c.div(c.mul(mul1, nN), K0))
		negFprime = c.sub(negFprime, c.div(c.mul(mul2, D), PRECISION))
		if c.err != nil {
			return nil, fmt.Errorf("newton_D: iteration %d: %w", i, c.err)
		}
		if negFprime.IsZero() {
			return nil, fmt.Errorf("newton_D: iteration %d: non-positive derivative: %w", i, UNDERFLOW)
		}

		// D -= f / fprime
		Dplus := c.mulDiv(D, c.add(negFprime, S), negFprime)
		Dminus := c.mulDiv(D, D, negFprime)
		t := c.div(c.mul(D, c.div(mul1, negFprime)), PRECISION)
		if K0.Lt(PRECISION) {
			Dminus = c.add(Dminus, c.div(c.mul(t, new(uint256.Int).Sub(PRECISION, K0)), K0))
		} else {
			Dminus = c.sub(Dminus, c.div(c.mul(t, new(uint256.Int).Sub(K0, PRECISION)), K0))
		}
		if c.err != nil {
			return nil, fmt.Errorf("newton_D: iteration %d: %w", i, c.err)
		}

		if Dplus.Gt(Dminus) {
			D = new(uint256.Int).Sub(Dplus, Dminus)
		} else {
			// overshot below zero: half of the magnitude
			D = new(uint256.Int).Sub(Dminus, Dplus)
			D.Rsh(D, 1)
		}

		diff := absDiff(D, Dprev)
		if !diff.Gt(maxOf(hundred, new(uint256.Int).Div(D, e14))) {
			for k := range x {
				if !inFracBand(&x[k], D) {
					return nil, fmt.Errorf("newton_D: x[%d]=%s D=%s: %w", k, x[k].Dec(), D.Dec(), UNSAFE_X)
				}
			}
			return D, nil
		}
	}
	return nil, fmt.Errorf("newton_D: %w", DID_NOT_CONVERGE)
}

// warmStartD solves K0Prev = 27 * prod(x) / D**3 for D.
func warmStartD(x ReserveVector, K0Prev *uint256.Int) (*uint256.Int, error) {
	c := &calc{}
	p := c.mulDiv(&x[0], &x[1], PRECISION)
	p = c.mulDiv(p, &x[2], K0Prev)
	p = c.mul(p, n27)
	if c.err != nil {
		return nil, fmt.Errorf("newton_D: warm start: %w", c.err)
	}
	return Cbrt(p)
}

// WarmStartK0 rebuilds the full 1e18*prod(x_i*N/D) from the partial product
// returned by GetY and the reserve that was solved for.
func WarmStartK0(K0i, y, D *uint256.Int) (*uint256.Int, error) {
	c := &calc{}
	K0 := c.mulDiv(c.mul(K0i, nN), y, D)
	if c.err != nil {
		return nil, c.err
	}
	return K0, nil
}
