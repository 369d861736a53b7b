package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

// GetY solves for x[i] given the other two reserves and the invariant D.
//
// It returns the new reserve y together with K0_i = 1e18*prod(x_k*N/D) over
// k != i, which WarmStartK0 turns into a warm start for the next NewtonD.
// Both the inputs and the solution are held to the x/D safety band; leaving
// it is reported as UNSAFE_REGION rather than clamped.
func GetY(ANN, gamma *uint256.Int, x ReserveVector, D *uint256.Int, i int) (*uint256.Int, *uint256.Int, error) {
	if i < 0 || i >= N_COINS {
		return nil, nil, fmt.Errorf("get_y: index %d: %w", i, INVALID_INDEX)
	}
	if err := checkAGamma(ANN, gamma); err != nil {
		return nil, nil, err
	}
	if D.Lt(MIN_D) || D.Gt(MAX_D) {
		return nil, nil, fmt.Errorf("get_y: D=%s: %w", D.Dec(), UNSAFE_D)
	}
	for k := range x {
		if k != i && !inFracBand(&x[k], D) {
			return nil, nil, fmt.Errorf("get_y: x[%d]=%s D=%s: %w", k, x[k].Dec(), D.Dec(), UNSAFE_X)
		}
	}

	c := &calc{}
	y := new(uint256.Int).Div(D, nN)
	K0i := new(uint256.Int).Set(PRECISION)
	Si := new(uint256.Int)

	xs := x
	xs[i].Clear()
	xs = Sort3(xs) // high to low, xs[N_COINS-1] is the cleared slot

	convergenceLimit := maxOf(
		new(uint256.Int).Div(&xs[0], e14),
		new(uint256.Int).Div(D, e14),
		hundred,
	)

	// small values folded into the seed first
	for j := 2; j <= N_COINS; j++ {
		xj := &xs[N_COINS-j]
		y = c.mulDiv(y, D, c.mul(xj, nN))
		Si = c.add(Si, xj)
	}
	// large values folded into K0_i first
	for j := 0; j < N_COINS-1; j++ {
		K0i = c.mulDiv(c.mul(K0i, nN), &xs[j], D)
	}
	if c.err != nil {
		return nil, nil, fmt.Errorf("get_y: %w", c.err)
	}

	for j := 0; j < MAX_ITERATIONS; j++ {
		if y.IsZero() {
			return nil, nil, fmt.Errorf("get_y: iteration %d: y collapsed: %w", j, UNSAFE_Y)
		}
		yPrev := y

		K0 := c.mulDiv(c.mul(K0i, y), nN, D)
		S := c.add(Si, y)

		g1k0 := new(uint256.Int).Add(gamma, PRECISION)
		if g1k0.Gt(K0) {
			g1k0.Sub(g1k0, K0)
		} else {
			g1k0.Sub(K0, g1k0)
		}
		g1k0.AddUint64(g1k0, 1)

		// D / (A * N**N) * g1k0**2 / gamma**2
		mul1 := c.div(c.mul(PRECISION, D), gamma)
		mul1 = c.div(c.mul(mul1, g1k0), gamma)
		mul1 = c.div(c.mul(c.mul(mul1, g1k0), aMul), ANN)

		// 1 + 2*K0 / g1k0
		mul2 := c.add(PRECISION, c.div(c.mul(twoE18, K0), g1k0))

		yfprime := c.add(c.add(c.mul(PRECISION, y), c.mul(S, mul2)), mul1)
		dyfprime := c.mul(D, mul2)
		if c.err != nil {
			return nil, nil, fmt.Errorf("get_y: iteration %d: %w", j, c.err)
		}
		if yfprime.Lt(dyfprime) {
			y = new(uint256.Int).Rsh(yPrev, 1)
			continue
		}
		yfprime.Sub(yfprime, dyfprime)
		fprime := new(uint256.Int).Div(yfprime, y)
		if fprime.IsZero() || K0.IsZero() {
			y = new(uint256.Int).Rsh(yPrev, 1)
			continue
		}

		// y -= f / fprime
		yMinus := c.div(mul1, fprime)
		yPlus := c.add(c.div(c.add(yfprime, c.mul(PRECISION, D)), fprime), c.div(c.mul(yMinus, PRECISION), K0))
		yMinus = c.add(yMinus, c.div(c.mul(PRECISION, S), fprime))
		if c.err != nil {
			return nil, nil, fmt.Errorf("get_y: iteration %d: %w", j, c.err)
		}

		if yPlus.Lt(yMinus) {
			y = new(uint256.Int).Rsh(yPrev, 1)
		} else {
			y = new(uint256.Int).Sub(yPlus, yMinus)
		}

		diff := absDiff(y, yPrev)
		if diff.Lt(maxOf(convergenceLimit, new(uint256.Int).Div(y, e14))) {
			if !inFracBand(y, D) {
				return nil, nil, fmt.Errorf("get_y: y=%s D=%s: %w", y.Dec(), D.Dec(), UNSAFE_Y)
			}
			return y, K0i, nil
		}
	}
	return nil, nil, fmt.Errorf("get_y: %w", DID_NOT_CONVERGE)
}

var twoE18 = new(uint256.Int).Mul(two, PRECISION)
