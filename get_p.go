package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

var threeE18 = new(uint256.Int).Mul(three, PRECISION)

// GetP returns dx0/dx1 and dx0/dx2 at the point xp, in 1e18 precision. The
// values are relative to the scaled reserves; multiply by price_scale to get
// market prices.
//
// With K0 = 27*prod(xp)/D**3 and G(K0) = 2*K0**3 + (gamma+1)**2 - K0**2*(2*gamma+3):
//
//	p_k = xp[0] * (G + N**N*A*gamma**2 * xp[k]/D * K0) / xp[k]
//	      / (G + N**N*A*gamma**2 * xp[0]/D * K0)
//
// K0 and G are carried in 1e36 precision.
func GetP(xp ReserveVector, D, ANN, gamma *uint256.Int) (PriceVector, error) {
	var p PriceVector
	if D.IsZero() {
		return p, fmt.Errorf("get_p: D: %w", DIVISION_BY_ZERO)
	}
	for k := range xp {
		if xp[k].IsZero() {
			return p, fmt.Errorf("get_p: xp[%d]: %w", k, DIVISION_BY_ZERO)
		}
	}

	c := &calc{}
	K0 := c.mulDiv(c.mul(n27, &xp[0]), &xp[1], D)
	K0 = c.mulDiv(K0, &xp[2], D)
	K0 = c.mulDiv(K0, e36, D)

	g1 := new(uint256.Int).Add(gamma, PRECISION)
	GK0 := c.mulDiv(c.mul(two, K0), K0, e36)
	GK0 = c.mulDiv(GK0, K0, e36)
	GK0 = c.add(GK0, c.mul(g1, g1))
	GK0 = c.sub(GK0, c.mulDiv(c.mulDiv(K0, K0, e36), c.add(c.mul(two, gamma), threeE18), PRECISION))

	NNAG2 := c.div(c.mul(ANN, c.mul(gamma, gamma)), aMul)

	term := func(x *uint256.Int) *uint256.Int {
		return c.add(GK0, c.mulDiv(c.mulDiv(NNAG2, x, D), K0, e36))
	}
	denominator := term(&xp[0])
	for k := 0; k < N_COINS-1; k++ {
		num := c.mulDiv(&xp[0], term(&xp[k+1]), &xp[k+1])
		p[k].Set(c.mulDiv(num, PRECISION, denominator))
	}
	if c.err != nil {
		return PriceVector{}, fmt.Errorf("get_p: %w", c.err)
	}
	return p, nil
}
