package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

// FEE_DENOMINATOR: fees are quoted in 1e10 units
var FEE_DENOMINATOR = uint256.NewInt(1e10)

// Fee interpolates between midFee (balanced pool) and outFee (imbalanced)
// using the reduction coefficient of xp.
func Fee(xp ReserveVector, midFee, outFee, feeGamma *uint256.Int) *uint256.Int {
	f := ReductionCoefficient(xp, feeGamma)
	rest := new(uint256.Int).Sub(PRECISION, f)
	c := &calc{}
	fee := c.add(c.mul(midFee, f), c.mul(outFee, rest))
	fee = c.div(fee, PRECISION)
	if c.err != nil {
		return new(uint256.Int).Set(outFee)
	}
	return fee
}

// Xcp is the geometric mean of the balanced portfolio worth D at
// priceScale: [D/N, D/(N*p1), D/(N*p2)].
func Xcp(D *uint256.Int, priceScale PriceVector) (*uint256.Int, error) {
	c := &calc{}
	var x ReserveVector
	x[0].Div(D, nN)
	for k := range priceScale {
		x[k+1].Set(c.mulDiv(D, PRECISION, c.mul(nN, &priceScale[k])))
	}
	if c.err != nil {
		return nil, fmt.Errorf("xcp: %w", c.err)
	}
	return GeometricMean(x, true)
}

// scaleBalances converts raw token balances into xp: 1e18 precision and,
// for coins 1..N-1, valued in coin 0 at priceScale.
func scaleBalances(balances [N_COINS]uint256.Int, precisions [N_COINS]uint64, priceScale PriceVector) (ReserveVector, error) {
	c := &calc{}
	var xp ReserveVector
	xp[0].Set(c.mul(&balances[0], uint256.NewInt(precisions[0])))
	for k := 1; k < N_COINS; k++ {
		v := c.mul(&balances[k], uint256.NewInt(precisions[k]))
		xp[k].Set(c.mulDiv(v, &priceScale[k-1], PRECISION))
	}
	if c.err != nil {
		return xp, fmt.Errorf("xp: %w", c.err)
	}
	return xp, nil
}

// unscale is the inverse of scaleBalances for a single coin amount.
func unscale(amount *uint256.Int, j int, precisions [N_COINS]uint64, priceScale PriceVector) (*uint256.Int, error) {
	c := &calc{}
	v := new(uint256.Int).Set(amount)
	if j > 0 {
		v = c.mulDiv(v, PRECISION, &priceScale[j-1])
	}
	v = c.div(v, uint256.NewInt(precisions[j]))
	if c.err != nil {
		return nil, c.err
	}
	return v, nil
}
