package tricrypto_simulator

import "github.com/holiman/uint256"

// ReserveVector holds the three balances in 1e18 precision, already scaled
// by price_scale. x[0] is the numeraire.
type ReserveVector [N_COINS]uint256.Int

// PriceVector holds one price per non-numeraire coin.
type PriceVector [N_COINS - 1]uint256.Int

func NewReserveVector(x0, x1, x2 *uint256.Int) ReserveVector {
	var x ReserveVector
	x[0].Set(x0)
	x[1].Set(x1)
	x[2].Set(x2)
	return x
}

// Sort3 sorts from high to low.
func Sort3(x ReserveVector) ReserveVector {
	if x[0].Lt(&x[1]) {
		x[0], x[1] = x[1], x[0]
	}
	if x[1].Lt(&x[2]) {
		x[1], x[2] = x[2], x[1]
		if x[0].Lt(&x[1]) {
			x[0], x[1] = x[1], x[0]
		}
	}
	return x
}
