package tricrypto_simulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSort3(t *testing.T) {
	a, b, c := uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3)
	want := NewReserveVector(c, b, a)
	perms := []ReserveVector{
		NewReserveVector(a, b, c),
		NewReserveVector(a, c, b),
		NewReserveVector(b, a, c),
		NewReserveVector(b, c, a),
		NewReserveVector(c, a, b),
		NewReserveVector(c, b, a),
	}
	for _, p := range perms {
		assert.Equal(t, want, Sort3(p))
	}

	dup := Sort3(NewReserveVector(a, c, c))
	assert.Equal(t, NewReserveVector(c, c, a), dup)
}

func TestGeometricMean(t *testing.T) {
	gm, err := GeometricMean(NewReserveVector(PRECISION, PRECISION, PRECISION), true)
	require.NoError(t, err)
	assert.Equal(t, PRECISION, gm)

	gm, err = GeometricMean(NewReserveVector(uint256.NewInt(1e17), uint256.NewInt(1e17), uint256.NewInt(1e17)), true)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1e17), gm)

	// cbrt(0.1) * 1e18
	gm, err = GeometricMean(NewReserveVector(uint256.NewInt(1e17), PRECISION, PRECISION), true)
	require.NoError(t, err)
	assert.True(t, gm.Sign() > 0 && gm.Lt(PRECISION))
	assertRelClose(t, uint256.NewInt(464158883361277889), gm, "0.000000000001", "gm(0.1, 1, 1)")

	gm, err = GeometricMean(NewReserveVector(e18x(1_000_000), e18x(2_000_000), e18x(4_000_000)), true)
	require.NoError(t, err)
	assertRelClose(t, e18x(2_000_000), gm, "0.000000000001", "gm(1e6, 2e6, 4e6)")
}

func TestGeometricMeanPermutation(t *testing.T) {
	x := NewReserveVector(mustU("123000000000000000000000"), mustU("4560000000000000000000"), mustU("78900000000000000000000"))
	want, err := GeometricMean(x, true)
	require.NoError(t, err)
	for _, p := range []ReserveVector{
		{x[1], x[0], x[2]},
		{x[2], x[1], x[0]},
		{x[0], x[2], x[1]},
	} {
		gm, err := GeometricMean(p, true)
		require.NoError(t, err)
		assert.Equal(t, want, gm)
	}
}

func TestReductionCoefficient(t *testing.T) {
	feeGamma := uint256.NewInt(5e14)
	balanced := NewReserveVector(e18x(1000), e18x(1000), e18x(1000))
	assert.Equal(t, PRECISION, ReductionCoefficient(balanced, feeGamma))
	assert.Equal(t, PRECISION, ReductionCoefficient(balanced, ZERO))

	prev := PRECISION
	for _, third := range []uint64{900, 500, 100, 10} {
		x := NewReserveVector(e18x(1000), e18x(1000), e18x(third))
		k := ReductionCoefficient(x, feeGamma)
		assert.True(t, k.Lt(prev), "coefficient falls with imbalance, x2=%d", third)
		assert.True(t, k.Sign() > 0)
		prev = k
	}

	// K0 of (1, 1, 0.5): 0.5 / (2.5/3)**3 = 0.864
	k := ReductionCoefficient(NewReserveVector(e18x(2), e18x(2), e18x(1)), ZERO)
	assertRelClose(t, uint256.NewInt(864e15), k, "0.000000001", "K0 without fee_gamma")

	assert.True(t, ReductionCoefficient(NewReserveVector(ZERO, ZERO, ZERO), feeGamma).IsZero())
}

func TestReductionCoefficientHugeReserves(t *testing.T) {
	big := new(uint256.Int).Rsh(MaxUint256, 1)
	x := NewReserveVector(big, big, big)
	assert.Equal(t, PRECISION, ReductionCoefficient(x, uint256.NewInt(5e14)))
}
