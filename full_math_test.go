package tricrypto_simulator

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustU(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

func e18x(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), PRECISION)
}

// assertRelClose checks |got - want| <= want * tol.
func assertRelClose(t *testing.T, want, got *uint256.Int, tol string, msg string) {
	t.Helper()
	w := toDecimal(want)
	g := toDecimal(got)
	limit := w.Mul(decimal.RequireFromString(tol))
	assert.Truef(t, g.Sub(w).Abs().LessThanOrEqual(limit), "%s: want %s got %s", msg, w, g)
}

func TestMulDiv(t *testing.T) {
	z, err := MulDiv(MaxUint256, MaxUint256, MaxUint256)
	require.NoError(t, err)
	assert.Equal(t, MaxUint256, z, "full 512-bit intermediate")

	z, err = MulDiv(uint256.NewInt(7), uint256.NewInt(3), uint256.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), z, "rounds down")

	_, err = MulDiv(MaxUint256, uint256.NewInt(2), ONE)
	assert.ErrorIs(t, err, OVERFLOW)

	_, err = MulDiv(ONE, ONE, ZERO)
	assert.ErrorIs(t, err, DIVISION_BY_ZERO)
}

func TestMulDownDivDown(t *testing.T) {
	half := uint256.NewInt(5e17)
	z, err := MulDown(e18x(3), half)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(15e17), z)

	z, err = DivDown(e18x(3), half)
	require.NoError(t, err)
	assert.Equal(t, e18x(6), z)
}

func TestPow(t *testing.T) {
	z, err := Pow(uint256.NewInt(10), 18)
	require.NoError(t, err)
	assert.Equal(t, PRECISION, z)

	z, err = Pow(uint256.NewInt(10), 0)
	require.NoError(t, err)
	assert.Equal(t, ONE, z)

	_, err = Pow(new(uint256.Int).Lsh(ONE, 128), 2)
	assert.ErrorIs(t, err, OVERFLOW)
}

func TestCalcKeepsFirstError(t *testing.T) {
	c := &calc{}
	c.sub(ONE, uint256.NewInt(2))
	c.div(ONE, ZERO)
	c.mul(MaxUint256, uint256.NewInt(2))
	assert.ErrorIs(t, c.err, UNDERFLOW)
}

func TestInFracBand(t *testing.T) {
	D := e18x(3)
	assert.True(t, inFracBand(PRECISION, D))
	// exactly 1e16
	assert.True(t, inFracBand(uint256.NewInt(3e16), D))
	assert.False(t, inFracBand(uint256.NewInt(29999999999999999), D))
	// exactly 1e20
	assert.True(t, inFracBand(e18x(300), D))
	assert.False(t, inFracBand(e18x(301), D))
}

func TestToFromDecimal(t *testing.T) {
	v, err := fromDecimal(toDecimal(MaxUint256))
	require.NoError(t, err)
	assert.Equal(t, *MaxUint256, v)

	over := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 256), 0)
	_, err = fromDecimal(over)
	assert.ErrorIs(t, err, OVERFLOW)

	_, err = fromDecimal(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, UNDERFLOW)

	_, err = fromDecimal(decimal.RequireFromString("1.5"))
	assert.Error(t, err)
}
