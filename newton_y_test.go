package tricrypto_simulator

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetYBalanced(t *testing.T) {
	x := NewReserveVector(e24, e24, e24)
	for i := 0; i < N_COINS; i++ {
		y, K0i, err := GetY(testANN, testGamma, x, e24x(3), i)
		require.NoError(t, err)
		assertRelClose(t, e24, y, "0.000000000001", "balanced y")
		assertRelClose(t, PRECISION, K0i, "0.000000000001", "balanced K0_i")
	}
}

func TestGetYRoundTrip(t *testing.T) {
	x := NewReserveVector(e24, mustU("1200000000000000000000000"), mustU("800000000000000000000000"))
	D, err := NewtonD(testANN, testGamma, x, nil)
	require.NoError(t, err)

	for i := 0; i < N_COINS; i++ {
		y, _, err := GetY(testANN, testGamma, x, D, i)
		require.NoError(t, err)
		assertRelClose(t, &x[i], y, "0.0000000001", "solves back to own reserve")
	}

	// a trade of coin 0 for coin 2 keeps D
	traded := x
	traded[0].Add(&x[0], pow10(22))
	y, _, err := GetY(testANN, testGamma, traded, D, 2)
	require.NoError(t, err)
	assert.True(t, y.Lt(&x[2]), "adding coin 0 takes coin 2 out")
	traded[2].Set(y)
	D2, err := NewtonD(testANN, testGamma, traded, nil)
	require.NoError(t, err)
	assertRelClose(t, D, D2, "0.0000000001", "D after trade")
}

func TestGetYErrors(t *testing.T) {
	x := NewReserveVector(e24, e24, e24)
	D := e24x(3)

	_, _, err := GetY(testANN, testGamma, x, D, 3)
	assert.ErrorIs(t, err, INVALID_INDEX)
	_, _, err = GetY(testANN, testGamma, x, D, -1)
	assert.ErrorIs(t, err, INVALID_INDEX)

	_, _, err = GetY(uint256.NewInt(1), testGamma, x, D, 0)
	assert.ErrorIs(t, err, UNSAFE_A)

	_, _, err = GetY(testANN, testGamma, x, uint256.NewInt(1e16), 0)
	assert.ErrorIs(t, err, UNSAFE_D)
	_, _, err = GetY(testANN, testGamma, x, new(uint256.Int).AddUint64(MAX_D, 1), 0)
	assert.ErrorIs(t, err, UNSAFE_D)

	// x[2]/D = 3.3e-5
	_, _, err = GetY(testANN, testGamma, NewReserveVector(e24, e24, pow10(20)), D, 0)
	assert.ErrorIs(t, err, UNSAFE_X)
	assert.ErrorIs(t, err, UNSAFE_REGION)

	// the reserve being solved for is not checked
	_, _, err = GetY(testANN, testGamma, NewReserveVector(pow10(20), e24, e24), D, 0)
	assert.NoError(t, err)
}
