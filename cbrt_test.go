package tricrypto_simulator

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bigCbrt is floor(cbrt(n)) by bisection.
func bigCbrt(n *big.Int) *big.Int {
	lo, hi := big.NewInt(0), new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen()/3+2))
	cube := new(big.Int)
	for new(big.Int).Sub(hi, lo).Cmp(big.NewInt(1)) > 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		cube.Exp(mid, big.NewInt(3), nil)
		if cube.Cmp(n) <= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func TestCbrt(t *testing.T) {
	cases := []struct {
		in   *uint256.Int
		want *uint256.Int
	}{
		{ZERO, ZERO},
		{ONE, uint256.NewInt(1e12)},
		{PRECISION, PRECISION},
		{e18x(8), e18x(2)},
		{e18x(27), e18x(3)},
		{e18x(9), mustU("2080083823051904114")},
		{e18x(1000), e18x(10)},
	}
	for _, c := range cases {
		got, err := Cbrt(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want.Dec(), got.Dec(), "cbrt(%s)", c.in.Dec())
	}
}

func TestCbrtExactBelowLimit(t *testing.T) {
	e36b := new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)
	inputs := []*uint256.Int{
		uint256.NewInt(2),
		uint256.NewInt(999),
		mustU("123456789012345678901234567890"),
		mustU("3000000000000000000000000"),
		new(uint256.Int).SubUint64(CBRT_EXACT_LIMIT, 1),
	}
	for _, x := range inputs {
		got, err := Cbrt(x)
		require.NoError(t, err)
		want := bigCbrt(new(big.Int).Mul(x.ToBig(), e36b))
		assert.Equal(t, want.String(), got.Dec(), "cbrt(%s)", x.Dec())
	}
}

func TestCbrtAboveLimit(t *testing.T) {
	e36b := new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)
	cases := []struct {
		x   *uint256.Int
		tol int64
	}{
		{CBRT_EXACT_LIMIT, 1e6},
		{new(uint256.Int).Mul(CBRT_EXACT_LIMIT, uint256.NewInt(1e17)), 1e6},
		{cbrtLimitHigh, 1e12},
		{MaxUint256, 1e12},
	}
	for _, c := range cases {
		got, err := Cbrt(c.x)
		require.NoError(t, err)
		want := bigCbrt(new(big.Int).Mul(c.x.ToBig(), e36b))
		diff := new(big.Int).Sub(want, got.ToBig())
		assert.True(t, diff.Sign() >= 0, "rounds down for %s", c.x.Dec())
		assert.True(t, diff.Cmp(big.NewInt(c.tol)) < 0, "cbrt(%s) off by %s", c.x.Dec(), diff)
	}
}

func TestCbrtMonotone(t *testing.T) {
	prev := new(uint256.Int)
	x := uint256.NewInt(1)
	for i := 0; i < 200; i++ {
		got, err := Cbrt(x)
		require.NoError(t, err)
		assert.False(t, got.Lt(prev), "cbrt decreased at %s", x.Dec())
		prev = got
		x = new(uint256.Int).Add(x, new(uint256.Int).Rsh(x, 2))
		x.AddUint64(x, 1)
	}
}

// For a >= 1e18, cbrt(a**3/1e36) and the geometric mean of (a, a, a) agree
// within one unit.
func TestCbrtMatchesGeometricMean(t *testing.T) {
	for _, a := range []*uint256.Int{
		PRECISION,
		mustU("1000000000000000001"),
		mustU("12345678901234567890"),
		e18x(3000),
		mustU("987654321987654321987"),
		mustU("700000000000000000000000"),
		mustU("1000000000000000000000007"),
		mustU("40000000000000000000000000"),
	} {
		gm, err := GeometricMean(NewReserveVector(a, a, a), true)
		require.NoError(t, err)

		aa := new(uint256.Int).Mul(a, a)
		x, err := MulDiv(aa, a, e36)
		require.NoError(t, err)
		require.True(t, x.Lt(CBRT_EXACT_LIMIT))
		root, err := Cbrt(x)
		require.NoError(t, err)

		assert.True(t, absDiff(root, gm).Cmp(ONE) <= 0, "a=%s cbrt=%s geometric_mean=%s", a.Dec(), root.Dec(), gm.Dec())
	}
}
