package tricrypto_simulator

import (
	"github.com/holiman/uint256"
)

// calc runs a chain of checked 256-bit operations and keeps the first
// failure, so a solver step can be written as one expression and tested once.
type calc struct {
	err error
}

func (c *calc) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *calc) add(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		c.fail(OVERFLOW)
	}
	return z
}

func (c *calc) sub(x, y *uint256.Int) *uint256.Int {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		c.fail(UNDERFLOW)
	}
	return z
}

func (c *calc) mul(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		c.fail(OVERFLOW)
	}
	return z
}

func (c *calc) div(x, y *uint256.Int) *uint256.Int {
	if y.IsZero() {
		c.fail(DIVISION_BY_ZERO)
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(x, y)
}

// mulDiv is floor(x*y/d) with a 512-bit intermediate product.
func (c *calc) mulDiv(x, y, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		c.fail(DIVISION_BY_ZERO)
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		c.fail(OVERFLOW)
	}
	return z
}

// MulDiv computes floor(a*b/denominator) without intermediate overflow. It
// fails with OVERFLOW only when the quotient itself does not fit in 256 bits.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	c := &calc{}
	z := c.mulDiv(a, b, denominator)
	if c.err != nil {
		return nil, c.err
	}
	return z, nil
}

// MulDown multiplies two 1e18 fixed-point numbers.
func MulDown(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, b, PRECISION)
}

// DivDown divides two 1e18 fixed-point numbers.
func DivDown(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, PRECISION, b)
}

// Pow raises x to a small integer power with overflow checking.
func Pow(x *uint256.Int, n uint) (*uint256.Int, error) {
	c := &calc{}
	z := new(uint256.Int).SetOne()
	for i := uint(0); i < n; i++ {
		z = c.mul(z, x)
	}
	if c.err != nil {
		return nil, c.err
	}
	return z, nil
}

func absDiff(x, y *uint256.Int) *uint256.Int {
	if x.Gt(y) {
		return new(uint256.Int).Sub(x, y)
	}
	return new(uint256.Int).Sub(y, x)
}

func maxOf(values ...*uint256.Int) *uint256.Int {
	m := new(uint256.Int)
	for _, v := range values {
		if v.Gt(m) {
			m.Set(v)
		}
	}
	return m
}

func minOf(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int).Set(x)
	}
	return new(uint256.Int).Set(y)
}

func inFracBand(x, D *uint256.Int) bool {
	frac, err := MulDiv(x, PRECISION, D)
	if err != nil {
		return false
	}
	return !frac.Lt(MIN_FRAC) && !frac.Gt(MAX_FRAC)
}
