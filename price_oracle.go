package tricrypto_simulator

import (
	"fmt"

	"github.com/holiman/uint256"
)

// PriceState is the pool's price memory. PriceScale normalises reserves,
// PriceOracle is the EMA of LastPrices.
type PriceState struct {
	PriceScale          PriceVector
	PriceOracle         PriceVector
	LastPrices          PriceVector
	LastPricesTimestamp uint64
}

// ProfitState tracks growth factors based at 1e18. XcpProfitReal is the
// virtual price, XcpProfit the profit counter it is compared against.
type ProfitState struct {
	XcpProfit     uint256.Int
	XcpProfitReal uint256.Int
}

type RebalancingParams struct {
	AllowedExtraProfit uint256.Int
	AdjustmentStep     uint256.Int
	MaTime             uint64
}

func NewPriceState(initialPrices PriceVector, now uint64) PriceState {
	return PriceState{
		PriceScale:          initialPrices,
		PriceOracle:         initialPrices,
		LastPrices:          initialPrices,
		LastPricesTimestamp: now,
	}
}

// expLimit: e**-42 is below 1e-18
var expLimit = new(uint256.Int).Mul(uint256.NewInt(42), PRECISION)

// ExpNeg returns 1e18 * e**(-x/1e18). e**(x/1e18) is summed as a Taylor
// series in 1e18 precision and inverted.
func ExpNeg(x *uint256.Int) *uint256.Int {
	if x.IsZero() {
		return new(uint256.Int).Set(PRECISION)
	}
	if !x.Lt(expLimit) {
		return new(uint256.Int)
	}

	// every term stays below e**42 * 1e18 < 2**192
	sum := new(uint256.Int).Set(PRECISION)
	term := new(uint256.Int).Set(PRECISION)
	i := new(uint256.Int)
	for term.Sign() > 0 {
		i.AddUint64(i, 1)
		term.Mul(term, x)
		term.Div(term, PRECISION)
		term.Div(term, i)
		sum.Add(sum, term)
	}
	return new(uint256.Int).Div(e36, sum)
}

// UpdateOracle moves PriceOracle towards LastPrices with weight
// alpha = exp(-dt/maTime). Each observed price is capped at twice the
// current oracle value. Nothing changes within the same second.
func UpdateOracle(state PriceState, maTime uint64, now uint64) (PriceState, error) {
	if state.LastPricesTimestamp >= now {
		return state, nil
	}
	if maTime == 0 {
		return state, fmt.Errorf("update oracle: ma_time: %w", DIVISION_BY_ZERO)
	}

	c := &calc{}
	dt := uint256.NewInt(now - state.LastPricesTimestamp)
	alpha := ExpNeg(c.div(c.mul(dt, PRECISION), uint256.NewInt(maTime)))
	oneMinusAlpha := new(uint256.Int).Sub(PRECISION, alpha)

	for k := range state.PriceOracle {
		oracle := &state.PriceOracle[k]
		capped := minOf(&state.LastPrices[k], c.mul(two, oracle))
		next := c.add(c.mul(capped, oneMinusAlpha), c.mul(oracle, alpha))
		oracle.Set(c.div(next, PRECISION))
	}
	if c.err != nil {
		return state, fmt.Errorf("update oracle: %w", c.err)
	}
	state.LastPricesTimestamp = now
	return state, nil
}

// TweakPriceInput is a snapshot of everything the price adjustment reads.
// D may be nil, in which case it is solved from Xp with K0Prev as the warm
// start.
type TweakPriceInput struct {
	ANN         uint256.Int
	Gamma       uint256.Int
	Rebalancing RebalancingParams
	Price       PriceState
	Profit      ProfitState
	Xp          ReserveVector
	D           *uint256.Int
	K0Prev      *uint256.Int
	TotalSupply uint256.Int
	Now         uint64
}

type TweakPriceResult struct {
	Price    PriceState
	Profit   ProfitState
	D        uint256.Int
	Repegged bool
}

// TweakPrice updates the oracle and last prices after a state change and
// moves price_scale towards the oracle when the pool has earned enough to
// pay for it. A repeg that would leave the virtual price growth at or below
// half of xcp_profit growth is discarded and the old price_scale kept.
func TweakPrice(in TweakPriceInput) (TweakPriceResult, error) {
	res := TweakPriceResult{Profit: in.Profit}

	price, err := UpdateOracle(in.Price, in.Rebalancing.MaTime, in.Now)
	if err != nil {
		return res, err
	}

	D := in.D
	if D == nil || D.IsZero() {
		D, err = NewtonD(&in.ANN, &in.Gamma, in.Xp, in.K0Prev)
		if err != nil {
			return res, err
		}
	}

	p, err := GetP(in.Xp, D, &in.ANN, &in.Gamma)
	if err != nil {
		return res, err
	}
	c := &calc{}
	for k := range p {
		price.LastPrices[k].Set(c.mulDiv(&p[k], &price.PriceScale[k], PRECISION))
	}

	xcpProfit := new(uint256.Int).Set(PRECISION)
	virtualPrice := new(uint256.Int).Set(PRECISION)
	oldVirtualPrice := &in.Profit.XcpProfitReal
	if !oldVirtualPrice.IsZero() {
		xcp, err := Xcp(D, price.PriceScale)
		if err != nil {
			return res, err
		}
		virtualPrice = c.mulDiv(PRECISION, xcp, &in.TotalSupply)
		xcpProfit = c.mulDiv(&in.Profit.XcpProfit, virtualPrice, oldVirtualPrice)
		if c.err == nil && !virtualPrice.Gt(oldVirtualPrice) {
			return res, fmt.Errorf("tweak price: virtual price %s <= %s: %w", virtualPrice.Dec(), oldVirtualPrice.Dec(), LOSS)
		}
	}
	if c.err != nil {
		return res, fmt.Errorf("tweak price: %w", c.err)
	}
	res.Profit.XcpProfit.Set(xcpProfit)

	if canRebalance(virtualPrice, xcpProfit, &in.Rebalancing.AllowedExtraProfit) {
		repeg, err := tryRepeg(in, price, xcpProfit)
		if err != nil {
			return res, err
		}
		if repeg != nil {
			res.Price = repeg.Price
			res.Profit.XcpProfitReal = repeg.Profit.XcpProfitReal
			res.D = repeg.D
			res.Repegged = true
			return res, nil
		}
	}

	res.Price = price
	res.Profit.XcpProfitReal.Set(virtualPrice)
	res.D.Set(D)
	return res, nil
}

// canRebalance is virtual_price*2 - 1e18 > xcp_profit + 2*allowed_extra_profit.
func canRebalance(virtualPrice, xcpProfit, allowedExtraProfit *uint256.Int) bool {
	c := &calc{}
	lhs := c.sub(c.mul(two, virtualPrice), PRECISION)
	rhs := c.add(xcpProfit, c.mul(two, allowedExtraProfit))
	return c.err == nil && lhs.Gt(rhs)
}

// tryRepeg returns nil when price_scale stays where it is.
func tryRepeg(in TweakPriceInput, price PriceState, xcpProfit *uint256.Int) (*TweakPriceResult, error) {
	c := &calc{}

	norm := new(uint256.Int)
	for k := range price.PriceOracle {
		ratio := c.mulDiv(&price.PriceOracle[k], PRECISION, &price.PriceScale[k])
		d := absDiff(ratio, PRECISION)
		norm = c.add(norm, c.mul(d, d))
	}
	if c.err != nil {
		return nil, fmt.Errorf("tweak price: norm: %w", c.err)
	}
	norm.Sqrt(norm)

	step := maxOf(&in.Rebalancing.AdjustmentStep, new(uint256.Int).Div(norm, uint256.NewInt(5)))
	if !norm.Gt(step) {
		return nil, nil
	}

	var pNew PriceVector
	xp := in.Xp
	for k := range pNew {
		// norm > step, so the division is safe
		v := c.add(
			c.mul(&price.PriceScale[k], new(uint256.Int).Sub(norm, step)),
			c.mul(step, &price.PriceOracle[k]),
		)
		pNew[k].Set(c.div(v, norm))
		xp[k+1].Set(c.mulDiv(&in.Xp[k+1], &pNew[k], &price.PriceScale[k]))
	}
	if c.err != nil {
		return nil, fmt.Errorf("tweak price: new scale: %w", c.err)
	}

	D, err := NewtonD(&in.ANN, &in.Gamma, xp, nil)
	if err != nil {
		return nil, fmt.Errorf("tweak price: repeg: %w", err)
	}
	xcp, err := Xcp(D, pNew)
	if err != nil {
		return nil, err
	}
	virtualPrice := c.mulDiv(PRECISION, xcp, &in.TotalSupply)
	if c.err != nil {
		return nil, fmt.Errorf("tweak price: %w", c.err)
	}

	// 2*vp - 1e18 > xcp_profit, with vp > 1e18 so the subtraction holds
	if !virtualPrice.Gt(PRECISION) {
		return nil, nil
	}
	lhs := new(uint256.Int).Sub(c.mul(two, virtualPrice), PRECISION)
	if c.err != nil || !lhs.Gt(xcpProfit) {
		return nil, nil
	}

	price.PriceScale = pNew
	res := &TweakPriceResult{Price: price, Repegged: true}
	res.Profit.XcpProfitReal.Set(virtualPrice)
	res.D.Set(D)
	return res, nil
}
