package tricrypto_simulator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// pool config
type PoolConfig struct {
	Id            string
	Tokens        [N_COINS]common.Address
	Precisions    [N_COINS]uint64
	A             uint256.Int
	Gamma         uint256.Int
	MidFee        uint256.Int
	OutFee        uint256.Int
	FeeGamma      uint256.Int
	Rebalancing   RebalancingParams
	InitialPrices PriceVector
}

// NewPoolConfig validates A and gamma and fills the remaining parameters
// with the tricrypto mainnet defaults.
func NewPoolConfig(
	tokens [N_COINS]common.Address,
	precisions [N_COINS]uint64,
	A *uint256.Int,
	gamma *uint256.Int,
	initialPrices PriceVector,
) (*PoolConfig, error) {
	if err := checkAGamma(A, gamma); err != nil {
		return nil, err
	}
	for k := range initialPrices {
		if initialPrices[k].IsZero() {
			return nil, fmt.Errorf("initial price %d is zero", k)
		}
	}
	for k, p := range precisions {
		if p == 0 {
			return nil, fmt.Errorf("precision %d is zero", k)
		}
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	cfg := &PoolConfig{
		Id:            id.String(),
		Tokens:        tokens,
		Precisions:    precisions,
		InitialPrices: initialPrices,
	}
	cfg.A.Set(A)
	cfg.Gamma.Set(gamma)
	cfg.MidFee.SetUint64(3000000)
	cfg.OutFee.SetUint64(30000000)
	cfg.FeeGamma.SetUint64(500000000000000)
	cfg.Rebalancing.AllowedExtraProfit.SetUint64(2000000000000)
	cfg.Rebalancing.AdjustmentStep.SetUint64(490000000000000)
	cfg.Rebalancing.MaTime = DEFAULT_MA_TIME
	return cfg, nil
}

// core pool
type CorePool struct {
	PoolAddress     string
	Config          *PoolConfig
	Balances        [N_COINS]uint256.Int
	D               uint256.Int
	TotalSupply     uint256.Int
	Price           PriceState
	Profit          ProfitState
	DeployBlockNum  uint64
	CurrentBlockNum uint64
}

func NewCorePoolFromConfig(poolAddress string, config *PoolConfig) *CorePool {
	return &CorePool{
		PoolAddress: poolAddress,
		Config:      config,
		Price:       NewPriceState(config.InitialPrices, 0),
	}
}

func (p *CorePool) Clone() *CorePool {
	clone := *p
	return &clone
}

func (p *CorePool) Initialized() bool {
	return !p.TotalSupply.IsZero()
}

func (p *CorePool) xp(balances [N_COINS]uint256.Int) (ReserveVector, error) {
	return scaleBalances(balances, p.Config.Precisions, p.Price.PriceScale)
}

// Initialize performs the first deposit. The LP supply minted is the xcp of
// the resulting D, which makes the virtual price start at 1e18.
func (p *CorePool) Initialize(amounts [N_COINS]uint256.Int, now uint64) (*uint256.Int, error) {
	if p.Initialized() {
		return nil, ALREADY_INITIALIZED
	}
	for k := range amounts {
		if amounts[k].IsZero() {
			return nil, fmt.Errorf("initial amount %d is zero", k)
		}
	}
	p.Price = NewPriceState(p.Config.InitialPrices, now)

	xp, err := p.xp(amounts)
	if err != nil {
		return nil, err
	}
	D, err := NewtonD(&p.Config.A, &p.Config.Gamma, xp, nil)
	if err != nil {
		return nil, err
	}
	supply, err := Xcp(D, p.Price.PriceScale)
	if err != nil {
		return nil, err
	}

	p.Balances = amounts
	p.D.Set(D)
	p.TotalSupply.Set(supply)
	p.Profit.XcpProfit.Set(PRECISION)
	p.Profit.XcpProfitReal.Set(PRECISION)
	logrus.Infof("initialize pool: %s, D: %s, supply: %s", p.PoolAddress, toDecimal(D).Shift(-18), toDecimal(supply).Shift(-18))
	return supply, nil
}

// Fee returns the current dynamic fee in 1e10 units.
func (p *CorePool) Fee() (*uint256.Int, error) {
	xp, err := p.xp(p.Balances)
	if err != nil {
		return nil, err
	}
	return Fee(xp, &p.Config.MidFee, &p.Config.OutFee, &p.Config.FeeGamma), nil
}

// VirtualPrice is 1e18 * xcp(D) / total_supply.
func (p *CorePool) VirtualPrice() (*uint256.Int, error) {
	if !p.Initialized() {
		return nil, NOT_INITIALIZED
	}
	xcp, err := Xcp(&p.D, p.Price.PriceScale)
	if err != nil {
		return nil, err
	}
	return MulDiv(PRECISION, xcp, &p.TotalSupply)
}

type swapResult struct {
	dy       *uint256.Int
	fee      *uint256.Int
	balances [N_COINS]uint256.Int
	xp       ReserveVector
	K0       *uint256.Int
}

func (p *CorePool) computeSwap(i, j int, dx *uint256.Int) (*swapResult, error) {
	if i == j || i < 0 || j < 0 || i >= N_COINS || j >= N_COINS {
		return nil, fmt.Errorf("swap %d -> %d: %w", i, j, INVALID_INDEX)
	}
	if !p.Initialized() {
		return nil, NOT_INITIALIZED
	}
	if dx.IsZero() {
		return nil, fmt.Errorf("zero dx: %w", INSUFFICIENT_OUTPUT)
	}

	r := &swapResult{balances: p.Balances}
	sum, overflow := new(uint256.Int).AddOverflow(&r.balances[i], dx)
	if overflow {
		return nil, OVERFLOW
	}
	r.balances[i].Set(sum)

	xp, err := p.xp(r.balances)
	if err != nil {
		return nil, err
	}
	y, K0i, err := GetY(&p.Config.A, &p.Config.Gamma, xp, &p.D, j)
	if err != nil {
		return nil, err
	}
	if !y.Lt(&xp[j]) {
		return nil, fmt.Errorf("y=%s >= x[%d]=%s: %w", y.Dec(), j, xp[j].Dec(), INSUFFICIENT_OUTPUT)
	}
	K0, err := WarmStartK0(K0i, y, &p.D)
	if err != nil {
		return nil, err
	}
	dyXp := new(uint256.Int).Sub(&xp[j], y)
	xp[j].Set(y)
	if !dyXp.Gt(ONE) {
		return nil, INSUFFICIENT_OUTPUT
	}
	dyXp.SubUint64(dyXp, 1)

	dy, err := unscale(dyXp, j, p.Config.Precisions, p.Price.PriceScale)
	if err != nil {
		return nil, err
	}
	fee := Fee(xp, &p.Config.MidFee, &p.Config.OutFee, &p.Config.FeeGamma)
	fee, err = MulDiv(fee, dy, FEE_DENOMINATOR)
	if err != nil {
		return nil, err
	}
	dy.Sub(dy, fee)
	if dy.IsZero() || !dy.Lt(&r.balances[j]) {
		return nil, INSUFFICIENT_OUTPUT
	}
	r.balances[j].Sub(&r.balances[j], dy)

	r.xp, err = p.xp(r.balances)
	if err != nil {
		return nil, err
	}
	r.K0 = K0
	r.dy = dy
	r.fee = fee
	return r, nil
}

// GetDy quotes the output of selling dx of coin i for coin j without
// touching the pool.
func (p *CorePool) GetDy(i, j int, dx *uint256.Int) (dy, fee *uint256.Int, err error) {
	r, err := p.computeSwap(i, j, dx)
	if err != nil {
		return nil, nil, err
	}
	return r.dy, r.fee, nil
}

// Exchange sells dx of coin i for coin j and runs the price adjustment. The
// pool is only modified when every step succeeds.
func (p *CorePool) Exchange(i, j int, dx, minDy *uint256.Int, now uint64) (*uint256.Int, error) {
	r, err := p.computeSwap(i, j, dx)
	if err != nil {
		return nil, err
	}
	if minDy != nil && r.dy.Lt(minDy) {
		return nil, fmt.Errorf("dy %s < min_dy %s: %w", r.dy.Dec(), minDy.Dec(), SLIPPAGE)
	}

	tweak, err := TweakPrice(TweakPriceInput{
		ANN:         p.Config.A,
		Gamma:       p.Config.Gamma,
		Rebalancing: p.Config.Rebalancing,
		Price:       p.Price,
		Profit:      p.Profit,
		Xp:          r.xp,
		K0Prev:      r.K0,
		TotalSupply: p.TotalSupply,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	p.Balances = r.balances
	p.Price = tweak.Price
	p.Profit = tweak.Profit
	p.D = tweak.D
	if tweak.Repegged {
		logrus.Infof("repeg pool: %s, price_scale: %s, %s", p.PoolAddress,
			toDecimal(&p.Price.PriceScale[0]).Shift(-18), toDecimal(&p.Price.PriceScale[1]).Shift(-18))
	}
	return r.dy, nil
}
