package tricrypto_simulator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PoolRecord is the persisted form of a CorePool. Numbers are stored as
// decimal strings.
type PoolRecord struct {
	PoolAddress string `gorm:"primaryKey"`
	ConfigId    string

	Token0     string
	Token1     string
	Token2     string
	Precision0 uint64
	Precision1 uint64
	Precision2 uint64

	A                  decimal.Decimal
	Gamma              decimal.Decimal
	MidFee             decimal.Decimal
	OutFee             decimal.Decimal
	FeeGamma           decimal.Decimal
	AllowedExtraProfit decimal.Decimal
	AdjustmentStep     decimal.Decimal
	MaTime             uint64

	Balance0    decimal.Decimal
	Balance1    decimal.Decimal
	Balance2    decimal.Decimal
	D           decimal.Decimal
	TotalSupply decimal.Decimal

	PriceScale0         decimal.Decimal
	PriceScale1         decimal.Decimal
	PriceOracle0        decimal.Decimal
	PriceOracle1        decimal.Decimal
	LastPrice0          decimal.Decimal
	LastPrice1          decimal.Decimal
	LastPricesTimestamp uint64

	XcpProfit     decimal.Decimal
	XcpProfitReal decimal.Decimal

	DeployBlockNum  uint64
	CurrentBlockNum uint64
}

func toDecimal(x *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(x.ToBig(), 0)
}

func fromDecimal(d decimal.Decimal) (uint256.Int, error) {
	var z uint256.Int
	if d.IsNegative() {
		return z, fmt.Errorf("negative value %s: %w", d, UNDERFLOW)
	}
	if !d.Equal(d.Truncate(0)) {
		return z, fmt.Errorf("fractional value %s", d)
	}
	if z.SetFromBig(d.BigInt()) {
		return z, fmt.Errorf("value %s: %w", d, OVERFLOW)
	}
	return z, nil
}

func (p *CorePool) Record() *PoolRecord {
	cfg := p.Config
	return &PoolRecord{
		PoolAddress:         p.PoolAddress,
		ConfigId:            cfg.Id,
		Token0:              cfg.Tokens[0].Hex(),
		Token1:              cfg.Tokens[1].Hex(),
		Token2:              cfg.Tokens[2].Hex(),
		Precision0:          cfg.Precisions[0],
		Precision1:          cfg.Precisions[1],
		Precision2:          cfg.Precisions[2],
		A:                   toDecimal(&cfg.A),
		Gamma:               toDecimal(&cfg.Gamma),
		MidFee:              toDecimal(&cfg.MidFee),
		OutFee:              toDecimal(&cfg.OutFee),
		FeeGamma:            toDecimal(&cfg.FeeGamma),
		AllowedExtraProfit:  toDecimal(&cfg.Rebalancing.AllowedExtraProfit),
		AdjustmentStep:      toDecimal(&cfg.Rebalancing.AdjustmentStep),
		MaTime:              cfg.Rebalancing.MaTime,
		Balance0:            toDecimal(&p.Balances[0]),
		Balance1:            toDecimal(&p.Balances[1]),
		Balance2:            toDecimal(&p.Balances[2]),
		D:                   toDecimal(&p.D),
		TotalSupply:         toDecimal(&p.TotalSupply),
		PriceScale0:         toDecimal(&p.Price.PriceScale[0]),
		PriceScale1:         toDecimal(&p.Price.PriceScale[1]),
		PriceOracle0:        toDecimal(&p.Price.PriceOracle[0]),
		PriceOracle1:        toDecimal(&p.Price.PriceOracle[1]),
		LastPrice0:          toDecimal(&p.Price.LastPrices[0]),
		LastPrice1:          toDecimal(&p.Price.LastPrices[1]),
		LastPricesTimestamp: p.Price.LastPricesTimestamp,
		XcpProfit:           toDecimal(&p.Profit.XcpProfit),
		XcpProfitReal:       toDecimal(&p.Profit.XcpProfitReal),
		DeployBlockNum:      p.DeployBlockNum,
		CurrentBlockNum:     p.CurrentBlockNum,
	}
}

func NewCorePoolFromRecord(r *PoolRecord) (*CorePool, error) {
	cfg := &PoolConfig{
		Id:         r.ConfigId,
		Tokens:     [N_COINS]common.Address{common.HexToAddress(r.Token0), common.HexToAddress(r.Token1), common.HexToAddress(r.Token2)},
		Precisions: [N_COINS]uint64{r.Precision0, r.Precision1, r.Precision2},
	}
	cfg.Rebalancing.MaTime = r.MaTime
	pool := &CorePool{
		PoolAddress:     r.PoolAddress,
		Config:          cfg,
		DeployBlockNum:  r.DeployBlockNum,
		CurrentBlockNum: r.CurrentBlockNum,
	}
	pool.Price.LastPricesTimestamp = r.LastPricesTimestamp

	fields := []struct {
		dst *uint256.Int
		src decimal.Decimal
	}{
		{&cfg.A, r.A},
		{&cfg.Gamma, r.Gamma},
		{&cfg.MidFee, r.MidFee},
		{&cfg.OutFee, r.OutFee},
		{&cfg.FeeGamma, r.FeeGamma},
		{&cfg.Rebalancing.AllowedExtraProfit, r.AllowedExtraProfit},
		{&cfg.Rebalancing.AdjustmentStep, r.AdjustmentStep},
		{&pool.Balances[0], r.Balance0},
		{&pool.Balances[1], r.Balance1},
		{&pool.Balances[2], r.Balance2},
		{&pool.D, r.D},
		{&pool.TotalSupply, r.TotalSupply},
		{&pool.Price.PriceScale[0], r.PriceScale0},
		{&pool.Price.PriceScale[1], r.PriceScale1},
		{&pool.Price.PriceOracle[0], r.PriceOracle0},
		{&pool.Price.PriceOracle[1], r.PriceOracle1},
		{&pool.Price.LastPrices[0], r.LastPrice0},
		{&pool.Price.LastPrices[1], r.LastPrice1},
		{&pool.Profit.XcpProfit, r.XcpProfit},
		{&pool.Profit.XcpProfitReal, r.XcpProfitReal},
	}
	for _, f := range fields {
		v, err := fromDecimal(f.src)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", r.PoolAddress, err)
		}
		f.dst.Set(&v)
	}
	cfg.InitialPrices = pool.Price.PriceScale
	return pool, nil
}

func (p *CorePool) Flush(tx *gorm.DB) error {
	return tx.Save(p.Record()).Error
}
