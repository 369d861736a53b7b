package tricrypto_simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

type poolCaller struct {
	ctx      context.Context
	caller   ethereum.ContractCaller
	contract abi.ABI
	address  common.Address
	block    *big.Int
}

func (c *poolCaller) call(method string, args ...interface{}) (interface{}, error) {
	input, err := c.contract.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	output, err := c.caller.CallContract(c.ctx, ethereum.CallMsg{To: &c.address, Data: input}, c.block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := c.contract.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: got %d values", method, len(values))
	}
	return values[0], nil
}

func (c *poolCaller) uint(dst *uint256.Int, method string, args ...interface{}) error {
	v, err := c.call(method, args...)
	if err != nil {
		return err
	}
	n, ok := v.(*big.Int)
	if !ok {
		return fmt.Errorf("%s not a int", method)
	}
	if dst.SetFromBig(n) {
		return fmt.Errorf("%s: %w", method, OVERFLOW)
	}
	return nil
}

// unpack3 splits a tricrypto-ng packed word: x[0] << 128 | x[1] << 64 | x[2].
func unpack3(packed *uint256.Int) [3]uint64 {
	return [3]uint64{
		new(uint256.Int).Rsh(packed, 128).Uint64(),
		new(uint256.Int).Rsh(packed, 64).Uint64(),
		packed.Uint64(),
	}
}

// FetchPool reads a deployed tricrypto-ng pool's state at block. The result
// is ready for replay from block+1.
func FetchPool(ctx context.Context, caller ethereum.ContractCaller, address common.Address, block uint64) (*CorePool, error) {
	contract, err := loadABI()
	if err != nil {
		return nil, err
	}
	c := &poolCaller{
		ctx:      ctx,
		caller:   caller,
		contract: contract,
		address:  address,
		block:    new(big.Int).SetUint64(block),
	}

	cfg := &PoolConfig{Id: uuid.NewString()}
	pool := &CorePool{
		PoolAddress:     address.Hex(),
		Config:          cfg,
		DeployBlockNum:  block,
		CurrentBlockNum: block,
	}

	var rebalancing, lastTimestamp uint256.Int
	reads := []struct {
		dst    *uint256.Int
		method string
	}{
		{&cfg.A, "A"},
		{&cfg.Gamma, "gamma"},
		{&cfg.MidFee, "mid_fee"},
		{&cfg.OutFee, "out_fee"},
		{&cfg.FeeGamma, "fee_gamma"},
		{&rebalancing, "packed_rebalancing_params"},
		{&pool.D, "D"},
		{&pool.TotalSupply, "totalSupply"},
		{&pool.Profit.XcpProfit, "xcp_profit"},
		{&pool.Profit.XcpProfitReal, "virtual_price"},
		{&lastTimestamp, "last_timestamp"},
	}
	for _, r := range reads {
		if err := c.uint(r.dst, r.method); err != nil {
			return nil, err
		}
	}
	// the ma_time() view reports a half-life (ma_time * 694 / 1000), the
	// packed parameters hold the raw value
	params := unpack3(&rebalancing)
	cfg.Rebalancing.AllowedExtraProfit.SetUint64(params[0])
	cfg.Rebalancing.AdjustmentStep.SetUint64(params[1])
	if params[2] == 0 {
		return nil, fmt.Errorf("ma_time is 0")
	}
	cfg.Rebalancing.MaTime = params[2]
	// low 128 bits hold the price timestamp, high 128 bits the admin fee claim time
	pool.Price.LastPricesTimestamp = lastTimestamp.Uint64()

	for k := 0; k < N_COINS-1; k++ {
		arg := big.NewInt(int64(k))
		if err := c.uint(&pool.Price.PriceScale[k], "price_scale", arg); err != nil {
			return nil, err
		}
		if err := c.uint(&pool.Price.PriceOracle[k], "price_oracle", arg); err != nil {
			return nil, err
		}
		if err := c.uint(&pool.Price.LastPrices[k], "last_prices", arg); err != nil {
			return nil, err
		}
	}
	cfg.InitialPrices = pool.Price.PriceScale

	for i := 0; i < N_COINS; i++ {
		arg := big.NewInt(int64(i))
		if err := c.uint(&pool.Balances[i], "balances", arg); err != nil {
			return nil, err
		}
		v, err := c.call("coins", arg)
		if err != nil {
			return nil, err
		}
		coin, ok := v.(common.Address)
		if !ok {
			return nil, fmt.Errorf("coins(%d) not an address", i)
		}
		cfg.Tokens[i] = coin
	}

	v, err := c.call("precisions")
	if err != nil {
		return nil, err
	}
	precisions, ok := v.([N_COINS]*big.Int)
	if !ok {
		return nil, fmt.Errorf("precisions not a uint256[3]")
	}
	for i, p := range precisions {
		if p == nil || !p.IsUint64() || p.Sign() == 0 {
			return nil, fmt.Errorf("precision %d out of range", i)
		}
		cfg.Precisions[i] = p.Uint64()
	}

	if err := checkAGamma(&cfg.A, &cfg.Gamma); err != nil {
		return nil, err
	}
	logrus.Infof("fetch pool: %s, block: %d, D: %s, A: %s, gamma: %s", address, block,
		toDecimal(&pool.D).Shift(-18), cfg.A.Dec(), cfg.Gamma.Dec())
	return pool, nil
}
