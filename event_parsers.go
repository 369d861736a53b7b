package tricrypto_simulator

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// ABI holds the tricrypto-ng events and views the simulator reads.
var ABI = `[
{"anonymous":false,"inputs":[{"indexed":true,"name":"buyer","type":"address"},{"indexed":false,"name":"sold_id","type":"uint256"},{"indexed":false,"name":"tokens_sold","type":"uint256"},{"indexed":false,"name":"bought_id","type":"uint256"},{"indexed":false,"name":"tokens_bought","type":"uint256"},{"indexed":false,"name":"fee","type":"uint256"},{"indexed":false,"name":"packed_price_scale","type":"uint256"}],"name":"TokenExchange","type":"event"},
{"inputs":[],"name":"A","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"gamma","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"mid_fee","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"out_fee","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"fee_gamma","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"packed_rebalancing_params","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"D","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"xcp_profit","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"virtual_price","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"last_timestamp","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"precisions","outputs":[{"name":"","type":"uint256[3]"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"k","type":"uint256"}],"name":"price_scale","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"k","type":"uint256"}],"name":"price_oracle","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"k","type":"uint256"}],"name":"last_prices","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"i","type":"uint256"}],"name":"balances","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"i","type":"uint256"}],"name":"coins","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

func loadABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ABI))
}

type TokenExchangeEvent struct {
	RawEvent     *types.Log      `json:"raw_event"`
	Buyer        string          `json:"buyer"`
	SoldId       int             `json:"sold_id"`
	TokensSold   decimal.Decimal `json:"tokens_sold"`
	BoughtId     int             `json:"bought_id"`
	TokensBought decimal.Decimal `json:"tokens_bought"`
	Fee          decimal.Decimal `json:"fee"`
}

func hash2Addr(hash common.Hash) string {
	return common.BytesToAddress(hash.Bytes()).Hex()
}

func parseTokenExchangeEvent(contract abi.ABI, log *types.Log) (*TokenExchangeEvent, error) {
	event, ok := contract.Events["TokenExchange"]
	if !ok {
		return nil, fmt.Errorf("abi has no TokenExchange event")
	}
	if len(log.Topics) != 2 {
		return nil, fmt.Errorf("topic not match,expect %d, got %d", 2, len(log.Topics))
	}
	if log.Topics[0] != event.ID {
		return nil, fmt.Errorf("not a TokenExchange log: %s", log.Topics[0])
	}
	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed unpack TokenExchange, tx: %s: %w", log.TxHash, err)
	}
	ints := make([]*big.Int, len(values))
	for k, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("parse TokenExchange err field %d not a int, tx: %s", k, log.TxHash)
		}
		ints[k] = n
	}
	soldId, boughtId := ints[0], ints[2]
	if !soldId.IsInt64() || !boughtId.IsInt64() || soldId.Int64() >= N_COINS || boughtId.Int64() >= N_COINS {
		return nil, fmt.Errorf("coin index out of range %s -> %s, tx: %s: %w", soldId, boughtId, log.TxHash, INVALID_INDEX)
	}

	parsed := &TokenExchangeEvent{
		RawEvent:     log,
		Buyer:        hash2Addr(log.Topics[1]),
		SoldId:       int(soldId.Int64()),
		TokensSold:   decimal.NewFromBigInt(ints[1], 0),
		BoughtId:     int(boughtId.Int64()),
		TokensBought: decimal.NewFromBigInt(ints[3], 0),
		Fee:          decimal.NewFromBigInt(ints[4], 0),
	}
	if parsed.TokensSold.IsZero() {
		return nil, fmt.Errorf("exchange amount is 0: %s", log.TxHash)
	}
	return parsed, nil
}

// Amounts returns tokens_sold and tokens_bought as 256-bit integers.
func (e *TokenExchangeEvent) Amounts() (sold, bought uint256.Int, err error) {
	if sold, err = fromDecimal(e.TokensSold); err != nil {
		return
	}
	bought, err = fromDecimal(e.TokensBought)
	return
}
