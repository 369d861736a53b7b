package tricrypto_simulator

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBuyer = common.HexToAddress("0x1111111254EEB25477B68fb85Ed929f73A960582")

func exchangeLog(t *testing.T, pool common.Address, block uint64, i, j int, dx, dy *uint256.Int) types.Log {
	contract, err := loadABI()
	require.NoError(t, err)
	event := contract.Events["TokenExchange"]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(int64(i)), dx.ToBig(),
		big.NewInt(int64(j)), dy.ToBig(),
		big.NewInt(12345), big.NewInt(0),
	)
	require.NoError(t, err)
	return types.Log{
		Address:     pool,
		Topics:      []common.Hash{event.ID, common.BytesToHash(testBuyer.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block)),
	}
}

func TestParseTokenExchangeEvent(t *testing.T) {
	contract, err := loadABI()
	require.NoError(t, err)
	assert.Equal(t,
		common.HexToHash("0x143f1f8e861fbdeddd5b46e844b7d3ac7b86a122f36e8c463859ee6811b1f29c"),
		contract.Events["TokenExchange"].ID, "tricrypto-ng TokenExchange topic")

	pool := common.HexToAddress(testPoolAddress)
	log := exchangeLog(t, pool, 18_000_000, 0, 2, uint256.NewInt(1000e6), uint256.NewInt(499e15))
	parsed, err := parseTokenExchangeEvent(contract, &log)
	require.NoError(t, err)
	assert.Equal(t, testBuyer.Hex(), parsed.Buyer)
	assert.Equal(t, 0, parsed.SoldId)
	assert.Equal(t, 2, parsed.BoughtId)
	assert.Equal(t, "1000000000", parsed.TokensSold.String())
	assert.Equal(t, "499000000000000000", parsed.TokensBought.String())
	assert.Equal(t, "12345", parsed.Fee.String())
	assert.Same(t, &log, parsed.RawEvent)

	sold, bought, err := parsed.Amounts()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000e6), sold.Uint64())
	assert.Equal(t, uint64(499e15), bought.Uint64())
}

func TestParseTokenExchangeEventErrors(t *testing.T) {
	contract, err := loadABI()
	require.NoError(t, err)
	pool := common.HexToAddress(testPoolAddress)

	log := exchangeLog(t, pool, 1, 0, 1, uint256.NewInt(1), uint256.NewInt(1))
	log.Topics = log.Topics[:1]
	_, err = parseTokenExchangeEvent(contract, &log)
	assert.Error(t, err, "missing buyer topic")

	log = exchangeLog(t, pool, 1, 0, 1, uint256.NewInt(1), uint256.NewInt(1))
	log.Topics[0] = common.HexToHash("0xdead")
	_, err = parseTokenExchangeEvent(contract, &log)
	assert.Error(t, err, "other event")

	log = exchangeLog(t, pool, 1, 0, 5, uint256.NewInt(1), uint256.NewInt(1))
	_, err = parseTokenExchangeEvent(contract, &log)
	assert.ErrorIs(t, err, INVALID_INDEX)

	log = exchangeLog(t, pool, 1, 0, 1, ZERO, uint256.NewInt(1))
	_, err = parseTokenExchangeEvent(contract, &log)
	assert.Error(t, err, "zero amount")

	log = exchangeLog(t, pool, 1, 0, 1, uint256.NewInt(1), uint256.NewInt(1))
	log.Data = log.Data[:64]
	_, err = parseTokenExchangeEvent(contract, &log)
	assert.Error(t, err, "short data")
}
