package tricrypto_simulator

import (
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v6"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	DbFile      string         `env:"DB_FILE" envDefault:"simulator.db"`
	RpcUrl      string         `env:"RPC_URL,required,notEmpty"`
	PoolAddress common.Address `env:"POOL_ADDRESS,required"`
	FromBlock   uint64         `env:"FROM_BLOCK"`
	// 0 means the chain head
	ToBlock   uint64 `env:"TO_BLOCK"`
	BlockStep uint64 `env:"BLOCK_STEP" envDefault:"2000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	// overrides ma_time of the fetched pool when set
	MaTime uint64 `env:"MA_TIME"`
}

func LoadConfig() (Config, error) {
	var c Config
	err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(common.Address{}): func(v string) (interface{}, error) {
			if !common.IsHexAddress(v) {
				return nil, fmt.Errorf("invalid address %q", v)
			}
			return common.HexToAddress(v), nil
		},
	})
	if err != nil {
		return c, err
	}
	if c.BlockStep == 0 {
		return c, fmt.Errorf("BLOCK_STEP must be positive")
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return c, fmt.Errorf("TO_BLOCK %d < FROM_BLOCK %d", c.ToBlock, c.FromBlock)
	}
	return c, nil
}
