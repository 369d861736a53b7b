package main

import (
	"context"

	tricrypto_simulator "github.com/CoinSummer/tricrypto-simulator"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := tricrypto_simulator.LoadConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.SetLevel(level)

	ctx := context.Background()
	smt, err := tricrypto_simulator.NewSimulator(cfg.DbFile)
	if err != nil {
		logrus.Fatal(err)
	}
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		logrus.Fatal(err)
	}
	defer client.Close()

	to := cfg.ToBlock
	if to == 0 {
		to, err = client.BlockNumber(ctx)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	from := cfg.FromBlock
	if pool, ok := smt.Pool(cfg.PoolAddress); ok {
		if pool.CurrentBlockNum+1 > from {
			from = pool.CurrentBlockNum + 1
		}
	} else {
		if from == 0 {
			logrus.Fatalf("pool %s not in %s, FROM_BLOCK is required", cfg.PoolAddress, cfg.DbFile)
		}
		pool, err := tricrypto_simulator.FetchPool(ctx, client, cfg.PoolAddress, from-1)
		if err != nil {
			logrus.Fatal(err)
		}
		if cfg.MaTime != 0 {
			pool.Config.Rebalancing.MaTime = cfg.MaTime
		}
		if err = smt.AddPool(pool); err != nil {
			logrus.Fatal(err)
		}
	}

	if from > to {
		logrus.Infof("pool %s already synced to %d", cfg.PoolAddress, from-1)
		return
	}
	if err = smt.SyncRange(ctx, client, from, to, cfg.BlockStep); err != nil {
		logrus.Fatal(err)
	}
	pool, _ := smt.Pool(cfg.PoolAddress)
	vp, err := pool.VirtualPrice()
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.Infof("synced pool %s to %d, virtual price: %s", cfg.PoolAddress, to, vp.Dec())
}
