package tricrypto_simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChainReader is the part of ethclient.Client used to replay history.
type ChainReader interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type Simulator struct {
	pools           map[common.Address]*CorePool
	dirtyPools      map[common.Address]*CorePool
	Abi             abi.ABI
	TokenExchangeID common.Hash
	db              *gorm.DB
}

// NewSimulator opens the sqlite snapshot at dbFile and loads every pool
// saved there.
func NewSimulator(dbFile string) (*Simulator, error) {
	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	a, err := loadABI()
	if err != nil {
		return nil, err
	}
	pm := &Simulator{
		pools:           map[common.Address]*CorePool{},
		dirtyPools:      map[common.Address]*CorePool{},
		Abi:             a,
		TokenExchangeID: a.Events["TokenExchange"].ID,
		db:              db,
	}

	if err = db.AutoMigrate(&PoolRecord{}); err != nil {
		return nil, err
	}
	var records []*PoolRecord
	if err = db.Find(&records).Error; err != nil {
		return nil, err
	}
	for _, record := range records {
		pool, err := NewCorePoolFromRecord(record)
		if err != nil {
			return nil, err
		}
		pm.pools[common.HexToAddress(pool.PoolAddress)] = pool
	}
	logrus.Infof("load %d pools from %s", len(records), dbFile)
	return pm, nil
}

func (pm *Simulator) AddPool(pool *CorePool) error {
	addr := common.HexToAddress(pool.PoolAddress)
	if _, exist := pm.pools[addr]; exist {
		return fmt.Errorf("pool exists %s", addr)
	}
	pm.pools[addr] = pool
	pm.dirtyPools[addr] = pool
	logrus.Infof("add pool: %s, block: %d", addr, pool.CurrentBlockNum)
	return nil
}

func (pm *Simulator) Pool(addr common.Address) (*CorePool, bool) {
	pool, ok := pm.pools[addr]
	return pool, ok
}

func (pm *Simulator) Addresses() []common.Address {
	addrs := make([]common.Address, 0, len(pm.pools))
	for addr := range pm.pools {
		addrs = append(addrs, addr)
	}
	return addrs
}

// HandleLogs replays TokenExchange logs in order. logs must hold every log
// of the blocks they cover; a pool's CurrentBlockNum only moves once the
// whole batch is applied, and blocks at or below it are skipped. timestamps
// maps block number to block time and must cover every log's block.
func (pm *Simulator) HandleLogs(logs []types.Log, timestamps map[uint64]uint64) error {
	synced := map[common.Address]uint64{}
	for k := range logs {
		log := &logs[k]
		if log.Removed || len(log.Topics) == 0 || log.Topics[0] != pm.TokenExchangeID {
			continue
		}
		pool, ok := pm.pools[log.Address]
		if !ok {
			continue
		}
		if log.BlockNumber <= pool.CurrentBlockNum {
			continue
		}
		err := applyTokenExchange(pm.Abi, pool, log, timestamps)
		if err != nil {
			return err
		}
		if log.BlockNumber > synced[log.Address] {
			synced[log.Address] = log.BlockNumber
		}
		pm.dirtyPools[log.Address] = pool
	}
	for addr, block := range synced {
		pm.pools[addr].CurrentBlockNum = block
	}
	return nil
}

// applyTokenExchange replays one exchange on pool. A replayed output that
// differs from the logged one is reported but kept, the pool follows its
// own math.
func applyTokenExchange(contract abi.ABI, pool *CorePool, log *types.Log, timestamps map[uint64]uint64) error {
	exchange, err := parseTokenExchangeEvent(contract, log)
	if err != nil {
		logrus.Warnf("failed parse exchange event, tx: %s  pool: %s err: %s", log.TxHash, log.Address, err)
		return nil
	}
	now, ok := timestamps[log.BlockNumber]
	if !ok {
		return fmt.Errorf("no timestamp for block %d", log.BlockNumber)
	}
	sold, bought, err := exchange.Amounts()
	if err != nil {
		return err
	}
	dy, err := pool.Exchange(exchange.SoldId, exchange.BoughtId, &sold, nil, now)
	if err != nil {
		logrus.Errorf("failed execute exchange event, %s tx: %s  pool: %s", err, log.TxHash, log.Address)
		return err
	}
	if !dy.Eq(&bought) {
		logrus.Warnf("exchange output mismatch, tx: %s  pool: %s, replayed: %s, logged: %s", log.TxHash, log.Address, dy.Dec(), bought.Dec())
	}
	return nil
}

func (pm *Simulator) MaxSyncedBlockNum() (uint64, error) {
	var lastBlock *uint64
	err := pm.db.Model(&PoolRecord{}).Select("max(current_block_num)").Row().Scan(&lastBlock)
	if err != nil {
		return 0, err
	}
	if lastBlock == nil {
		return 0, nil
	}
	return *lastBlock, nil
}

func (pm *Simulator) FlushPools() error {
	err := pm.db.Transaction(func(tx *gorm.DB) error {
		for _, pool := range pm.dirtyPools {
			err := pool.Flush(tx)
			if err != nil {
				logrus.Errorf("failed flush pool %s", err)
				return err
			}
			logrus.Infof("flush pool: %s", pool.PoolAddress)
		}
		return nil
	})
	if err != nil {
		logrus.Warnf("failed save snapshot %s", err)
		return err
	}
	pm.dirtyPools = map[common.Address]*CorePool{}
	return nil
}

// SyncRange replays every known pool's exchanges in [from, to], step blocks
// per query. to is inclusive.
func (pm *Simulator) SyncRange(ctx context.Context, chain ChainReader, from, to, step uint64) error {
	if step == 0 {
		return fmt.Errorf("block step is 0")
	}
	addrs := pm.Addresses()
	if len(addrs) == 0 {
		return fmt.Errorf("no pool to sync")
	}
	timestamps := map[uint64]uint64{}
	flushStep := 0

	for start := from; start <= to; {
		flushStep += 1
		end := start + step - 1
		if end > to || end < start {
			end = to
		}
		logrus.Infof("sync blocks: %d - %d", start, end)
		logs, err := chain.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: addrs,
			Topics:    [][]common.Hash{{pm.TokenExchangeID}},
		})
		if err != nil {
			return err
		}
		for _, log := range logs {
			if _, ok := timestamps[log.BlockNumber]; ok {
				continue
			}
			header, err := chain.HeaderByNumber(ctx, new(big.Int).SetUint64(log.BlockNumber))
			if err != nil {
				return err
			}
			timestamps[log.BlockNumber] = header.Time
		}
		if err = pm.HandleLogs(logs, timestamps); err != nil {
			return err
		}
		for k := range timestamps {
			delete(timestamps, k)
		}
		pm.markSynced(end)
		if flushStep%10 == 0 {
			if err = pm.FlushPools(); err != nil {
				return err
			}
		}
		if end == to {
			break
		}
		start = end + 1
	}
	return pm.FlushPools()
}

// markSynced records that every pool has seen all of its logs through block.
func (pm *Simulator) markSynced(block uint64) {
	for addr, pool := range pm.pools {
		if pool.CurrentBlockNum < block {
			pool.CurrentBlockNum = block
			pm.dirtyPools[addr] = pool
		}
	}
}

func (pm *Simulator) ForkPool(addr common.Address) (*CorePool, error) {
	pool, ok := pm.pools[addr]
	if !ok {
		return nil, fmt.Errorf("pool not exists %s", addr)
	}
	return pool.Clone(), nil
}
