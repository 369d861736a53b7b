package tricrypto_simulator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// SimulatorFork replays logs on copies of the simulator's pools, the
// originals are never touched.
type SimulatorFork struct {
	Id        string
	Pools     map[common.Address]*CorePool
	simulator *Simulator
}

func NewSimulatorFork(s *Simulator) *SimulatorFork {
	return &SimulatorFork{
		Id:        uuid.NewString(),
		Pools:     map[common.Address]*CorePool{},
		simulator: s,
	}
}

func (s *SimulatorFork) GetPool(addr common.Address) (*CorePool, error) {
	if _, ok := s.Pools[addr]; !ok {
		forkedPool, err := s.simulator.ForkPool(addr)
		if err != nil {
			return nil, err
		}
		s.Pools[addr] = forkedPool
	}
	return s.Pools[addr], nil
}

// HandleLogs replays logs on the forked pools. Unlike Simulator.HandleLogs
// nothing is skipped by block; a fork starts from the pool as it is.
func (s *SimulatorFork) HandleLogs(logs []types.Log, timestamps map[uint64]uint64) error {
	for k := range logs {
		log := &logs[k]
		if log.Removed || len(log.Topics) == 0 || log.Topics[0] != s.simulator.TokenExchangeID {
			continue
		}
		if _, ok := s.simulator.Pool(log.Address); !ok {
			continue
		}
		pool, err := s.GetPool(log.Address)
		if err != nil {
			return err
		}
		if err = applyTokenExchange(s.simulator.Abi, pool, log, timestamps); err != nil {
			return err
		}
		if log.BlockNumber > pool.CurrentBlockNum {
			pool.CurrentBlockNum = log.BlockNumber
		}
	}
	return nil
}
