package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/atomic"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// Contract is code deployed on the ledger that other contracts can call into
type Contract interface {
	Invoke(tx *Tx, selector [4]byte, input []byte) error
}

type Receipt struct {
	Height    uint64
	Timestamp uint64
	Logs      []Log
}

// Ledger serializes all calls, every mutating call either commits entirely or reverts
type Ledger struct {
	chainID *big.Int
	clock   Clock

	mu          sync.Mutex
	height      atomic.Uint64
	deployNonce map[common.Address]uint64
	contracts   map[common.Address]Contract

	events  *EventLog
	metrics *Metrics
	log     interfaces.ILogger
}

func NewLedger(chainID *big.Int, clock Clock, events *EventLog, metrics *Metrics, log interfaces.ILogger) *Ledger {
	if clock == nil {
		clock = SystemClock()
	}
	return &Ledger{
		chainID:     new(big.Int).Set(chainID),
		clock:       clock,
		deployNonce: make(map[common.Address]uint64),
		contracts:   make(map[common.Address]Contract),
		events:      events,
		metrics:     metrics,
		log:         log,
	}
}

func (l *Ledger) ChainID() *big.Int {
	return new(big.Int).Set(l.chainID)
}

// Height is the number of committed transactions, safe to call without holding the lock
func (l *Ledger) Height() uint64 {
	return l.height.Load()
}

// Now is the timestamp the next transaction would get
func (l *Ledger) Now() uint64 {
	return uint64(l.clock.Now().Unix())
}

func (l *Ledger) Events() *EventLog {
	return l.events
}

// Deploy assigns the next contract address of deployer and registers contract code at it.
// contract may be nil for code that is never called back
func (l *Ledger) Deploy(deployer common.Address, contract Contract) common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()

	nonce := l.deployNonce[deployer]
	l.deployNonce[deployer] = nonce + 1

	addr := crypto.CreateAddress(deployer, nonce)
	if contract != nil {
		l.contracts[addr] = contract
	}
	l.log.Debugf("deployed contract %s", addr.Hex())
	return addr
}

// Register binds contract code to an address that was deployed before the code existed
func (l *Ledger) Register(addr common.Address, contract Contract) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[addr] = contract
}

// Execute runs fn as caller. Writes and events are committed only if fn returns nil
func (l *Ledger) Execute(caller common.Address, fn func(tx *Tx) error) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.newTx(caller)
	defer revertOnPanic(tx, l.metrics.Reverted)

	err := fn(tx)
	if err != nil {
		tx.RevertToSnapshot(0)
		l.metrics.Reverted()
		l.log.Debugw("transaction reverted", "caller", caller.Hex(), "err", err)
		return nil, err
	}

	height := l.height.Inc()
	logs := l.events.Append(height, tx.now, tx.j.events)
	for _, lg := range logs {
		l.metrics.Event(lg.Event.EventName())
	}
	l.metrics.Committed()

	return &Receipt{Height: height, Timestamp: tx.now, Logs: logs}, nil
}

// Simulate runs fn exactly like Execute but always discards its effects. The receipt
// describes what would have been committed
func (l *Ledger) Simulate(caller common.Address, fn func(tx *Tx) error) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.newTx(caller)
	defer revertOnPanic(tx, l.metrics.Simulated)

	err := fn(tx)

	height := l.height.Load() + 1
	logs := make([]Log, len(tx.j.events))
	for i, ev := range tx.j.events {
		logs[i] = Log{Height: height, Timestamp: tx.now, Emitter: ev.Emitter, Event: ev.Event}
	}
	tx.RevertToSnapshot(0)
	l.metrics.Simulated()

	if err != nil {
		return nil, err
	}
	return &Receipt{Height: height, Timestamp: tx.now, Logs: logs}, nil
}

// View gives read access to state under the ledger lock
func (l *Ledger) View(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.newTx(common.Address{})
	defer tx.RevertToSnapshot(0)
	return fn(tx)
}

// revertOnPanic undoes every write of tx before the panic continues
func revertOnPanic(tx *Tx, count func()) {
	if r := recover(); r != nil {
		tx.RevertToSnapshot(0)
		count()
		panic(r)
	}
}

func (l *Ledger) newTx(caller common.Address) *Tx {
	return &Tx{
		ledger: l,
		caller: caller,
		origin: caller,
		now:    uint64(l.clock.Now().Unix()),
		j:      &journal{},
		snaps:  &[]snapshot{{}},
	}
}

// NewTestLedger is a ledger with a hardhat chain id, in-memory history and no metrics registry
func NewTestLedger(clock Clock) *Ledger {
	return NewLedger(big.NewInt(31337), clock, NewEventLog(1024), NewMetrics(nil), &lib.LoggerMock{})
}
