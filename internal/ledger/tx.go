package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type pendingEvent struct {
	Emitter common.Address
	Event   Event
}

type journal struct {
	undo   []func()
	events []pendingEvent
}

type snapshot struct {
	undo   int
	events int
}

// Tx is the execution context of a single ledger call
type Tx struct {
	ledger *Ledger
	caller common.Address
	origin common.Address
	now    uint64
	j      *journal
	snaps  *[]snapshot
}

// Caller is the immediate sender of the current call
func (tx *Tx) Caller() common.Address {
	return tx.caller
}

// Origin is the account that submitted the transaction
func (tx *Tx) Origin() common.Address {
	return tx.origin
}

// Now is the block timestamp in unix seconds
func (tx *Tx) Now() uint64 {
	return tx.now
}

func (tx *Tx) ChainID() *big.Int {
	return tx.ledger.ChainID()
}

// CallAs returns a context for a call made by contract sender. It shares the journal
// so the callee's writes revert together with the caller's
func (tx *Tx) CallAs(sender common.Address) *Tx {
	sub := *tx
	sub.caller = sender
	return &sub
}

func (tx *Tx) Emit(emitter common.Address, ev Event) {
	tx.j.events = append(tx.j.events, pendingEvent{Emitter: emitter, Event: ev})
}

func (tx *Tx) record(undo func()) {
	tx.j.undo = append(tx.j.undo, undo)
}

// Snapshot returns an id that RevertToSnapshot accepts
func (tx *Tx) Snapshot() int {
	*tx.snaps = append(*tx.snaps, snapshot{undo: len(tx.j.undo), events: len(tx.j.events)})
	return len(*tx.snaps) - 1
}

// RevertToSnapshot undoes writes and drops events made after the snapshot was taken.
// Snapshot 0 is the start of the transaction
func (tx *Tx) RevertToSnapshot(id int) {
	target := snapshot{}
	if id > 0 {
		if id >= len(*tx.snaps) {
			panic(fmt.Sprintf("snapshot %d does not exist", id))
		}
		target = (*tx.snaps)[id]
		*tx.snaps = (*tx.snaps)[:id]
	} else {
		*tx.snaps = (*tx.snaps)[:1]
	}

	for i := len(tx.j.undo) - 1; i >= target.undo; i-- {
		tx.j.undo[i]()
	}
	tx.j.undo = tx.j.undo[:target.undo]
	tx.j.events = tx.j.events[:target.events]
}

// Invoke calls contract code at target with the current contract (sender) as caller.
// A failing call reverts only its own writes. Calling an address without code succeeds
// and does nothing, like a call to an externally owned account
func (tx *Tx) Invoke(sender common.Address, target common.Address, selector [4]byte, input []byte) error {
	contract, ok := tx.ledger.contracts[target]
	if !ok {
		return nil
	}

	snap := tx.Snapshot()
	err := contract.Invoke(tx.CallAs(sender), selector, input)
	if err != nil {
		tx.RevertToSnapshot(snap)
		return err
	}
	return nil
}
