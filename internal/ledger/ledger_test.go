package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type testEvent struct{ Name string }

func (e testEvent) EventName() string { return e.Name }

var (
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	errTest = errors.New("test")
)

func TestExecuteCommitsWritesAndEvents(t *testing.T) {
	l := NewTestLedger(NewManualClock(time.Unix(1000, 0)))
	m := NewMap[string, int]()

	rec, err := l.Execute(alice, func(tx *Tx) error {
		require.Equal(t, alice, tx.Caller())
		require.Equal(t, uint64(1000), tx.Now())
		m.Set(tx, "a", 1)
		tx.Emit(alice, testEvent{"A"})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), rec.Height)
	require.Len(t, rec.Logs, 1)
	require.Equal(t, 1, m.Get("a"))
	require.Equal(t, uint64(1), l.Height())
	require.Equal(t, 1, l.Events().Len())
}

func TestExecuteRevertsOnError(t *testing.T) {
	l := NewTestLedger(nil)
	m := NewMap[string, int]()

	_, err := l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "a", 1)
		return nil
	})
	require.NoError(t, err)

	_, err = l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "a", 2)
		m.Set(tx, "b", 3)
		m.Delete(tx, "a")
		tx.Emit(alice, testEvent{"B"})
		return errTest
	})
	require.ErrorIs(t, err, errTest)
	require.Equal(t, 1, m.Get("a"))
	_, ok := m.Lookup("b")
	require.False(t, ok)
	require.Equal(t, uint64(1), l.Height())
	require.Equal(t, 0, l.Events().Len())
}

func TestSimulateNeverPersists(t *testing.T) {
	l := NewTestLedger(nil)
	m := NewMap[string, int]()

	rec, err := l.Simulate(alice, func(tx *Tx) error {
		m.Set(tx, "a", 1)
		tx.Emit(alice, testEvent{"A"})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rec.Logs, 1)
	_, ok := m.Lookup("a")
	require.False(t, ok)
	require.Equal(t, uint64(0), l.Height())
	require.Equal(t, 0, l.Events().Len())
}

func TestSnapshotRevertsNestedWritesOnly(t *testing.T) {
	l := NewTestLedger(nil)
	m := NewMap[string, int]()

	_, err := l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "outer", 1)
		tx.Emit(alice, testEvent{"outer"})

		snap := tx.Snapshot()
		m.Set(tx, "inner", 2)
		tx.Emit(alice, testEvent{"inner"})
		tx.RevertToSnapshot(snap)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Get("outer"))
	_, ok := m.Lookup("inner")
	require.False(t, ok)
	require.Len(t, l.Events().Recent(10), 1)
}

type contractFunc func(tx *Tx, selector [4]byte, input []byte) error

func (f contractFunc) Invoke(tx *Tx, selector [4]byte, input []byte) error {
	return f(tx, selector, input)
}

func TestInvokeFailureKeepsCallerWrites(t *testing.T) {
	l := NewTestLedger(nil)
	m := NewMap[string, int]()

	var seenCaller common.Address
	target := l.Deploy(alice, contractFunc(func(tx *Tx, selector [4]byte, input []byte) error {
		seenCaller = tx.Caller()
		m.Set(tx, "callee", 1)
		return errTest
	}))
	self := l.Deploy(alice, nil)
	require.NotEqual(t, target, self)

	_, err := l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "caller", 1)
		err := tx.Invoke(self, target, [4]byte{}, nil)
		require.ErrorIs(t, err, errTest)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, self, seenCaller)
	require.Equal(t, 1, m.Get("caller"))
	_, ok := m.Lookup("callee")
	require.False(t, ok)
}

func TestInvokeAddressWithoutCodeSucceeds(t *testing.T) {
	l := NewTestLedger(nil)
	m := NewMap[string, int]()

	_, err := l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "caller", 1)
		return tx.Invoke(alice, common.HexToAddress("0x01"), [4]byte{}, nil)
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Get("caller"))
}

func TestExecuteRevertsOnPanic(t *testing.T) {
	l := NewTestLedger(nil)
	m := NewMap[string, int]()

	_, err := l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "a", 1)
		return nil
	})
	require.NoError(t, err)

	require.PanicsWithValue(t, "boom", func() {
		_, _ = l.Execute(alice, func(tx *Tx) error {
			m.Set(tx, "a", 2)
			m.Set(tx, "b", 3)
			tx.Emit(alice, testEvent{"B"})
			panic("boom")
		})
	})
	require.Equal(t, 1, m.Get("a"))
	_, ok := m.Lookup("b")
	require.False(t, ok)
	require.Equal(t, uint64(1), l.Height())
	require.Equal(t, 0, l.Events().Len())

	_, err = l.Execute(alice, func(tx *Tx) error {
		m.Set(tx, "a", 4)
		return nil
	})
	require.NoError(t, err, "the lock is released after a panic")
	require.Equal(t, 4, m.Get("a"))
}

func TestEventLogKeepsMostRecent(t *testing.T) {
	log := NewEventLog(4)
	for i := 0; i < 6; i++ {
		name := "even"
		if i%2 == 1 {
			name = "odd"
		}
		log.Append(uint64(i+1), 0, []pendingEvent{{Emitter: alice, Event: testEvent{name}}})
	}

	all := log.Recent(10)
	require.Len(t, all, 4)
	require.Equal(t, uint64(2), all[0].Index)
	require.Equal(t, uint64(5), all[3].Index)

	odd := log.Recent(10, "odd")
	require.Len(t, odd, 2)
	require.Equal(t, uint64(3), odd[0].Index)

	last := log.Recent(1)
	require.Equal(t, uint64(5), last[0].Index)
}
