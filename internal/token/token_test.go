package token

import (
	"math/big"
	"testing"
	"time"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	deployer = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	spender  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func newTestToken(t *testing.T) (*ledger.Ledger, *Token) {
	l := ledger.NewTestLedger(ledger.NewManualClock(time.Unix(1_700_000_000, 0)))
	tok := NewToken(l, deployer, "TKN", 18, &lib.LoggerMock{})
	_, err := l.Execute(deployer, func(tx *ledger.Tx) error {
		return tok.Mint(tx, alice, big.NewInt(100))
	})
	require.NoError(t, err)
	return l, tok
}

func TestMintOnlyMinter(t *testing.T) {
	l, tok := newTestToken(t)
	_, err := l.Execute(alice, func(tx *ledger.Tx) error {
		return tok.Mint(tx, alice, big.NewInt(1))
	})
	require.ErrorIs(t, err, ErrNotMinter)
	require.Equal(t, big.NewInt(100), tok.BalanceOf(alice))
}

func TestSetMinter(t *testing.T) {
	l, tok := newTestToken(t)

	_, err := l.Execute(alice, func(tx *ledger.Tx) error {
		return tok.SetMinter(tx, alice)
	})
	require.ErrorIs(t, err, ErrNotMinter)

	_, err = l.Execute(deployer, func(tx *ledger.Tx) error {
		return tok.SetMinter(tx, common.Address{})
	})
	require.ErrorIs(t, err, ErrZeroAddress)

	rec, err := l.Execute(deployer, func(tx *ledger.Tx) error {
		return tok.SetMinter(tx, bob)
	})
	require.NoError(t, err)
	require.Equal(t, MinterChanged{Previous: deployer, Minter: bob}, rec.Logs[0].Event)
	require.Equal(t, bob, tok.Minter())

	_, err = l.Execute(deployer, func(tx *ledger.Tx) error {
		return tok.Mint(tx, alice, big.NewInt(1))
	})
	require.ErrorIs(t, err, ErrNotMinter)

	_, err = l.Execute(bob, func(tx *ledger.Tx) error {
		return tok.Mint(tx, alice, big.NewInt(5))
	})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(105), tok.BalanceOf(alice))
}

func TestTransfer(t *testing.T) {
	l, tok := newTestToken(t)

	rcpt, err := l.Execute(alice, func(tx *ledger.Tx) error {
		return tok.Transfer(tx, bob, big.NewInt(40))
	})
	require.NoError(t, err)
	require.Len(t, rcpt.Logs, 1)
	require.Equal(t, Transfer{From: alice, To: bob, Value: big.NewInt(40)}, rcpt.Logs[0].Event)
	require.Equal(t, big.NewInt(60), tok.BalanceOf(alice))
	require.Equal(t, big.NewInt(40), tok.BalanceOf(bob))

	_, err = l.Execute(alice, func(tx *ledger.Tx) error {
		return tok.Transfer(tx, bob, big.NewInt(61))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, big.NewInt(60), tok.BalanceOf(alice))
}

func TestTransferFrom(t *testing.T) {
	l, tok := newTestToken(t)

	_, err := l.Execute(spender, func(tx *ledger.Tx) error {
		return tok.TransferFrom(tx, alice, bob, big.NewInt(1))
	})
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	_, err = l.Execute(alice, func(tx *ledger.Tx) error {
		return tok.Approve(tx, spender, big.NewInt(50))
	})
	require.NoError(t, err)

	_, err = l.Execute(spender, func(tx *ledger.Tx) error {
		return tok.TransferFrom(tx, alice, bob, big.NewInt(30))
	})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(20), tok.Allowance(alice, spender))
	require.Equal(t, big.NewInt(30), tok.BalanceOf(bob))
}

func TestFailedTransferFromKeepsAllowance(t *testing.T) {
	l, tok := newTestToken(t)

	_, err := l.Execute(alice, func(tx *ledger.Tx) error {
		return tok.Approve(tx, spender, big.NewInt(500))
	})
	require.NoError(t, err)

	_, err = l.Execute(spender, func(tx *ledger.Tx) error {
		return tok.TransferFrom(tx, alice, bob, big.NewInt(200))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, big.NewInt(500), tok.Allowance(alice, spender))
	require.Equal(t, big.NewInt(100), tok.BalanceOf(alice))
}

func TestReturnedBalancesAreCopies(t *testing.T) {
	_, tok := newTestToken(t)
	tok.BalanceOf(alice).SetInt64(0)
	require.Equal(t, big.NewInt(100), tok.BalanceOf(alice))
}
