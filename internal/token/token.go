package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNotMinter             = errors.New("caller is not the minter")
	ErrZeroAddress           = errors.New("zero address")
	ErrNegativeAmount        = errors.New("negative amount")
)

type Transfer struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

type Approval struct {
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

type MinterChanged struct {
	Previous common.Address
	Minter   common.Address
}

func (Transfer) EventName() string      { return "Transfer" }
func (Approval) EventName() string      { return "Approval" }
func (MinterChanged) EventName() string { return "MinterChanged" }

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Token is an erc20 balance book. The deployer mints until it hands the role over. Values stored in state are never mutated in place
type Token struct {
	address  common.Address
	symbol   string
	decimals uint8
	deployer common.Address

	minter     *ledger.Map[struct{}, common.Address]
	balances   *ledger.Map[common.Address, *big.Int]
	allowances *ledger.Map[allowanceKey, *big.Int]

	log interfaces.ILogger
}

func NewToken(l *ledger.Ledger, deployer common.Address, symbol string, decimals uint8, log interfaces.ILogger) *Token {
	return &Token{
		address:    l.Deploy(deployer, nil),
		symbol:     symbol,
		decimals:   decimals,
		deployer:   deployer,
		minter:     ledger.NewMap[struct{}, common.Address](),
		balances:   ledger.NewMap[common.Address, *big.Int](),
		allowances: ledger.NewMap[allowanceKey, *big.Int](),
		log:        log,
	}
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) Decimals() uint8 {
	return t.decimals
}

func (t *Token) Minter() common.Address {
	if m, ok := t.minter.Lookup(struct{}{}); ok {
		return m
	}
	return t.deployer
}

// SetMinter hands the mint right over, only the current minter may do so
func (t *Token) SetMinter(tx *ledger.Tx, minter common.Address) error {
	previous := t.Minter()
	if tx.Caller() != previous {
		return lib.WrapError(ErrNotMinter, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if minter == (common.Address{}) {
		return ErrZeroAddress
	}
	t.minter.Set(tx, struct{}{}, minter)
	tx.Emit(t.address, MinterChanged{Previous: previous, Minter: minter})
	return nil
}

func (t *Token) BalanceOf(account common.Address) *big.Int {
	return copyOrZero(t.balances.Get(account))
}

func (t *Token) Allowance(owner common.Address, spender common.Address) *big.Int {
	return copyOrZero(t.allowances.Get(allowanceKey{owner, spender}))
}

func (t *Token) Approve(tx *ledger.Tx, spender common.Address, amount *big.Int) error {
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	owner := tx.Caller()
	t.allowances.Set(tx, allowanceKey{owner, spender}, new(big.Int).Set(amount))
	tx.Emit(t.address, Approval{Owner: owner, Spender: spender, Value: new(big.Int).Set(amount)})
	return nil
}

func (t *Token) Transfer(tx *ledger.Tx, to common.Address, amount *big.Int) error {
	return t.move(tx, tx.Caller(), to, amount)
}

// TransferFrom moves amount out of from using the allowance given to the caller
func (t *Token) TransferFrom(tx *ledger.Tx, from common.Address, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	key := allowanceKey{from, tx.Caller()}
	allowance := copyOrZero(t.allowances.Get(key))
	if allowance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientAllowance, fmt.Errorf("%s allowed %s, needs %s", tx.Caller().Hex(), allowance, amount))
	}
	t.allowances.Set(tx, key, allowance.Sub(allowance, amount))
	return t.move(tx, from, to, amount)
}

func (t *Token) Mint(tx *ledger.Tx, to common.Address, amount *big.Int) error {
	if tx.Caller() != t.Minter() {
		return lib.WrapError(ErrNotMinter, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance := copyOrZero(t.balances.Get(to))
	t.balances.Set(tx, to, balance.Add(balance, amount))
	tx.Emit(t.address, Transfer{To: to, Value: new(big.Int).Set(amount)})
	return nil
}

func (t *Token) move(tx *ledger.Tx, from common.Address, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	fromBalance := copyOrZero(t.balances.Get(from))
	if fromBalance.Cmp(amount) < 0 {
		return lib.WrapError(ErrInsufficientBalance, fmt.Errorf("%s has %s, needs %s", from.Hex(), fromBalance, amount))
	}
	t.balances.Set(tx, from, fromBalance.Sub(fromBalance, amount))

	toBalance := copyOrZero(t.balances.Get(to))
	t.balances.Set(tx, to, toBalance.Add(toBalance, amount))

	tx.Emit(t.address, Transfer{From: from, To: to, Value: new(big.Int).Set(amount)})
	t.log.Debugf("%s %s transferred from %s to %s", amount, t.symbol, from.Hex(), to.Hex())
	return nil
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
