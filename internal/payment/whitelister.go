package payment

import (
	"fmt"
	"math"
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/Lumerin-protocol/airnode-gate/internal/authorizer"
	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

// Token is the part of an erc20 ledger payments need
type Token interface {
	Address() common.Address
	Decimals() uint8
	TransferFrom(tx *ledger.Tx, from common.Address, to common.Address, amount *big.Int) error
}

// Settings are the defaults every airnode starts with. PriceUSD is charged per Period
type Settings struct {
	PriceUSD    *big.Int
	Period      uint64
	MinDuration uint64
	MaxDuration uint64
}

type Durations struct {
	Min uint64
	Max uint64
}

type Quote struct {
	Token       common.Address
	Amount      *big.Int
	Destination common.Address
	Expiration  uint64
}

// Whitelister sells whitelist extensions for a token. It must hold the extender role of
// every authorizer it is given
type Whitelister struct {
	address  common.Address
	registry *accesscontrol.Registry
	manager  common.Address
	roles    Roles
	token    Token
	feed     PriceFeed
	period   uint64

	authorizers  *ledger.Map[string, *authorizer.Authorizer]
	prices       *ledger.Map[common.Address, *big.Int]  // zero address holds the default
	durations    *ledger.Map[common.Address, Durations] // zero address holds the default
	destinations *ledger.Map[common.Address, common.Address]

	log interfaces.ILogger
}

func NewWhitelister(l *ledger.Ledger, deployer common.Address, registry *accesscontrol.Registry, manager common.Address, token Token, feed PriceFeed, defaults Settings, log interfaces.ILogger) (*Whitelister, error) {
	if manager == (common.Address{}) {
		return nil, accesscontrol.ErrZeroManagerAddress
	}
	if defaults.Period == 0 {
		return nil, ErrInvalidPeriod
	}
	if err := checkPrice(defaults.PriceUSD); err != nil {
		return nil, err
	}
	if err := checkDurations(defaults.MinDuration, defaults.MaxDuration); err != nil {
		return nil, err
	}

	w := &Whitelister{
		address:      l.Deploy(deployer, nil),
		registry:     registry,
		manager:      manager,
		roles:        DeriveRoles(manager),
		token:        token,
		feed:         feed,
		period:       defaults.Period,
		authorizers:  ledger.NewMap[string, *authorizer.Authorizer](),
		prices:       ledger.NewMap[common.Address, *big.Int](),
		durations:    ledger.NewMap[common.Address, Durations](),
		destinations: ledger.NewMap[common.Address, common.Address](),
		log:          log,
	}

	_, err := l.Execute(deployer, func(tx *ledger.Tx) error {
		w.setPrice(tx, common.Address{}, defaults.PriceUSD)
		w.setDurations(tx, common.Address{}, Durations{defaults.MinDuration, defaults.MaxDuration})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Whitelister) Address() common.Address {
	return w.address
}

func (w *Whitelister) Roles() Roles {
	return w.roles
}

func (w *Whitelister) Period() uint64 {
	return w.period
}

func (w *Whitelister) isAuthorizedCaller(account common.Address, role common.Hash) bool {
	return account == w.manager || w.registry.HasRole(role, account)
}

// SetChainAuthorizer binds the authorizer payments for chainTag extend. A nil authorizer unbinds
func (w *Whitelister) SetChainAuthorizer(tx *ledger.Tx, chainTag string, a *authorizer.Authorizer) error {
	if !w.isAuthorizedCaller(tx.Caller(), w.roles.Maintainer) {
		return lib.WrapError(ErrNotMaintainer, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if chainTag == "" {
		return lib.WrapError(ErrUnknownChain, fmt.Errorf("empty chain tag"))
	}

	var addr common.Address
	if a == nil {
		w.authorizers.Delete(tx, chainTag)
	} else {
		w.authorizers.Set(tx, chainTag, a)
		addr = a.Address()
	}
	tx.Emit(w.address, SetChainAuthorizer{ChainTag: chainTag, Authorizer: addr, Sender: tx.Caller()})
	return nil
}

func (w *Whitelister) ChainAuthorizer(chainTag string) (*authorizer.Authorizer, error) {
	a, ok := w.authorizers.Lookup(chainTag)
	if !ok {
		return nil, lib.WrapError(ErrUnknownChain, fmt.Errorf("%q", chainTag))
	}
	return a, nil
}

func (w *Whitelister) SetDefaultPrice(tx *ledger.Tx, priceUSD *big.Int) error {
	if !w.isAuthorizedCaller(tx.Caller(), w.roles.PriceSetter) {
		return lib.WrapError(ErrNotPriceSetter, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if err := checkPrice(priceUSD); err != nil {
		return err
	}
	w.setPrice(tx, common.Address{}, priceUSD)
	return nil
}

// SetAirnodePrice overrides the default price for airnode, a nil or zero price removes the override
func (w *Whitelister) SetAirnodePrice(tx *ledger.Tx, airnode common.Address, priceUSD *big.Int) error {
	if !w.isAuthorizedCaller(tx.Caller(), w.roles.PriceSetter) {
		return lib.WrapError(ErrNotPriceSetter, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if airnode == (common.Address{}) {
		return ErrZeroAddress
	}
	if priceUSD == nil {
		priceUSD = new(big.Int)
	}
	if priceUSD.Sign() < 0 {
		return ErrInvalidPrice
	}
	w.setPrice(tx, airnode, priceUSD)
	return nil
}

func (w *Whitelister) setPrice(tx *ledger.Tx, airnode common.Address, priceUSD *big.Int) {
	if priceUSD.Sign() == 0 {
		w.prices.Delete(tx, airnode)
	} else {
		w.prices.Set(tx, airnode, new(big.Int).Set(priceUSD))
	}
	if airnode == (common.Address{}) {
		tx.Emit(w.address, SetDefaultPrice{PriceUSD: new(big.Int).Set(priceUSD), Sender: tx.Caller()})
	} else {
		tx.Emit(w.address, SetAirnodePrice{Airnode: airnode, PriceUSD: new(big.Int).Set(priceUSD), Sender: tx.Caller()})
	}
}

// Price is the per period price for airnode
func (w *Whitelister) Price(airnode common.Address) *big.Int {
	if p, ok := w.prices.Lookup(airnode); ok {
		return new(big.Int).Set(p)
	}
	return new(big.Int).Set(w.prices.Get(common.Address{}))
}

func (w *Whitelister) SetDefaultDurations(tx *ledger.Tx, min uint64, max uint64) error {
	if !w.isAuthorizedCaller(tx.Caller(), w.roles.Maintainer) {
		return lib.WrapError(ErrNotMaintainer, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if err := checkDurations(min, max); err != nil {
		return err
	}
	w.setDurations(tx, common.Address{}, Durations{min, max})
	return nil
}

// SetAirnodeDurations overrides the default bounds for airnode, zero bounds remove the override
func (w *Whitelister) SetAirnodeDurations(tx *ledger.Tx, airnode common.Address, min uint64, max uint64) error {
	if !w.isAuthorizedCaller(tx.Caller(), w.roles.Maintainer) {
		return lib.WrapError(ErrNotMaintainer, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if airnode == (common.Address{}) {
		return ErrZeroAddress
	}
	if min != 0 || max != 0 {
		if err := checkDurations(min, max); err != nil {
			return err
		}
	}
	w.setDurations(tx, airnode, Durations{min, max})
	return nil
}

func (w *Whitelister) setDurations(tx *ledger.Tx, airnode common.Address, d Durations) {
	if d.Max == 0 {
		w.durations.Delete(tx, airnode)
	} else {
		w.durations.Set(tx, airnode, d)
	}
	tx.Emit(w.address, SetDurations{Airnode: airnode, MinDuration: d.Min, MaxDuration: d.Max, Sender: tx.Caller()})
}

func (w *Whitelister) Durations(airnode common.Address) Durations {
	if d, ok := w.durations.Lookup(airnode); ok {
		return d
	}
	return w.durations.Get(common.Address{})
}

// SetPaymentDestination is called by an airnode to receive its payments elsewhere.
// The zero destination sends them back to the airnode
func (w *Whitelister) SetPaymentDestination(tx *ledger.Tx, destination common.Address) {
	airnode := tx.Caller()
	if destination == (common.Address{}) {
		w.destinations.Delete(tx, airnode)
	} else {
		w.destinations.Set(tx, airnode, destination)
	}
	tx.Emit(w.address, SetPaymentDestination{Airnode: airnode, Destination: destination})
}

func (w *Whitelister) Destination(airnode common.Address) common.Address {
	if d, ok := w.destinations.Lookup(airnode); ok {
		return d
	}
	return airnode
}

// Quote prices a whitelist extension of duration seconds at now without making it
func (w *Whitelister) Quote(chainTag string, res authorizer.Resource, requester common.Address, duration uint64, now uint64) (Quote, error) {
	q, _, err := w.quote(chainTag, res, requester, duration, now)
	return q, err
}

func (w *Whitelister) quote(chainTag string, res authorizer.Resource, requester common.Address, duration uint64, now uint64) (Quote, *authorizer.Authorizer, error) {
	if res.Airnode == (common.Address{}) || requester == (common.Address{}) {
		return Quote{}, nil, ErrZeroAddress
	}
	auth, err := w.ChainAuthorizer(chainTag)
	if err != nil {
		return Quote{}, nil, err
	}

	bounds := w.Durations(res.Airnode)
	if duration < bounds.Min || duration > bounds.Max {
		return Quote{}, nil, lib.WrapError(ErrInvalidDuration, fmt.Errorf("%d not in [%d, %d]", duration, bounds.Min, bounds.Max))
	}

	status := auth.WhitelistStatus(res, requester)
	if status.IndefiniteWhitelistCount > 0 {
		return Quote{}, nil, ErrAlreadyWhitelistedIndefinitely
	}

	tokenPrice, err := w.feed.Price(now)
	if err != nil {
		return Quote{}, nil, lib.WrapError(ErrPriceFeed, err)
	}

	// a fresh window costs at least one period, an active one is extended pro rata
	charged, start := duration, now
	if status.ExpirationTimestamp > now {
		start = status.ExpirationTimestamp
	} else if charged < w.period {
		charged = w.period
	}
	if start > math.MaxUint64-duration {
		return Quote{}, nil, lib.WrapError(ErrInvalidDuration, fmt.Errorf("expiration %d + %d overflows", start, duration))
	}
	expiration := start + duration

	return Quote{
		Token:       w.token.Address(),
		Amount:      amountFor(w.Price(res.Airnode), w.token.Decimals(), tokenPrice, charged, w.period),
		Destination: w.Destination(res.Airnode),
		Expiration:  expiration,
	}, auth, nil
}

// MakePayment charges the caller for whitelisting requester for duration more seconds on the
// authorizer registered for chainTag. The payment is taken before the whitelist is extended
func (w *Whitelister) MakePayment(tx *ledger.Tx, chainTag string, res authorizer.Resource, requester common.Address, duration uint64) (Quote, error) {
	q, auth, err := w.quote(chainTag, res, requester, duration, tx.Now())
	if err != nil {
		return Quote{}, err
	}

	payer := tx.Caller()
	self := tx.CallAs(w.address)
	if q.Amount.Sign() > 0 {
		if err := w.token.TransferFrom(self, payer, q.Destination, q.Amount); err != nil {
			return Quote{}, err
		}
	}
	if err := auth.ExtendWhitelistExpiration(self, res, requester, q.Expiration); err != nil {
		return Quote{}, err
	}

	tx.Emit(w.address, PaidForWhitelistExtension{
		ChainTag:    chainTag,
		Airnode:     res.Airnode,
		EndpointID:  res.EndpointID,
		Requester:   requester,
		Payer:       payer,
		Destination: q.Destination,
		Amount:      new(big.Int).Set(q.Amount),
		Duration:    duration,
		Expiration:  q.Expiration,
	})
	w.log.Infof("%s paid %s for %s until %d on %s", payer.Hex(), q.Amount, requester.Hex(), q.Expiration, chainTag)
	return q, nil
}

func checkPrice(p *big.Int) error {
	if p == nil || p.Sign() <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

func checkDurations(min uint64, max uint64) error {
	if min == 0 || min > max {
		return lib.WrapError(ErrInvalidDuration, fmt.Errorf("bounds [%d, %d]", min, max))
	}
	return nil
}
