package whitelist

import (
	"errors"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrDoesNotExtendExpiration = errors.New("does not extend expiration")
)

// Status of a user for a service. The user is whitelisted while at least one account keeps an
// indefinite grant or until the expiration timestamp passes
type Status struct {
	ExpirationTimestamp      uint64
	IndefiniteWhitelistCount uint64
}

func (s Status) IsWhitelisted(now uint64) bool {
	return s.IndefiniteWhitelistCount > 0 || s.ExpirationTimestamp > now
}

type key struct {
	Service common.Hash
	User    common.Address
}

type setterKey struct {
	key
	Setter common.Address
}

// Store does no access control, owners of a store gate every write
type Store struct {
	statuses *ledger.Map[key, Status]
	bySetter *ledger.Map[setterKey, bool]
}

func NewStore() *Store {
	return &Store{
		statuses: ledger.NewMap[key, Status](),
		bySetter: ledger.NewMap[setterKey, bool](),
	}
}

func (s *Store) Status(service common.Hash, user common.Address) Status {
	return s.statuses.Get(key{service, user})
}

func (s *Store) IsWhitelisted(service common.Hash, user common.Address, now uint64) bool {
	return s.Status(service, user).IsWhitelisted(now)
}

// IndefiniteStatusBySetter reports whether setter currently contributes an indefinite grant
func (s *Store) IndefiniteStatusBySetter(service common.Hash, user common.Address, setter common.Address) bool {
	return s.bySetter.Get(setterKey{key{service, user}, setter})
}

func (s *Store) ExtendExpiration(tx *ledger.Tx, service common.Hash, user common.Address, expiration uint64) error {
	k := key{service, user}
	status := s.statuses.Get(k)
	if expiration <= status.ExpirationTimestamp {
		return ErrDoesNotExtendExpiration
	}
	status.ExpirationTimestamp = expiration
	s.statuses.Set(tx, k, status)
	return nil
}

func (s *Store) SetExpiration(tx *ledger.Tx, service common.Hash, user common.Address, expiration uint64) {
	k := key{service, user}
	status := s.statuses.Get(k)
	status.ExpirationTimestamp = expiration
	s.statuses.Set(tx, k, status)
}

// SetIndefiniteStatus records the contribution of setter and returns the resulting count.
// Repeating the same value leaves the count as is
func (s *Store) SetIndefiniteStatus(tx *ledger.Tx, service common.Hash, user common.Address, setter common.Address, enabled bool) uint64 {
	k := key{service, user}
	sk := setterKey{k, setter}
	status := s.statuses.Get(k)
	current := s.bySetter.Get(sk)

	switch {
	case enabled && !current:
		s.bySetter.Set(tx, sk, true)
		status.IndefiniteWhitelistCount++
		s.statuses.Set(tx, k, status)
	case !enabled && current:
		s.bySetter.Set(tx, sk, false)
		status.IndefiniteWhitelistCount--
		s.statuses.Set(tx, k, status)
	}
	return status.IndefiniteWhitelistCount
}

// RevokeIndefiniteStatus drops the contribution of setter if there is one
func (s *Store) RevokeIndefiniteStatus(tx *ledger.Tx, service common.Hash, user common.Address, setter common.Address) (revoked bool, count uint64) {
	k := key{service, user}
	sk := setterKey{k, setter}
	status := s.statuses.Get(k)

	if !s.bySetter.Get(sk) {
		return false, status.IndefiniteWhitelistCount
	}
	s.bySetter.Set(tx, sk, false)
	status.IndefiniteWhitelistCount--
	s.statuses.Set(tx, k, status)
	return true, status.IndefiniteWhitelistCount
}
