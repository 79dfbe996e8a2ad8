package whitelist

import (
	"testing"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	service = common.HexToHash("0x01")
	user    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	setter1 = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	setter2 = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func exec(t *testing.T, l *ledger.Ledger, fn func(tx *ledger.Tx) error) error {
	t.Helper()
	_, err := l.Execute(setter1, fn)
	return err
}

func TestStatusIsWhitelisted(t *testing.T) {
	require.False(t, Status{}.IsWhitelisted(100))
	require.True(t, Status{ExpirationTimestamp: 101}.IsWhitelisted(100))
	require.False(t, Status{ExpirationTimestamp: 100}.IsWhitelisted(100))
	require.True(t, Status{IndefiniteWhitelistCount: 1}.IsWhitelisted(100))
}

func TestExtendExpirationIsMonotonic(t *testing.T) {
	l := ledger.NewTestLedger(nil)
	s := NewStore()

	require.NoError(t, exec(t, l, func(tx *ledger.Tx) error {
		return s.ExtendExpiration(tx, service, user, 1000)
	}))
	require.Equal(t, uint64(1000), s.Status(service, user).ExpirationTimestamp)

	err := exec(t, l, func(tx *ledger.Tx) error {
		return s.ExtendExpiration(tx, service, user, 1000)
	})
	require.ErrorIs(t, err, ErrDoesNotExtendExpiration)

	err = exec(t, l, func(tx *ledger.Tx) error {
		return s.ExtendExpiration(tx, service, user, 999)
	})
	require.ErrorIs(t, err, ErrDoesNotExtendExpiration)
	require.Equal(t, uint64(1000), s.Status(service, user).ExpirationTimestamp)
}

func TestSetExpirationOverrides(t *testing.T) {
	l := ledger.NewTestLedger(nil)
	s := NewStore()

	require.NoError(t, exec(t, l, func(tx *ledger.Tx) error {
		s.SetExpiration(tx, service, user, 1000)
		s.SetExpiration(tx, service, user, 0)
		return nil
	}))
	require.Equal(t, uint64(0), s.Status(service, user).ExpirationTimestamp)
}

func TestIndefiniteStatusCountsDistinctSetters(t *testing.T) {
	l := ledger.NewTestLedger(nil)
	s := NewStore()

	var counts []uint64
	require.NoError(t, exec(t, l, func(tx *ledger.Tx) error {
		counts = append(counts,
			s.SetIndefiniteStatus(tx, service, user, setter1, true),
			s.SetIndefiniteStatus(tx, service, user, setter1, true),
			s.SetIndefiniteStatus(tx, service, user, setter2, true),
			s.SetIndefiniteStatus(tx, service, user, setter1, false),
			s.SetIndefiniteStatus(tx, service, user, setter1, false),
		)
		return nil
	}))
	require.Equal(t, []uint64{1, 1, 2, 1, 1}, counts)
	require.False(t, s.IndefiniteStatusBySetter(service, user, setter1))
	require.True(t, s.IndefiniteStatusBySetter(service, user, setter2))
	require.True(t, s.IsWhitelisted(service, user, 1<<40))
}

func TestRevokeIndefiniteStatus(t *testing.T) {
	l := ledger.NewTestLedger(nil)
	s := NewStore()

	require.NoError(t, exec(t, l, func(tx *ledger.Tx) error {
		s.SetIndefiniteStatus(tx, service, user, setter1, true)
		s.SetIndefiniteStatus(tx, service, user, setter2, true)
		return nil
	}))

	var revoked bool
	var count uint64
	require.NoError(t, exec(t, l, func(tx *ledger.Tx) error {
		revoked, count = s.RevokeIndefiniteStatus(tx, service, user, setter1)
		return nil
	}))
	require.True(t, revoked)
	require.Equal(t, uint64(1), count)

	require.NoError(t, exec(t, l, func(tx *ledger.Tx) error {
		revoked, count = s.RevokeIndefiniteStatus(tx, service, user, setter1)
		return nil
	}))
	require.False(t, revoked)
	require.Equal(t, uint64(1), count)
}
