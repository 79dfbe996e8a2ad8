package authorizer

import (
	"testing"
	"time"

	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/Lumerin-protocol/airnode-gate/internal/whitelist"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	deployer  = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	airnode   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	extender  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	setter    = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	whitelstr = common.HexToAddress("0x00000000000000000000000000000000000000e3")
	requester = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	stranger  = common.HexToAddress("0x00000000000000000000000000000000000000f2")

	endpointID = common.HexToHash("0xe0")
	resource   = Resource{Airnode: airnode, EndpointID: endpointID}
	t0         = time.Unix(1_700_000_000, 0)
)

type fixture struct {
	ledger   *ledger.Ledger
	clock    *ledger.ManualClock
	registry *accesscontrol.Registry
	auth     *Authorizer
}

// newFixture deploys an airnode-owned authorizer and grants the three operational roles
func newFixture(t *testing.T) *fixture {
	clock := ledger.NewManualClock(t0)
	l := ledger.NewTestLedger(clock)
	registry := accesscontrol.NewRegistry(l, deployer, &lib.LoggerMock{})
	auth := NewWithAirnode(l, deployer, registry, &lib.LoggerMock{})

	roles := auth.Roles(airnode)
	root := accesscontrol.DeriveRootRole(airnode)
	_, err := l.Execute(airnode, func(tx *ledger.Tx) error {
		_, err := registry.Batch(tx,
			[]accesscontrol.RoleInit{
				{AdminRole: root, Description: AdminRoleDescriptionWithAirnode},
				{AdminRole: roles.Admin, Description: ExtenderRoleDescription},
				{AdminRole: roles.Admin, Description: SetterRoleDescription},
				{AdminRole: roles.Admin, Description: IndefiniteWhitelisterRoleDescription},
			},
			[]accesscontrol.RoleGrant{
				{Role: roles.Extender, Account: extender},
				{Role: roles.Setter, Account: setter},
				{Role: roles.IndefiniteWhitelister, Account: whitelstr},
			},
		)
		return err
	})
	require.NoError(t, err)

	return &fixture{ledger: l, clock: clock, registry: registry, auth: auth}
}

func (f *fixture) exec(caller common.Address, fn func(tx *ledger.Tx) error) (*ledger.Receipt, error) {
	return f.ledger.Execute(caller, fn)
}

func TestExtenderExtendsExpiration(t *testing.T) {
	f := newFixture(t)
	now := uint64(t0.Unix())

	_, err := f.exec(setter, func(tx *ledger.Tx) error {
		return f.auth.SetWhitelistExpiration(tx, resource, requester, now)
	})
	require.NoError(t, err)

	rec, err := f.exec(extender, func(tx *ledger.Tx) error {
		return f.auth.ExtendWhitelistExpiration(tx, resource, requester, now+1000)
	})
	require.NoError(t, err)
	require.Equal(t, now+1000, f.auth.WhitelistStatus(resource, requester).ExpirationTimestamp)
	require.Equal(t, ExtendedWhitelistExpiration{
		Airnode:    airnode,
		EndpointID: endpointID,
		Requester:  requester,
		Sender:     extender,
		Expiration: now + 1000,
	}, rec.Logs[0].Event)
	require.True(t, f.auth.IsAuthorized(resource, requester, now))
}

func TestExtendDoesNotDecrease(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(airnode, func(tx *ledger.Tx) error {
		return f.auth.ExtendWhitelistExpiration(tx, resource, requester, 2000)
	})
	require.NoError(t, err)

	_, err = f.exec(extender, func(tx *ledger.Tx) error {
		return f.auth.ExtendWhitelistExpiration(tx, resource, requester, 2000)
	})
	require.ErrorIs(t, err, whitelist.ErrDoesNotExtendExpiration)

	_, err = f.exec(extender, func(tx *ledger.Tx) error {
		return f.auth.ExtendWhitelistExpiration(tx, resource, requester, 1999)
	})
	require.Error(t, err)
	require.Equal(t, uint64(2000), f.auth.WhitelistStatus(resource, requester).ExpirationTimestamp)
}

func TestMutatorsAreGated(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(stranger, func(tx *ledger.Tx) error {
		return f.auth.ExtendWhitelistExpiration(tx, resource, requester, 1)
	})
	require.ErrorIs(t, err, ErrNotExtender)

	_, err = f.exec(extender, func(tx *ledger.Tx) error {
		return f.auth.SetWhitelistExpiration(tx, resource, requester, 1)
	})
	require.ErrorIs(t, err, ErrNotSetter)

	_, err = f.exec(setter, func(tx *ledger.Tx) error {
		return f.auth.SetIndefiniteWhitelistStatus(tx, resource, requester, true)
	})
	require.ErrorIs(t, err, ErrNotIndefiniteWhitelister)

	// roles derived for this airnode give nothing on other airnodes
	other := Resource{Airnode: stranger, EndpointID: endpointID}
	_, err = f.exec(extender, func(tx *ledger.Tx) error {
		return f.auth.ExtendWhitelistExpiration(tx, other, requester, 1)
	})
	require.ErrorIs(t, err, ErrNotExtender)
}

func TestSetExpirationCanDecrease(t *testing.T) {
	f := newFixture(t)
	now := uint64(t0.Unix())

	_, err := f.exec(setter, func(tx *ledger.Tx) error {
		if err := f.auth.SetWhitelistExpiration(tx, resource, requester, now+100); err != nil {
			return err
		}
		return f.auth.SetWhitelistExpiration(tx, resource, requester, 0)
	})
	require.NoError(t, err)
	require.False(t, f.auth.IsAuthorized(resource, requester, now))
}

func TestZeroAddressArguments(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(airnode, func(tx *ledger.Tx) error {
		return f.auth.SetWhitelistExpiration(tx, resource, common.Address{}, 1)
	})
	require.ErrorIs(t, err, ErrZeroAddress)

	_, err = f.exec(airnode, func(tx *ledger.Tx) error {
		return f.auth.SetWhitelistExpiration(tx, Resource{EndpointID: endpointID}, requester, 1)
	})
	require.ErrorIs(t, err, ErrZeroAirnode)
}

func TestZeroReaderIsWildcard(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.auth.IsAuthorized(resource, common.Address{}, uint64(t0.Unix())))
	require.False(t, f.auth.IsAuthorized(resource, requester, uint64(t0.Unix())))
}

func TestIndefiniteStatusIsIdempotent(t *testing.T) {
	f := newFixture(t)

	var logs []ledger.Log
	for i := 0; i < 2; i++ {
		rec, err := f.exec(whitelstr, func(tx *ledger.Tx) error {
			return f.auth.SetIndefiniteWhitelistStatus(tx, resource, requester, true)
		})
		require.NoError(t, err)
		logs = append(logs, rec.Logs...)
	}
	require.Len(t, logs, 2, "event is emitted on every call")
	require.Equal(t, uint64(1), f.auth.WhitelistStatus(resource, requester).IndefiniteWhitelistCount)

	_, err := f.exec(airnode, func(tx *ledger.Tx) error {
		return f.auth.SetIndefiniteWhitelistStatus(tx, resource, requester, true)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), f.auth.WhitelistStatus(resource, requester).IndefiniteWhitelistCount)

	f.clock.Advance(365 * 24 * time.Hour)
	require.True(t, f.auth.IsAuthorized(resource, requester, uint64(f.clock.Now().Unix())))
}

func TestRevokeIndefiniteStatus(t *testing.T) {
	f := newFixture(t)
	roles := f.auth.Roles(airnode)

	_, err := f.exec(whitelstr, func(tx *ledger.Tx) error {
		return f.auth.SetIndefiniteWhitelistStatus(tx, resource, requester, true)
	})
	require.NoError(t, err)

	_, err = f.exec(stranger, func(tx *ledger.Tx) error {
		return f.auth.RevokeIndefiniteWhitelistStatus(tx, resource, requester, whitelstr)
	})
	require.ErrorIs(t, err, ErrSetterStillPrivileged)

	_, err = f.exec(stranger, func(tx *ledger.Tx) error {
		return f.auth.RevokeIndefiniteWhitelistStatus(tx, resource, requester, airnode)
	})
	require.ErrorIs(t, err, ErrSetterStillPrivileged)

	_, err = f.exec(airnode, func(tx *ledger.Tx) error {
		return f.registry.RevokeRole(tx, roles.IndefiniteWhitelister, whitelstr)
	})
	require.NoError(t, err)

	rec, err := f.exec(stranger, func(tx *ledger.Tx) error {
		return f.auth.RevokeIndefiniteWhitelistStatus(tx, resource, requester, whitelstr)
	})
	require.NoError(t, err)
	require.Equal(t, RevokedIndefiniteWhitelistStatus{
		Airnode:                  airnode,
		EndpointID:               endpointID,
		Requester:                requester,
		Setter:                   whitelstr,
		Sender:                   stranger,
		IndefiniteWhitelistCount: 0,
	}, rec.Logs[0].Event)
	require.False(t, f.auth.IndefiniteWhitelistStatusBySetter(resource, requester, whitelstr))

	rec, err = f.exec(stranger, func(tx *ledger.Tx) error {
		return f.auth.RevokeIndefiniteWhitelistStatus(tx, resource, requester, whitelstr)
	})
	require.NoError(t, err)
	require.Empty(t, rec.Logs, "revoking an absent grant is a silent no-op")
}

func TestManagerVariant(t *testing.T) {
	l := ledger.NewTestLedger(ledger.NewManualClock(t0))
	registry := accesscontrol.NewRegistry(l, deployer, &lib.LoggerMock{})
	manager := common.HexToAddress("0x00000000000000000000000000000000000000c1")

	_, err := NewWithManager(l, deployer, registry, common.Address{}, &lib.LoggerMock{})
	require.ErrorIs(t, err, accesscontrol.ErrZeroManagerAddress)

	auth, err := NewWithManager(l, deployer, registry, manager, &lib.LoggerMock{})
	require.NoError(t, err)
	require.Equal(t, manager, auth.Owner(airnode))

	_, err = l.Execute(airnode, func(tx *ledger.Tx) error {
		return auth.ExtendWhitelistExpiration(tx, resource, requester, 1)
	})
	require.ErrorIs(t, err, ErrNotExtender, "airnode has no say under a manager")

	_, err = l.Execute(manager, func(tx *ledger.Tx) error {
		return auth.ExtendWhitelistExpiration(tx, Resource{EndpointID: endpointID}, requester, 1)
	})
	require.NoError(t, err, "resources need no airnode under a manager")
}
