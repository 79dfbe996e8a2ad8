package authorizer

import (
	"fmt"

	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/Lumerin-protocol/airnode-gate/internal/whitelist"
	"github.com/ethereum/go-ethereum/common"
)

// Resource is what a requester gets whitelisted for, an endpoint of an airnode or
// any other id namespaced by an address
type Resource struct {
	Airnode    common.Address
	EndpointID common.Hash
}

// ServiceID is keccak256(abi.encodePacked(airnode, endpointId))
func (r Resource) ServiceID() common.Hash {
	return lib.Packed().Address(r.Airnode).Hash(r.EndpointID).Keccak()
}

// Authorizer keeps requester whitelists. Every mutator is open to the owner of the resource
// and to holders of the matching role derived under the owner's root role. With an airnode the
// owner is the airnode of each resource, with a manager it is the manager for all resources
type Authorizer struct {
	address              common.Address
	registry             *accesscontrol.Registry
	store                *whitelist.Store
	adminRoleDescription string
	manager              common.Address // zero when resources are owned by their airnode

	log interfaces.ILogger
}

func NewWithAirnode(l *ledger.Ledger, deployer common.Address, registry *accesscontrol.Registry, log interfaces.ILogger) *Authorizer {
	return &Authorizer{
		address:              l.Deploy(deployer, nil),
		registry:             registry,
		store:                whitelist.NewStore(),
		adminRoleDescription: AdminRoleDescriptionWithAirnode,
		log:                  log,
	}
}

func NewWithManager(l *ledger.Ledger, deployer common.Address, registry *accesscontrol.Registry, manager common.Address, log interfaces.ILogger) (*Authorizer, error) {
	if manager == (common.Address{}) {
		return nil, accesscontrol.ErrZeroManagerAddress
	}
	return &Authorizer{
		address:              l.Deploy(deployer, nil),
		registry:             registry,
		store:                whitelist.NewStore(),
		adminRoleDescription: AdminRoleDescriptionWithManager,
		manager:              manager,
		log:                  log,
	}, nil
}

func (a *Authorizer) Address() common.Address {
	return a.address
}

// Owner of resources under airnode
func (a *Authorizer) Owner(airnode common.Address) common.Address {
	if a.manager != (common.Address{}) {
		return a.manager
	}
	return airnode
}

func (a *Authorizer) Roles(airnode common.Address) Roles {
	return DeriveRoles(a.Owner(airnode), a.adminRoleDescription)
}

// isAuthorizedCaller is the owner-or-role capability check shared by every mutator
func (a *Authorizer) isAuthorizedCaller(airnode common.Address, account common.Address, role common.Hash) bool {
	return account == a.Owner(airnode) || a.registry.HasRole(role, account)
}

func (a *Authorizer) HasExtenderRoleOrIsOwner(airnode common.Address, account common.Address) bool {
	return a.isAuthorizedCaller(airnode, account, a.Roles(airnode).Extender)
}

func (a *Authorizer) HasSetterRoleOrIsOwner(airnode common.Address, account common.Address) bool {
	return a.isAuthorizedCaller(airnode, account, a.Roles(airnode).Setter)
}

func (a *Authorizer) HasIndefiniteWhitelisterRoleOrIsOwner(airnode common.Address, account common.Address) bool {
	return a.isAuthorizedCaller(airnode, account, a.Roles(airnode).IndefiniteWhitelister)
}

func (a *Authorizer) ExtendWhitelistExpiration(tx *ledger.Tx, res Resource, requester common.Address, expiration uint64) error {
	if err := a.checkWriteArgs(res, requester); err != nil {
		return err
	}
	if !a.HasExtenderRoleOrIsOwner(res.Airnode, tx.Caller()) {
		return lib.WrapError(ErrNotExtender, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	if err := a.store.ExtendExpiration(tx, res.ServiceID(), requester, expiration); err != nil {
		return err
	}
	tx.Emit(a.address, ExtendedWhitelistExpiration{
		Airnode:    res.Airnode,
		EndpointID: res.EndpointID,
		Requester:  requester,
		Sender:     tx.Caller(),
		Expiration: expiration,
	})
	return nil
}

func (a *Authorizer) SetWhitelistExpiration(tx *ledger.Tx, res Resource, requester common.Address, expiration uint64) error {
	if err := a.checkWriteArgs(res, requester); err != nil {
		return err
	}
	if !a.HasSetterRoleOrIsOwner(res.Airnode, tx.Caller()) {
		return lib.WrapError(ErrNotSetter, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	a.store.SetExpiration(tx, res.ServiceID(), requester, expiration)
	tx.Emit(a.address, SetWhitelistExpiration{
		Airnode:    res.Airnode,
		EndpointID: res.EndpointID,
		Requester:  requester,
		Sender:     tx.Caller(),
		Expiration: expiration,
	})
	return nil
}

func (a *Authorizer) SetIndefiniteWhitelistStatus(tx *ledger.Tx, res Resource, requester common.Address, status bool) error {
	if err := a.checkWriteArgs(res, requester); err != nil {
		return err
	}
	if !a.HasIndefiniteWhitelisterRoleOrIsOwner(res.Airnode, tx.Caller()) {
		return lib.WrapError(ErrNotIndefiniteWhitelister, fmt.Errorf("sender %s", tx.Caller().Hex()))
	}
	count := a.store.SetIndefiniteStatus(tx, res.ServiceID(), requester, tx.Caller(), status)
	tx.Emit(a.address, SetIndefiniteWhitelistStatus{
		Airnode:                  res.Airnode,
		EndpointID:               res.EndpointID,
		Requester:                requester,
		Sender:                   tx.Caller(),
		Status:                   status,
		IndefiniteWhitelistCount: count,
	})
	return nil
}

// RevokeIndefiniteWhitelistStatus can be called by anyone to drop a grant made by a setter that
// no longer has the privilege to make it
func (a *Authorizer) RevokeIndefiniteWhitelistStatus(tx *ledger.Tx, res Resource, requester common.Address, setter common.Address) error {
	if err := a.checkWriteArgs(res, requester); err != nil {
		return err
	}
	if a.HasIndefiniteWhitelisterRoleOrIsOwner(res.Airnode, setter) {
		return lib.WrapError(ErrSetterStillPrivileged, fmt.Errorf("setter %s", setter.Hex()))
	}
	revoked, count := a.store.RevokeIndefiniteStatus(tx, res.ServiceID(), requester, setter)
	if revoked {
		tx.Emit(a.address, RevokedIndefiniteWhitelistStatus{
			Airnode:                  res.Airnode,
			EndpointID:               res.EndpointID,
			Requester:                requester,
			Setter:                   setter,
			Sender:                   tx.Caller(),
			IndefiniteWhitelistCount: count,
		})
	}
	return nil
}

func (a *Authorizer) WhitelistStatus(res Resource, requester common.Address) whitelist.Status {
	return a.store.Status(res.ServiceID(), requester)
}

func (a *Authorizer) IndefiniteWhitelistStatusBySetter(res Resource, requester common.Address, setter common.Address) bool {
	return a.store.IndefiniteStatusBySetter(res.ServiceID(), requester, setter)
}

// IsAuthorized treats the zero address as a wildcard that is always authorized, it stands for
// reads that are not attributed to anyone
func (a *Authorizer) IsAuthorized(res Resource, requester common.Address, now uint64) bool {
	if requester == (common.Address{}) {
		return true
	}
	return a.store.IsWhitelisted(res.ServiceID(), requester, now)
}

// IsAuthorizedRequest adapts the whitelist to request authorization checks
func (a *Authorizer) IsAuthorizedRequest(tx *ledger.Tx, requestID common.Hash, airnode common.Address, endpointID common.Hash, sponsor common.Address, requester common.Address) bool {
	return a.store.IsWhitelisted(Resource{airnode, endpointID}.ServiceID(), requester, tx.Now())
}

func (a *Authorizer) checkWriteArgs(res Resource, requester common.Address) error {
	if a.manager == (common.Address{}) && res.Airnode == (common.Address{}) {
		return ErrZeroAirnode
	}
	if requester == (common.Address{}) {
		return ErrZeroAddress
	}
	return nil
}
