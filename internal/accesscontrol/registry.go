package accesscontrol

import (
	"fmt"

	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/exp/slices"
)

type membership struct {
	Role    common.Hash
	Account common.Address
}

type RoleInit struct {
	AdminRole   common.Hash
	Description string
}

type RoleGrant struct {
	Role    common.Hash
	Account common.Address
}

// Registry keeps a tree of roles per manager. A role is identified by the hash of its
// admin role and its description, root roles by the hash of the manager address.
// Roles without a recorded admin have the zero hash as admin, which nobody can hold
type Registry struct {
	address common.Address

	roleAdmin       *ledger.Map[common.Hash, common.Hash]
	roleDescription *ledger.Map[common.Hash, string]
	members         *ledger.Map[membership, bool]

	log interfaces.ILogger
}

func NewRegistry(l *ledger.Ledger, deployer common.Address, log interfaces.ILogger) *Registry {
	return &Registry{
		address:         l.Deploy(deployer, nil),
		roleAdmin:       ledger.NewMap[common.Hash, common.Hash](),
		roleDescription: ledger.NewMap[common.Hash, string](),
		members:         ledger.NewMap[membership, bool](),
		log:             log,
	}
}

func (r *Registry) Address() common.Address {
	return r.address
}

func (r *Registry) HasRole(role common.Hash, account common.Address) bool {
	return r.members.Get(membership{role, account})
}

func (r *Registry) GetRoleAdmin(role common.Hash) common.Hash {
	return r.roleAdmin.Get(role)
}

func (r *Registry) GetRoleDescription(role common.Hash) string {
	return r.roleDescription.Get(role)
}

// Members lists current members of role ordered by address
func (r *Registry) Members(role common.Hash) []common.Address {
	var res []common.Address
	r.members.Range(func(key membership, isMember bool) bool {
		if isMember && key.Role == role {
			res = append(res, key.Account)
		}
		return true
	})
	slices.SortFunc(res, func(a, b common.Address) bool {
		return a.Hex() < b.Hex()
	})
	return res
}

// InitializeManager grants manager its root role. Anyone can call it for any manager
func (r *Registry) InitializeManager(tx *ledger.Tx, manager common.Address) error {
	if manager == (common.Address{}) {
		return ErrZeroManagerAddress
	}
	rootRole := DeriveRootRole(manager)
	if !r.HasRole(rootRole, manager) {
		r.members.Set(tx, membership{rootRole, manager}, true)
		tx.Emit(r.address, InitializedManager{RootRole: rootRole, Manager: manager, Sender: tx.Caller()})
		r.log.Debugf("initialized manager %s", manager.Hex())
	}
	return nil
}

// InitializeRoleAndGrantToSender records the admin of the derived role on first use and grants it
// to the caller, who must hold adminRole. Callers deriving from their own root role get it lazily
func (r *Registry) InitializeRoleAndGrantToSender(tx *ledger.Tx, adminRole common.Hash, description string) (common.Hash, error) {
	role, err := DeriveRole(adminRole, description)
	if err != nil {
		return common.Hash{}, err
	}

	if !r.HasRole(role, tx.Caller()) {
		if r.GetRoleAdmin(role) == (common.Hash{}) {
			if adminRole == DeriveRootRole(tx.Caller()) {
				if err := r.InitializeManager(tx, tx.Caller()); err != nil {
					return common.Hash{}, err
				}
			}
			// the admin check below also guards initialization
			if !r.HasRole(adminRole, tx.Caller()) {
				return common.Hash{}, lib.WrapError(ErrNotAdmin, fmt.Errorf("role %s", adminRole.Hex()))
			}
			r.roleAdmin.Set(tx, role, adminRole)
			r.roleDescription.Set(tx, role, description)
			tx.Emit(r.address, InitializedRole{Role: role, AdminRole: adminRole, Description: description, Sender: tx.Caller()})
		}
		if err := r.GrantRole(tx, role, tx.Caller()); err != nil {
			return common.Hash{}, err
		}
	}
	return role, nil
}

func (r *Registry) GrantRole(tx *ledger.Tx, role common.Hash, account common.Address) error {
	if err := r.checkAdmin(role, tx.Caller()); err != nil {
		return err
	}
	if !r.HasRole(role, account) {
		r.members.Set(tx, membership{role, account}, true)
		tx.Emit(r.address, RoleGranted{Role: role, Account: account, Sender: tx.Caller()})
	}
	return nil
}

func (r *Registry) RevokeRole(tx *ledger.Tx, role common.Hash, account common.Address) error {
	if err := r.checkAdmin(role, tx.Caller()); err != nil {
		return err
	}
	r.revoke(tx, role, account)
	return nil
}

// RenounceRole lets an account leave a role. Root roles cannot be renounced, the manager
// would lose the whole tree
func (r *Registry) RenounceRole(tx *ledger.Tx, role common.Hash, account common.Address) error {
	if account != tx.Caller() {
		return ErrCannotRenounceOther
	}
	if role == DeriveRootRole(account) {
		return ErrCannotRenounceRoot
	}
	r.revoke(tx, role, account)
	return nil
}

// Batch initializes roles and then applies grants, both in the given order.
// Any failing step fails the whole call
func (r *Registry) Batch(tx *ledger.Tx, inits []RoleInit, grants []RoleGrant) ([]common.Hash, error) {
	roles := make([]common.Hash, 0, len(inits))
	for i, init := range inits {
		role, err := r.InitializeRoleAndGrantToSender(tx, init.AdminRole, init.Description)
		if err != nil {
			return nil, lib.WrapError(ErrBatchStep, fmt.Errorf("initialize #%d: %w", i, err))
		}
		roles = append(roles, role)
	}
	for i, grant := range grants {
		if err := r.GrantRole(tx, grant.Role, grant.Account); err != nil {
			return nil, lib.WrapError(ErrBatchStep, fmt.Errorf("grant #%d: %w", i, err))
		}
	}
	return roles, nil
}

func (r *Registry) checkAdmin(role common.Hash, sender common.Address) error {
	admin := r.GetRoleAdmin(role)
	if !r.HasRole(admin, sender) {
		return lib.WrapError(ErrNotAdmin, fmt.Errorf("role %s", admin.Hex()))
	}
	return nil
}

func (r *Registry) revoke(tx *ledger.Tx, role common.Hash, account common.Address) {
	if r.HasRole(role, account) {
		r.members.Set(tx, membership{role, account}, false)
		tx.Emit(r.address, RoleRevoked{Role: role, Account: account, Sender: tx.Caller()})
	}
}
