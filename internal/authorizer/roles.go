package authorizer

import (
	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/ethereum/go-ethereum/common"
)

const (
	AdminRoleDescriptionWithAirnode = "RequesterAuthorizerWithAirnode admin"
	AdminRoleDescriptionWithManager = "RequesterAuthorizerWithManager admin"

	ExtenderRoleDescription              = "Whitelist expiration extender"
	SetterRoleDescription                = "Whitelist expiration setter"
	IndefiniteWhitelisterRoleDescription = "Indefinite whitelister"
)

// Roles are derived under the root role of whoever owns the resources
type Roles struct {
	Admin                 common.Hash
	Extender              common.Hash
	Setter                common.Hash
	IndefiniteWhitelister common.Hash
}

func DeriveRoles(owner common.Address, adminRoleDescription string) Roles {
	admin := accesscontrol.MustDeriveRole(accesscontrol.DeriveRootRole(owner), adminRoleDescription)
	return Roles{
		Admin:                 admin,
		Extender:              accesscontrol.MustDeriveRole(admin, ExtenderRoleDescription),
		Setter:                accesscontrol.MustDeriveRole(admin, SetterRoleDescription),
		IndefiniteWhitelister: accesscontrol.MustDeriveRole(admin, IndefiniteWhitelisterRoleDescription),
	}
}
