package payment

import (
	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/ethereum/go-ethereum/common"
)

const (
	AdminRoleDescription       = "PaidWhitelistExtension admin"
	MaintainerRoleDescription  = "Maintainer"
	PriceSetterRoleDescription = "Price setter"
)

type Roles struct {
	Admin       common.Hash
	Maintainer  common.Hash
	PriceSetter common.Hash
}

func DeriveRoles(manager common.Address) Roles {
	admin := accesscontrol.MustDeriveRole(accesscontrol.DeriveRootRole(manager), AdminRoleDescription)
	return Roles{
		Admin:       admin,
		Maintainer:  accesscontrol.MustDeriveRole(admin, MaintainerRoleDescription),
		PriceSetter: accesscontrol.MustDeriveRole(admin, PriceSetterRoleDescription),
	}
}
