package accesscontrol

import "github.com/ethereum/go-ethereum/common"

type InitializedManager struct {
	RootRole common.Hash
	Manager  common.Address
	Sender   common.Address
}

type InitializedRole struct {
	Role        common.Hash
	AdminRole   common.Hash
	Description string
	Sender      common.Address
}

type RoleGranted struct {
	Role    common.Hash
	Account common.Address
	Sender  common.Address
}

type RoleRevoked struct {
	Role    common.Hash
	Account common.Address
	Sender  common.Address
}

func (InitializedManager) EventName() string { return "InitializedManager" }
func (InitializedRole) EventName() string    { return "InitializedRole" }
func (RoleGranted) EventName() string        { return "RoleGranted" }
func (RoleRevoked) EventName() string        { return "RoleRevoked" }
