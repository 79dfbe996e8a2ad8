package accesscontrol

import (
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

// DeriveRootRole is keccak256(abi.encodePacked(manager))
func DeriveRootRole(manager common.Address) common.Hash {
	return lib.Packed().Address(manager).Keccak()
}

// DeriveRole is keccak256(abi.encodePacked(adminRole, keccak256(abi.encodePacked(description))))
func DeriveRole(adminRole common.Hash, description string) (common.Hash, error) {
	if description == "" {
		return common.Hash{}, ErrEmptyDescription
	}
	return deriveRole(adminRole, description), nil
}

// MustDeriveRole is for descriptions that are compile time constants
func MustDeriveRole(adminRole common.Hash, description string) common.Hash {
	role, err := DeriveRole(adminRole, description)
	if err != nil {
		panic(err)
	}
	return role
}

func deriveRole(adminRole common.Hash, description string) common.Hash {
	descriptionHash := lib.Packed().String(description).Keccak()
	return lib.Packed().Hash(adminRole).Hash(descriptionHash).Keccak()
}
