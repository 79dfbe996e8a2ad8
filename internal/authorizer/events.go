package authorizer

import "github.com/ethereum/go-ethereum/common"

type ExtendedWhitelistExpiration struct {
	Airnode    common.Address
	EndpointID common.Hash
	Requester  common.Address
	Sender     common.Address
	Expiration uint64
}

type SetWhitelistExpiration struct {
	Airnode    common.Address
	EndpointID common.Hash
	Requester  common.Address
	Sender     common.Address
	Expiration uint64
}

type SetIndefiniteWhitelistStatus struct {
	Airnode                  common.Address
	EndpointID               common.Hash
	Requester                common.Address
	Sender                   common.Address
	Status                   bool
	IndefiniteWhitelistCount uint64
}

type RevokedIndefiniteWhitelistStatus struct {
	Airnode                  common.Address
	EndpointID               common.Hash
	Requester                common.Address
	Setter                   common.Address
	Sender                   common.Address
	IndefiniteWhitelistCount uint64
}

func (ExtendedWhitelistExpiration) EventName() string      { return "ExtendedWhitelistExpiration" }
func (SetWhitelistExpiration) EventName() string           { return "SetWhitelistExpiration" }
func (SetIndefiniteWhitelistStatus) EventName() string     { return "SetIndefiniteWhitelistStatus" }
func (RevokedIndefiniteWhitelistStatus) EventName() string { return "RevokedIndefiniteWhitelistStatus" }
