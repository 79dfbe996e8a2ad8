package payment

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type SetChainAuthorizer struct {
	ChainTag   string
	Authorizer common.Address
	Sender     common.Address
}

type SetDefaultPrice struct {
	PriceUSD *big.Int
	Sender   common.Address
}

type SetAirnodePrice struct {
	Airnode  common.Address
	PriceUSD *big.Int
	Sender   common.Address
}

type SetDurations struct {
	Airnode     common.Address // zero for defaults
	MinDuration uint64
	MaxDuration uint64
	Sender      common.Address
}

type SetPaymentDestination struct {
	Airnode     common.Address
	Destination common.Address
}

type PaidForWhitelistExtension struct {
	ChainTag    string
	Airnode     common.Address
	EndpointID  common.Hash
	Requester   common.Address
	Payer       common.Address
	Destination common.Address
	Amount      *big.Int
	Duration    uint64
	Expiration  uint64
}

func (SetChainAuthorizer) EventName() string        { return "SetChainAuthorizer" }
func (SetDefaultPrice) EventName() string           { return "SetDefaultPrice" }
func (SetAirnodePrice) EventName() string           { return "SetAirnodePrice" }
func (SetDurations) EventName() string              { return "SetDurations" }
func (SetPaymentDestination) EventName() string     { return "SetPaymentDestination" }
func (PaidForWhitelistExtension) EventName() string { return "PaidForWhitelistExtension" }
