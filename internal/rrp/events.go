package rrp

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type SetSponsorshipStatus struct {
	Sponsor   common.Address
	Requester common.Address
	Status    bool
}

type CreatedTemplate struct {
	TemplateID common.Hash
	Airnode    common.Address
	EndpointID common.Hash
	Parameters []byte
}

type MadeTemplateRequest struct {
	Airnode               common.Address
	RequestID             common.Hash
	RequesterRequestCount uint64
	ChainID               *big.Int
	Requester             common.Address
	TemplateID            common.Hash
	Sponsor               common.Address
	SponsorWallet         common.Address
	FulfillAddress        common.Address
	FulfillFunctionID     [4]byte
	Parameters            []byte
}

type MadeFullRequest struct {
	Airnode               common.Address
	RequestID             common.Hash
	RequesterRequestCount uint64
	ChainID               *big.Int
	Requester             common.Address
	EndpointID            common.Hash
	Sponsor               common.Address
	SponsorWallet         common.Address
	FulfillAddress        common.Address
	FulfillFunctionID     [4]byte
	Parameters            []byte
}

type FulfilledRequest struct {
	Airnode   common.Address
	RequestID common.Hash
	Data      []byte
}

type FailedRequest struct {
	Airnode      common.Address
	RequestID    common.Hash
	ErrorMessage string
}

func (SetSponsorshipStatus) EventName() string { return "SetSponsorshipStatus" }
func (CreatedTemplate) EventName() string      { return "CreatedTemplate" }
func (MadeTemplateRequest) EventName() string  { return "MadeTemplateRequest" }
func (MadeFullRequest) EventName() string      { return "MadeFullRequest" }
func (FulfilledRequest) EventName() string     { return "FulfilledRequest" }
func (FailedRequest) EventName() string        { return "FailedRequest" }
