package rrp

import (
	"bytes"
	"fmt"

	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

type Template struct {
	Airnode    common.Address
	EndpointID common.Hash
	Parameters []byte
}

// Request is kept while it awaits fulfillment. TemplateID is zero for full requests
type Request struct {
	ID                common.Hash
	Requester         common.Address
	Nonce             uint64
	Airnode           common.Address
	TemplateID        common.Hash
	EndpointID        common.Hash
	Sponsor           common.Address
	SponsorWallet     common.Address
	FulfillAddress    common.Address
	FulfillFunctionID [4]byte
	Parameters        []byte
}

type sponsorship struct {
	Sponsor   common.Address
	Requester common.Address
}

// RequestAuthorizer answers whether a request should be served
type RequestAuthorizer interface {
	IsAuthorizedRequest(tx *ledger.Tx, requestID common.Hash, airnode common.Address, endpointID common.Hash, sponsor common.Address, requester common.Address) bool
}

// Rrp correlates requests with airnode responses. Requests are identified by a hash of
// everything that defines them and a per-requester counter, and consumed on the first
// fulfillment or failure
type Rrp struct {
	address common.Address
	ledger  *ledger.Ledger

	templates             *ledger.Map[common.Hash, Template]
	sponsorshipStatus     *ledger.Map[sponsorship, bool]
	requesterRequestCount *ledger.Map[common.Address, uint64]
	requests              *ledger.Map[common.Hash, Request]

	log interfaces.ILogger
}

func NewRrp(l *ledger.Ledger, deployer common.Address, log interfaces.ILogger) *Rrp {
	return &Rrp{
		address:               l.Deploy(deployer, nil),
		ledger:                l,
		templates:             ledger.NewMap[common.Hash, Template](),
		sponsorshipStatus:     ledger.NewMap[sponsorship, bool](),
		requesterRequestCount: ledger.NewMap[common.Address, uint64](),
		requests:              ledger.NewMap[common.Hash, Request](),
		log:                   log,
	}
}

func (r *Rrp) Address() common.Address {
	return r.address
}

// SetSponsorshipStatus is called by the sponsor to allow or disallow requester to make
// requests on its behalf
func (r *Rrp) SetSponsorshipStatus(tx *ledger.Tx, requester common.Address, status bool) {
	r.sponsorshipStatus.Set(tx, sponsorship{tx.Caller(), requester}, status)
	tx.Emit(r.address, SetSponsorshipStatus{Sponsor: tx.Caller(), Requester: requester, Status: status})
}

func (r *Rrp) SponsorshipStatus(sponsor common.Address, requester common.Address) bool {
	return r.sponsorshipStatus.Get(sponsorship{sponsor, requester})
}

func (r *Rrp) CreateTemplate(tx *ledger.Tx, airnode common.Address, endpointID common.Hash, parameters []byte) (common.Hash, error) {
	if airnode == (common.Address{}) {
		return common.Hash{}, ErrZeroAirnode
	}
	templateID := TemplateID(airnode, endpointID, parameters)
	r.templates.Set(tx, templateID, Template{
		Airnode:    airnode,
		EndpointID: endpointID,
		Parameters: bytes.Clone(parameters),
	})
	tx.Emit(r.address, CreatedTemplate{TemplateID: templateID, Airnode: airnode, EndpointID: endpointID, Parameters: bytes.Clone(parameters)})
	return templateID, nil
}

func (r *Rrp) Template(templateID common.Hash) (Template, bool) {
	return r.templates.Lookup(templateID)
}

func (r *Rrp) RequesterRequestCount(requester common.Address) uint64 {
	return r.requesterRequestCount.Get(requester)
}

func (r *Rrp) RequestIsAwaitingFulfillment(requestID common.Hash) bool {
	_, ok := r.requests.Lookup(requestID)
	return ok
}

func (r *Rrp) PendingRequest(requestID common.Hash) (Request, bool) {
	return r.requests.Lookup(requestID)
}

// MakeTemplateRequest records a request for a stored template. The caller is the requester
func (r *Rrp) MakeTemplateRequest(tx *ledger.Tx, templateID common.Hash, sponsor common.Address, sponsorWallet common.Address, fulfillAddress common.Address, fulfillFunctionID [4]byte, parameters []byte) (common.Hash, error) {
	if err := r.checkRequest(tx, sponsor, fulfillAddress); err != nil {
		return common.Hash{}, err
	}
	template, ok := r.templates.Lookup(templateID)
	if !ok {
		return common.Hash{}, lib.WrapError(ErrTemplateNotFound, fmt.Errorf("%s", templateID.Hex()))
	}

	requester := tx.Caller()
	nonce := r.nextNonce(tx, requester)
	requestID := TemplateRequestID(tx.ChainID(), r.address, requester, nonce, templateID, sponsor, sponsorWallet, fulfillAddress, fulfillFunctionID, parameters)

	r.requests.Set(tx, requestID, Request{
		ID:                requestID,
		Requester:         requester,
		Nonce:             nonce,
		Airnode:           template.Airnode,
		TemplateID:        templateID,
		EndpointID:        template.EndpointID,
		Sponsor:           sponsor,
		SponsorWallet:     sponsorWallet,
		FulfillAddress:    fulfillAddress,
		FulfillFunctionID: fulfillFunctionID,
		Parameters:        bytes.Clone(parameters),
	})
	tx.Emit(r.address, MadeTemplateRequest{
		Airnode:               template.Airnode,
		RequestID:             requestID,
		RequesterRequestCount: nonce,
		ChainID:               tx.ChainID(),
		Requester:             requester,
		TemplateID:            templateID,
		Sponsor:               sponsor,
		SponsorWallet:         sponsorWallet,
		FulfillAddress:        fulfillAddress,
		FulfillFunctionID:     fulfillFunctionID,
		Parameters:            bytes.Clone(parameters),
	})
	r.log.Debugf("template request %s made by %s, nonce %d", requestID.Hex(), requester.Hex(), nonce)
	return requestID, nil
}

// MakeFullRequest records a request that names the airnode and endpoint directly
func (r *Rrp) MakeFullRequest(tx *ledger.Tx, airnode common.Address, endpointID common.Hash, sponsor common.Address, sponsorWallet common.Address, fulfillAddress common.Address, fulfillFunctionID [4]byte, parameters []byte) (common.Hash, error) {
	if airnode == (common.Address{}) {
		return common.Hash{}, ErrZeroAirnode
	}
	if err := r.checkRequest(tx, sponsor, fulfillAddress); err != nil {
		return common.Hash{}, err
	}

	requester := tx.Caller()
	nonce := r.nextNonce(tx, requester)
	requestID := FullRequestID(tx.ChainID(), r.address, requester, nonce, airnode, endpointID, sponsor, sponsorWallet, fulfillAddress, fulfillFunctionID, parameters)

	r.requests.Set(tx, requestID, Request{
		ID:                requestID,
		Requester:         requester,
		Nonce:             nonce,
		Airnode:           airnode,
		EndpointID:        endpointID,
		Sponsor:           sponsor,
		SponsorWallet:     sponsorWallet,
		FulfillAddress:    fulfillAddress,
		FulfillFunctionID: fulfillFunctionID,
		Parameters:        bytes.Clone(parameters),
	})
	tx.Emit(r.address, MadeFullRequest{
		Airnode:               airnode,
		RequestID:             requestID,
		RequesterRequestCount: nonce,
		ChainID:               tx.ChainID(),
		Requester:             requester,
		EndpointID:            endpointID,
		Sponsor:               sponsor,
		SponsorWallet:         sponsorWallet,
		FulfillAddress:        fulfillAddress,
		FulfillFunctionID:     fulfillFunctionID,
		Parameters:            bytes.Clone(parameters),
	})
	r.log.Debugf("full request %s made by %s, nonce %d", requestID.Hex(), requester.Hex(), nonce)
	return requestID, nil
}

// CheckAuthorizationStatus reports whether any of authorizers allows the request.
// No authorizers means the airnode serves everyone
func (r *Rrp) CheckAuthorizationStatus(tx *ledger.Tx, authorizers []RequestAuthorizer, requestID common.Hash, airnode common.Address, endpointID common.Hash, sponsor common.Address, requester common.Address) bool {
	if len(authorizers) == 0 {
		return true
	}
	for _, a := range authorizers {
		if a.IsAuthorizedRequest(tx, requestID, airnode, endpointID, sponsor, requester) {
			return true
		}
	}
	return false
}

func (r *Rrp) checkRequest(tx *ledger.Tx, sponsor common.Address, fulfillAddress common.Address) error {
	if fulfillAddress == r.address {
		return ErrFulfillAddressIsProtocol
	}
	if !r.SponsorshipStatus(sponsor, tx.Caller()) {
		return lib.WrapError(ErrRequesterNotSponsored, fmt.Errorf("sponsor %s, requester %s", sponsor.Hex(), tx.Caller().Hex()))
	}
	return nil
}

// nextNonce increments before use so that a zero count means the requester never requested
func (r *Rrp) nextNonce(tx *ledger.Tx, requester common.Address) uint64 {
	nonce := r.requesterRequestCount.Get(requester) + 1
	r.requesterRequestCount.Set(tx, requester, nonce)
	return nonce
}
