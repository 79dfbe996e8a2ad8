package rrp

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

const callbackFailedMessage = "Fulfillment failed unexpectedly"

type Fulfillment struct {
	RequestID         common.Hash
	Airnode           common.Address
	FulfillAddress    common.Address
	FulfillFunctionID [4]byte
	Data              []byte
	Signature         []byte
}

// FulfillmentOutcome separates consumer failures from protocol failures. A fulfillment that
// returns an outcome was delivered, the callback may still have failed
type FulfillmentOutcome struct {
	CallSuccess   bool
	CallbackError []byte
	Err           error `json:"-"`
}

// SignFulfillment produces the signature an airnode attaches to its response
func SignFulfillment(requestID common.Hash, data []byte, airnodeKey *ecdsa.PrivateKey) ([]byte, error) {
	return lib.SignPersonal(FulfillmentHash(requestID, data).Bytes(), airnodeKey)
}

// Fulfill delivers a signed response. The caller must be the sponsor wallet named in the request.
// The request is consumed before the consumer is called, and a failing callback does not fail
// the fulfillment
func (r *Rrp) Fulfill(tx *ledger.Tx, f Fulfillment) (FulfillmentOutcome, error) {
	if err := r.consume(tx, f.RequestID, f.Airnode, f.FulfillAddress, f.FulfillFunctionID); err != nil {
		return FulfillmentOutcome{}, err
	}

	signer, err := lib.RecoverPersonal(FulfillmentHash(f.RequestID, f.Data).Bytes(), f.Signature)
	if err != nil {
		return FulfillmentOutcome{}, lib.WrapError(ErrInvalidSignature, err)
	}
	if signer != f.Airnode {
		return FulfillmentOutcome{}, lib.WrapError(ErrInvalidSignature, fmt.Errorf("signed by %s", signer.Hex()))
	}

	input, err := EncodeCallback(f.RequestID, f.Data)
	if err != nil {
		return FulfillmentOutcome{}, err
	}

	err = tx.Invoke(r.address, f.FulfillAddress, f.FulfillFunctionID, input)
	if err != nil {
		r.log.Warnf("callback of request %s failed: %s", f.RequestID.Hex(), err)
		tx.Emit(r.address, FailedRequest{Airnode: f.Airnode, RequestID: f.RequestID, ErrorMessage: callbackFailedMessage})
		return FulfillmentOutcome{CallSuccess: false, CallbackError: []byte(err.Error()), Err: err}, nil
	}

	tx.Emit(r.address, FulfilledRequest{Airnode: f.Airnode, RequestID: f.RequestID, Data: f.Data})
	return FulfillmentOutcome{CallSuccess: true}, nil
}

// DryRunFulfill runs Fulfill as caller without keeping any of its effects
func (r *Rrp) DryRunFulfill(caller common.Address, f Fulfillment) (FulfillmentOutcome, error) {
	var outcome FulfillmentOutcome
	_, err := r.ledger.Simulate(caller, func(tx *ledger.Tx) (err error) {
		outcome, err = r.Fulfill(tx, f)
		return err
	})
	return outcome, err
}

// Fail is how an airnode reports that it could not serve a request
func (r *Rrp) Fail(tx *ledger.Tx, requestID common.Hash, airnode common.Address, fulfillAddress common.Address, fulfillFunctionID [4]byte, errorMessage string) error {
	if err := r.consume(tx, requestID, airnode, fulfillAddress, fulfillFunctionID); err != nil {
		return err
	}
	tx.Emit(r.address, FailedRequest{Airnode: airnode, RequestID: requestID, ErrorMessage: errorMessage})
	return nil
}

func (r *Rrp) consume(tx *ledger.Tx, requestID common.Hash, airnode common.Address, fulfillAddress common.Address, fulfillFunctionID [4]byte) error {
	req, ok := r.requests.Lookup(requestID)
	if !ok {
		return lib.WrapError(ErrUnknownRequest, fmt.Errorf("%s", requestID.Hex()))
	}
	if req.Airnode != airnode ||
		req.SponsorWallet != tx.Caller() ||
		req.FulfillAddress != fulfillAddress ||
		req.FulfillFunctionID != fulfillFunctionID {
		return lib.WrapError(ErrUnknownRequest, ErrFulfillmentParameters)
	}
	r.requests.Delete(tx, requestID)
	return nil
}
