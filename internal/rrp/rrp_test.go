package rrp

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	deployer      = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	sponsor       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	sponsorWallet = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	stranger      = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	endpointID    = common.HexToHash("0xe0")
	errConsumer   = errors.New("consumer rejected")
)

func bigPow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

type consumerCall struct {
	Caller    common.Address
	RequestID common.Hash
	Data      []byte
}

// consumer records callbacks and writes into its own state, failing when told to
type consumer struct {
	calls  []consumerCall
	state  *ledger.Map[common.Hash, []byte]
	reject bool
}

func (c *consumer) Invoke(tx *ledger.Tx, selector [4]byte, input []byte) error {
	requestID, data, err := DecodeCallback(input)
	if err != nil {
		return err
	}
	c.state.Set(tx, requestID, data)
	if c.reject {
		return errConsumer
	}
	c.calls = append(c.calls, consumerCall{Caller: tx.Caller(), RequestID: requestID, Data: data})
	return nil
}

type fixture struct {
	ledger     *ledger.Ledger
	rrp        *Rrp
	consumer   *consumer
	consumerAd common.Address
	airnode    common.Address
	airnodeKey *ecdsa.PrivateKey
	templateID common.Hash
}

func newFixture(t *testing.T) *fixture {
	l := ledger.NewTestLedger(ledger.NewManualClock(time.Unix(1_700_000_000, 0)))
	r := NewRrp(l, deployer, &lib.LoggerMock{})
	c := &consumer{state: ledger.NewMap[common.Hash, []byte]()}
	consumerAddr := l.Deploy(deployer, c)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	airnode := lib.MustPrivKeyToAddr(key)

	f := &fixture{ledger: l, rrp: r, consumer: c, consumerAd: consumerAddr, airnode: airnode, airnodeKey: key}

	_, err = l.Execute(sponsor, func(tx *ledger.Tx) error {
		r.SetSponsorshipStatus(tx, consumerAddr, true)
		f.templateID, err = r.CreateTemplate(tx, airnode, endpointID, []byte{1, 2})
		return err
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) request(t *testing.T) common.Hash {
	var requestID common.Hash
	_, err := f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) (err error) {
		requestID, err = f.rrp.MakeTemplateRequest(tx, f.templateID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, []byte{3})
		return err
	})
	require.NoError(t, err)
	return requestID
}

func (f *fixture) fulfillment(t *testing.T, requestID common.Hash, data []byte) Fulfillment {
	sig, err := SignFulfillment(requestID, data, f.airnodeKey)
	require.NoError(t, err)
	return Fulfillment{
		RequestID:         requestID,
		Airnode:           f.airnode,
		FulfillAddress:    f.consumerAd,
		FulfillFunctionID: FulfillSelector,
		Data:              data,
		Signature:         sig,
	}
}

func (f *fixture) fulfill(ful Fulfillment) (FulfillmentOutcome, *ledger.Receipt, error) {
	var outcome FulfillmentOutcome
	rec, err := f.ledger.Execute(sponsorWallet, func(tx *ledger.Tx) (err error) {
		outcome, err = f.rrp.Fulfill(tx, ful)
		return err
	})
	return outcome, rec, err
}

func TestTemplateID(t *testing.T) {
	airnode := common.HexToAddress("0x01")
	expected := crypto.Keccak256Hash(airnode.Bytes(), endpointID.Bytes(), []byte{1, 2})
	require.Equal(t, expected, TemplateID(airnode, endpointID, []byte{1, 2}))
}

func TestTemplateRequestIDMatchesPackedEncoding(t *testing.T) {
	chainID := big.NewInt(31337)
	protocol := common.HexToAddress("0x0a")
	requester := common.HexToAddress("0x0b")
	templateID := common.HexToHash("0x0c")
	fulfillAddress := common.HexToAddress("0x0d")

	expected := crypto.Keccak256Hash(
		common.LeftPadBytes(chainID.Bytes(), 32),
		protocol.Bytes(),
		requester.Bytes(),
		common.LeftPadBytes(big.NewInt(1).Bytes(), 32),
		templateID.Bytes(),
		sponsor.Bytes(),
		sponsorWallet.Bytes(),
		fulfillAddress.Bytes(),
		FulfillSelector[:],
		[]byte{0xff},
	)
	require.Equal(t, expected, TemplateRequestID(chainID, protocol, requester, 1, templateID, sponsor, sponsorWallet, fulfillAddress, FulfillSelector, []byte{0xff}))
	require.NotEqual(t, expected, TemplateRequestID(chainID, protocol, requester, 2, templateID, sponsor, sponsorWallet, fulfillAddress, FulfillSelector, []byte{0xff}))
	require.NotEqual(t, expected, TemplateRequestID(big.NewInt(1), protocol, requester, 1, templateID, sponsor, sponsorWallet, fulfillAddress, FulfillSelector, []byte{0xff}))
}

func TestFulfillSelector(t *testing.T) {
	require.Equal(t, crypto.Keccak256([]byte("fulfill(bytes32,bytes)"))[:4], FulfillSelector[:])
}

func TestCallbackRoundTrip(t *testing.T) {
	input, err := EncodeCallback(common.HexToHash("0x01"), []byte("data"))
	require.NoError(t, err)

	requestID, data, err := DecodeCallback(input)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x01"), requestID)
	require.Equal(t, []byte("data"), data)

	_, _, err = DecodeCallback([]byte{1})
	require.ErrorIs(t, err, ErrCallbackInput)
}

func TestMakeTemplateRequest(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, uint64(0), f.rrp.RequesterRequestCount(f.consumerAd))

	requestID := f.request(t)
	require.True(t, f.rrp.RequestIsAwaitingFulfillment(requestID))
	require.Equal(t, uint64(1), f.rrp.RequesterRequestCount(f.consumerAd))

	req, ok := f.rrp.PendingRequest(requestID)
	require.True(t, ok)
	require.Equal(t, f.airnode, req.Airnode)
	require.Equal(t, uint64(1), req.Nonce)

	expected := TemplateRequestID(f.ledger.ChainID(), f.rrp.Address(), f.consumerAd, 1, f.templateID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, []byte{3})
	require.Equal(t, expected, requestID)

	second := f.request(t)
	require.NotEqual(t, requestID, second)
	require.Equal(t, uint64(2), f.rrp.RequesterRequestCount(f.consumerAd))
}

func TestNoncesDoNotRepeatWithinOneTransaction(t *testing.T) {
	f := newFixture(t)

	ids := map[common.Hash]struct{}{}
	_, err := f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) error {
		for i := 0; i < 5; i++ {
			id, err := f.rrp.MakeTemplateRequest(tx, f.templateID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, []byte{3})
			if err != nil {
				return err
			}
			ids[id] = struct{}{}
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ids, 5)
	require.Equal(t, uint64(5), f.rrp.RequesterRequestCount(f.consumerAd))
}

func TestRequestChecks(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Execute(stranger, func(tx *ledger.Tx) error {
		_, err := f.rrp.MakeTemplateRequest(tx, f.templateID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, nil)
		return err
	})
	require.ErrorIs(t, err, ErrRequesterNotSponsored)
	require.Equal(t, uint64(0), f.rrp.RequesterRequestCount(stranger))

	_, err = f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) error {
		_, err := f.rrp.MakeTemplateRequest(tx, common.HexToHash("0x99"), sponsor, sponsorWallet, f.consumerAd, FulfillSelector, nil)
		return err
	})
	require.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) error {
		_, err := f.rrp.MakeTemplateRequest(tx, f.templateID, sponsor, sponsorWallet, f.rrp.Address(), FulfillSelector, nil)
		return err
	})
	require.ErrorIs(t, err, ErrFulfillAddressIsProtocol)

	_, err = f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) error {
		_, err := f.rrp.MakeFullRequest(tx, common.Address{}, endpointID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, nil)
		return err
	})
	require.ErrorIs(t, err, ErrZeroAirnode)
}

func TestFulfill(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)

	outcome, rec, err := f.fulfill(f.fulfillment(t, requestID, []byte("response")))
	require.NoError(t, err)
	require.True(t, outcome.CallSuccess)
	require.False(t, f.rrp.RequestIsAwaitingFulfillment(requestID))
	require.Equal(t, []consumerCall{{Caller: f.rrp.Address(), RequestID: requestID, Data: []byte("response")}}, f.consumer.calls)
	require.Equal(t, FulfilledRequest{Airnode: f.airnode, RequestID: requestID, Data: []byte("response")}, rec.Logs[0].Event)
}

func TestFulfillTwiceFailsWithUnknownRequest(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)
	ful := f.fulfillment(t, requestID, []byte("response"))

	_, _, err := f.fulfill(ful)
	require.NoError(t, err)

	_, _, err = f.fulfill(ful)
	require.ErrorIs(t, err, ErrUnknownRequest)
	require.Len(t, f.consumer.calls, 1)
}

func TestFulfillNeverRequested(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.fulfill(f.fulfillment(t, common.HexToHash("0x1234"), nil))
	require.ErrorIs(t, err, ErrUnknownRequest)
}

func TestFulfillSignatureOverOtherData(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)

	ful := f.fulfillment(t, requestID, []byte("signed"))
	ful.Data = []byte("submitted")

	_, _, err := f.fulfill(ful)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.True(t, f.rrp.RequestIsAwaitingFulfillment(requestID), "rejected fulfillment must not consume the request")
}

func TestFulfillSignedByOtherKey(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)

	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := SignFulfillment(requestID, []byte("x"), otherKey)
	require.NoError(t, err)

	ful := f.fulfillment(t, requestID, []byte("x"))
	ful.Signature = sig
	_, _, err = f.fulfill(ful)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestFulfillWrongParameters(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)
	ful := f.fulfillment(t, requestID, nil)

	_, err := f.ledger.Execute(stranger, func(tx *ledger.Tx) error {
		_, err := f.rrp.Fulfill(tx, ful)
		return err
	})
	require.ErrorIs(t, err, ErrFulfillmentParameters, "only the sponsor wallet fulfils")

	wrong := ful
	wrong.FulfillFunctionID = Selector("other(bytes32,bytes)")
	_, _, err = f.fulfill(wrong)
	require.ErrorIs(t, err, ErrUnknownRequest)
}

func TestFulfillCallbackFailureIsNotAProtocolFailure(t *testing.T) {
	f := newFixture(t)
	f.consumer.reject = true
	requestID := f.request(t)

	outcome, rec, err := f.fulfill(f.fulfillment(t, requestID, []byte("response")))
	require.NoError(t, err)
	require.False(t, outcome.CallSuccess)
	require.ErrorIs(t, outcome.Err, errConsumer)
	require.Equal(t, []byte(errConsumer.Error()), outcome.CallbackError)
	require.False(t, f.rrp.RequestIsAwaitingFulfillment(requestID))
	require.Equal(t, FailedRequest{Airnode: f.airnode, RequestID: requestID, ErrorMessage: callbackFailedMessage}, rec.Logs[0].Event)

	_, ok := f.consumer.state.Lookup(requestID)
	require.False(t, ok, "consumer writes are reverted")
}

func TestFulfillToAddressWithoutCode(t *testing.T) {
	f := newFixture(t)
	var requestID common.Hash
	_, err := f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) (err error) {
		requestID, err = f.rrp.MakeTemplateRequest(tx, f.templateID, sponsor, sponsorWallet, stranger, FulfillSelector, nil)
		return err
	})
	require.NoError(t, err)

	ful := f.fulfillment(t, requestID, []byte("response"))
	ful.FulfillAddress = stranger
	outcome, rec, err := f.fulfill(ful)
	require.NoError(t, err)
	require.True(t, outcome.CallSuccess)
	require.Equal(t, FulfilledRequest{Airnode: f.airnode, RequestID: requestID, Data: []byte("response")}, rec.Logs[0].Event)
	require.False(t, f.rrp.RequestIsAwaitingFulfillment(requestID))
}

func TestDryRunFulfill(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)
	ful := f.fulfillment(t, requestID, []byte("response"))

	outcome, err := f.rrp.DryRunFulfill(sponsorWallet, ful)
	require.NoError(t, err)
	require.True(t, outcome.CallSuccess)
	require.True(t, f.rrp.RequestIsAwaitingFulfillment(requestID))
	_, ok := f.consumer.state.Lookup(requestID)
	require.False(t, ok)

	f.consumer.reject = true
	outcome, err = f.rrp.DryRunFulfill(sponsorWallet, ful)
	require.NoError(t, err)
	require.False(t, outcome.CallSuccess)

	_, err = f.rrp.DryRunFulfill(stranger, ful)
	require.ErrorIs(t, err, ErrUnknownRequest)
}

func TestFail(t *testing.T) {
	f := newFixture(t)
	requestID := f.request(t)

	rec, err := f.ledger.Execute(sponsorWallet, func(tx *ledger.Tx) error {
		return f.rrp.Fail(tx, requestID, f.airnode, f.consumerAd, FulfillSelector, "api down")
	})
	require.NoError(t, err)
	require.Equal(t, FailedRequest{Airnode: f.airnode, RequestID: requestID, ErrorMessage: "api down"}, rec.Logs[0].Event)

	_, _, err = f.fulfill(f.fulfillment(t, requestID, nil))
	require.ErrorIs(t, err, ErrUnknownRequest)
}

func TestMakeFullRequest(t *testing.T) {
	f := newFixture(t)

	var requestID common.Hash
	_, err := f.ledger.Execute(f.consumerAd, func(tx *ledger.Tx) (err error) {
		requestID, err = f.rrp.MakeFullRequest(tx, f.airnode, endpointID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, []byte{7})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, FullRequestID(f.ledger.ChainID(), f.rrp.Address(), f.consumerAd, 1, f.airnode, endpointID, sponsor, sponsorWallet, f.consumerAd, FulfillSelector, []byte{7}), requestID)

	outcome, _, err := f.fulfill(f.fulfillment(t, requestID, []byte("ok")))
	require.NoError(t, err)
	require.True(t, outcome.CallSuccess)
}

type staticAuthorizer bool

func (a staticAuthorizer) IsAuthorizedRequest(tx *ledger.Tx, requestID common.Hash, airnode common.Address, endpointID common.Hash, sponsor common.Address, requester common.Address) bool {
	return bool(a)
}

func TestCheckAuthorizationStatus(t *testing.T) {
	f := newFixture(t)

	err := f.ledger.View(func(tx *ledger.Tx) error {
		require.True(t, f.rrp.CheckAuthorizationStatus(tx, nil, common.Hash{}, f.airnode, endpointID, sponsor, stranger))
		require.False(t, f.rrp.CheckAuthorizationStatus(tx, []RequestAuthorizer{staticAuthorizer(false)}, common.Hash{}, f.airnode, endpointID, sponsor, stranger))
		require.True(t, f.rrp.CheckAuthorizationStatus(tx, []RequestAuthorizer{staticAuthorizer(false), staticAuthorizer(true)}, common.Hash{}, f.airnode, endpointID, sponsor, stranger))
		return nil
	})
	require.NoError(t, err)
}
