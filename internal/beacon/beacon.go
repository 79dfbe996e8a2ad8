package beacon

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/authorizer"
	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/Lumerin-protocol/airnode-gate/internal/rrp"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// responses older than this are stale
	maxResponseAge = 60 * 60
	// responses from further in the future than this are rejected
	maxClockSkew = 15 * 60
)

var (
	ErrNotRrp                 = errors.New("sender not rrp")
	ErrUnknownSelector        = errors.New("unknown selector")
	ErrNoSuchRequest          = errors.New("no such request")
	ErrStaleOrFuture          = errors.New("stale or future fulfillment")
	ErrDoesNotUpdateTimestamp = errors.New("does not update timestamp")
	ErrReaderNotWhitelisted   = errors.New("reader not whitelisted")
	ErrBeaconNotInitialized   = errors.New("beacon not initialized")
)

type Beacon struct {
	Value     *big.Int
	Timestamp uint32
}

type UpdatedBeacon struct {
	BeaconID  common.Hash
	RequestID common.Hash
	Value     *big.Int
	Timestamp uint32
}

type RequestedBeaconUpdate struct {
	BeaconID      common.Hash
	Sponsor       common.Address
	Requester     common.Address
	RequestID     common.Hash
	Airnode       common.Address
	TemplateID    common.Hash
	SponsorWallet common.Address
}

func (UpdatedBeacon) EventName() string         { return "UpdatedBeacon" }
func (RequestedBeaconUpdate) EventName() string { return "RequestedBeaconUpdate" }

// ID is keccak256(abi.encodePacked(airnode, templateId))
func ID(airnode common.Address, templateID common.Hash) common.Hash {
	return lib.Packed().Address(airnode).Hash(templateID).Keccak()
}

// Server keeps beacons updated through rrp requests and serves them to whitelisted readers
type Server struct {
	address common.Address
	rrp     *rrp.Rrp
	readers *authorizer.Authorizer

	beacons         *ledger.Map[common.Hash, Beacon]
	requestToBeacon *ledger.Map[common.Hash, common.Hash]

	log interfaces.ILogger
}

// NewServer deploys the server and registers it to receive fulfillments. Readers are whitelisted
// per beacon id through readers, whose resources are (zero airnode, beacon id)
func NewServer(l *ledger.Ledger, deployer common.Address, r *rrp.Rrp, readers *authorizer.Authorizer, log interfaces.ILogger) *Server {
	s := &Server{
		rrp:             r,
		readers:         readers,
		beacons:         ledger.NewMap[common.Hash, Beacon](),
		requestToBeacon: ledger.NewMap[common.Hash, common.Hash](),
		log:             log,
	}
	s.address = l.Deploy(deployer, s)
	return s
}

func (s *Server) Address() common.Address {
	return s.address
}

func ReaderResource(beaconID common.Hash) authorizer.Resource {
	return authorizer.Resource{EndpointID: beaconID}
}

// RequestBeaconUpdate makes a template request with the server as requester, so sponsor must
// have sponsored the server
func (s *Server) RequestBeaconUpdate(tx *ledger.Tx, templateID common.Hash, sponsor common.Address, sponsorWallet common.Address) (common.Hash, error) {
	template, ok := s.rrp.Template(templateID)
	if !ok {
		return common.Hash{}, rrp.ErrTemplateNotFound
	}

	requestID, err := s.rrp.MakeTemplateRequest(tx.CallAs(s.address), templateID, sponsor, sponsorWallet, s.address, rrp.FulfillSelector, nil)
	if err != nil {
		return common.Hash{}, err
	}

	beaconID := ID(template.Airnode, templateID)
	s.requestToBeacon.Set(tx, requestID, beaconID)
	tx.Emit(s.address, RequestedBeaconUpdate{
		BeaconID:      beaconID,
		Sponsor:       sponsor,
		Requester:     tx.Caller(),
		RequestID:     requestID,
		Airnode:       template.Airnode,
		TemplateID:    templateID,
		SponsorWallet: sponsorWallet,
	})
	return requestID, nil
}

// Invoke receives rrp fulfillments
func (s *Server) Invoke(tx *ledger.Tx, selector [4]byte, input []byte) error {
	if tx.Caller() != s.rrp.Address() {
		return ErrNotRrp
	}
	if selector != rrp.FulfillSelector {
		return ErrUnknownSelector
	}
	requestID, data, err := rrp.DecodeCallback(input)
	if err != nil {
		return err
	}
	return s.fulfill(tx, requestID, data)
}

func (s *Server) fulfill(tx *ledger.Tx, requestID common.Hash, data []byte) error {
	beaconID, ok := s.requestToBeacon.Lookup(requestID)
	if !ok {
		return lib.WrapError(ErrNoSuchRequest, fmt.Errorf("%s", requestID.Hex()))
	}
	s.requestToBeacon.Delete(tx, requestID)

	value, timestamp, err := DecodeResponse(data)
	if err != nil {
		return err
	}

	now := tx.Now()
	if uint64(timestamp)+maxResponseAge <= now || uint64(timestamp) > now+maxClockSkew {
		return lib.WrapError(ErrStaleOrFuture, fmt.Errorf("timestamp %d at %d", timestamp, now))
	}
	if timestamp <= s.beacons.Get(beaconID).Timestamp {
		return ErrDoesNotUpdateTimestamp
	}

	s.beacons.Set(tx, beaconID, Beacon{Value: value, Timestamp: timestamp})
	tx.Emit(s.address, UpdatedBeacon{BeaconID: beaconID, RequestID: requestID, Value: value, Timestamp: timestamp})
	s.log.Debugf("beacon %s updated to %s at %d", beaconID.Hex(), value, timestamp)
	return nil
}

// ReadBeacon returns the beacon if reader is whitelisted for it. The zero address is allowed
// to read everything
func (s *Server) ReadBeacon(reader common.Address, beaconID common.Hash, now uint64) (Beacon, error) {
	if !s.ReaderCanReadBeacon(reader, beaconID, now) {
		return Beacon{}, lib.WrapError(ErrReaderNotWhitelisted, fmt.Errorf("%s", reader.Hex()))
	}
	b, ok := s.beacons.Lookup(beaconID)
	if !ok {
		return Beacon{}, ErrBeaconNotInitialized
	}
	return Beacon{Value: new(big.Int).Set(b.Value), Timestamp: b.Timestamp}, nil
}

func (s *Server) ReaderCanReadBeacon(reader common.Address, beaconID common.Hash, now uint64) bool {
	return s.readers.IsAuthorized(ReaderResource(beaconID), reader, now)
}
