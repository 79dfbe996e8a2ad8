package beacon

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNonPositivePrice = errors.New("price not positive")

// Feed reads a beacon as a price, reading as reader
type Feed struct {
	server   *Server
	beaconID common.Hash
	reader   common.Address
}

func NewFeed(server *Server, beaconID common.Hash, reader common.Address) *Feed {
	return &Feed{server: server, beaconID: beaconID, reader: reader}
}

func (f *Feed) Price(now uint64) (*big.Int, error) {
	b, err := f.server.ReadBeacon(f.reader, f.beaconID, now)
	if err != nil {
		return nil, err
	}
	if b.Value.Sign() <= 0 {
		return nil, lib.WrapError(ErrNonPositivePrice, fmt.Errorf("beacon %s", f.beaconID.Hex()))
	}
	return b.Value, nil
}
