package rrp

import (
	"fmt"

	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// FulfillSignature is the callback signature consumers implement
const FulfillSignature = "fulfill(bytes32,bytes)"

var (
	FulfillSelector = Selector(FulfillSignature)

	callbackArgs = abi.Arguments{
		{Name: "requestId", Type: mustType("bytes32")},
		{Name: "data", Type: mustType("bytes")},
	}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// EncodeCallback abi encodes (bytes32 requestId, bytes data)
func EncodeCallback(requestID common.Hash, data []byte) ([]byte, error) {
	return callbackArgs.Pack([32]byte(requestID), data)
}

func DecodeCallback(input []byte) (common.Hash, []byte, error) {
	values, err := callbackArgs.Unpack(input)
	if err != nil {
		return common.Hash{}, nil, lib.WrapError(ErrCallbackInput, err)
	}
	if len(values) != 2 {
		return common.Hash{}, nil, lib.WrapError(ErrCallbackInput, fmt.Errorf("got %d values", len(values)))
	}
	requestID, ok := values[0].([32]byte)
	if !ok {
		return common.Hash{}, nil, lib.WrapError(ErrCallbackInput, fmt.Errorf("request id is %T", values[0]))
	}
	data, ok := values[1].([]byte)
	if !ok {
		return common.Hash{}, nil, lib.WrapError(ErrCallbackInput, fmt.Errorf("data is %T", values[1]))
	}
	return common.Hash(requestID), data, nil
}
