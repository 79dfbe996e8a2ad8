package beacon

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	ErrTypecast        = errors.New("typecast error")
	ErrInvalidResponse = errors.New("invalid response encoding")
)

var (
	maxInt224 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 223), big.NewInt(1))
	minInt224 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 223))
	maxUint32 = new(big.Int).SetUint64(1<<32 - 1)

	responseArgs = abi.Arguments{
		{Name: "value", Type: mustType("int256")},
		{Name: "timestamp", Type: mustType("uint256")},
	}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// EncodeResponse is what an airnode serving a beacon template returns
func EncodeResponse(value *big.Int, timestamp *big.Int) ([]byte, error) {
	return responseArgs.Pack(value, timestamp)
}

// DecodeResponse narrows abi encoded (int256, uint256) to (int224, uint32),
// values that do not fit fail instead of wrapping
func DecodeResponse(data []byte) (*big.Int, uint32, error) {
	values, err := responseArgs.Unpack(data)
	if err != nil {
		return nil, 0, lib.WrapError(ErrInvalidResponse, err)
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, 0, lib.WrapError(ErrInvalidResponse, fmt.Errorf("value is %T", values[0]))
	}
	timestamp, ok := values[1].(*big.Int)
	if !ok {
		return nil, 0, lib.WrapError(ErrInvalidResponse, fmt.Errorf("timestamp is %T", values[1]))
	}

	if value.Cmp(maxInt224) > 0 || value.Cmp(minInt224) < 0 {
		return nil, 0, lib.WrapError(ErrTypecast, fmt.Errorf("value %s does not fit int224", value))
	}
	if timestamp.Sign() < 0 || timestamp.Cmp(maxUint32) > 0 {
		return nil, 0, lib.WrapError(ErrTypecast, fmt.Errorf("timestamp %s does not fit uint32", timestamp))
	}
	return value, uint32(timestamp.Uint64()), nil
}
