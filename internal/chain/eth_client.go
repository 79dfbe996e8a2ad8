package chain

import (
	"context"
	"errors"
	"math/big"
	"net/url"

	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/ethclient"
)

var ErrChainID = errors.New("cannot get chain id")

type EthClient struct {
	// config
	url string

	// state
	*ethclient.Client
	supportsSubscriptions bool
}

func DialContext(ctx context.Context, urlString string) (*EthClient, error) {
	u, err := url.Parse(urlString)
	if err != nil {
		return nil, err
	}

	isWS := u.Scheme == "ws" || u.Scheme == "wss"

	client, err := ethclient.DialContext(ctx, urlString)
	if err != nil {
		return nil, err
	}
	return &EthClient{
		Client:                client,
		url:                   urlString,
		supportsSubscriptions: isWS,
	}, nil
}

func (c *EthClient) SupportsSubscriptions() bool {
	return c.supportsSubscriptions
}

type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ResolveChainID asks the node for its chain id. Without a node the configured id is used
func ResolveChainID(ctx context.Context, node ChainIDReader, configured uint64, log interfaces.ILogger) (*big.Int, error) {
	if node == nil {
		log.Infof("no eth node configured, using chain id %d", configured)
		return new(big.Int).SetUint64(configured), nil
	}

	id, err := node.ChainID(ctx)
	if err != nil {
		return nil, lib.WrapError(ErrChainID, err)
	}
	if configured != 0 && id.Cmp(new(big.Int).SetUint64(configured)) != 0 {
		log.Warnf("configured chain id %d differs from node chain id %s, using the node's", configured, id)
	}
	return id, nil
}
