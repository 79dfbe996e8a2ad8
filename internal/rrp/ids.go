package rrp

import (
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TemplateID is keccak256(abi.encodePacked(airnode, endpointId, parameters))
func TemplateID(airnode common.Address, endpointID common.Hash, parameters []byte) common.Hash {
	return lib.Packed().Address(airnode).Hash(endpointID).Bytes(parameters).Keccak()
}

// TemplateRequestID is keccak256(abi.encodePacked(chainId, rrp, requester, requesterRequestCount,
// templateId, sponsor, sponsorWallet, fulfillAddress, fulfillFunctionId, parameters))
func TemplateRequestID(chainID *big.Int, rrp common.Address, requester common.Address, nonce uint64, templateID common.Hash, sponsor common.Address, sponsorWallet common.Address, fulfillAddress common.Address, fulfillFunctionID [4]byte, parameters []byte) common.Hash {
	return lib.Packed().
		Uint256(chainID).
		Address(rrp).
		Address(requester).
		Uint64(nonce).
		Hash(templateID).
		Address(sponsor).
		Address(sponsorWallet).
		Address(fulfillAddress).
		Bytes4(fulfillFunctionID).
		Bytes(parameters).
		Keccak()
}

// FullRequestID is like TemplateRequestID with airnode and endpointId in place of templateId
func FullRequestID(chainID *big.Int, rrp common.Address, requester common.Address, nonce uint64, airnode common.Address, endpointID common.Hash, sponsor common.Address, sponsorWallet common.Address, fulfillAddress common.Address, fulfillFunctionID [4]byte, parameters []byte) common.Hash {
	return lib.Packed().
		Uint256(chainID).
		Address(rrp).
		Address(requester).
		Uint64(nonce).
		Address(airnode).
		Hash(endpointID).
		Address(sponsor).
		Address(sponsorWallet).
		Address(fulfillAddress).
		Bytes4(fulfillFunctionID).
		Bytes(parameters).
		Keccak()
}

// FulfillmentHash is the hash an airnode signs: keccak256(abi.encodePacked(requestId, data))
func FulfillmentHash(requestID common.Hash, data []byte) common.Hash {
	return lib.Packed().Hash(requestID).Bytes(data).Keccak()
}

// Selector returns the first four bytes of keccak256 of a function signature
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}
