package httphandlers

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrInvalidParam = errors.New("invalid parameter")

type ErrorResponse struct {
	Error string `json:"error"`
}

type ConfigResponse struct {
	Version string
	Config  interface{}
}

type Resource struct {
	Self string
}

type LogItem struct {
	Index     uint64
	Height    uint64
	Timestamp uint64
	Emitter   common.Address
	Name      string
	Event     interface{}
}

type ReceiptResponse struct {
	Height    uint64
	Timestamp uint64
	Logs      []LogItem
	Result    interface{} `json:",omitempty"`
}

func receiptResponse(rcpt *ledger.Receipt, result interface{}) ReceiptResponse {
	return ReceiptResponse{
		Height:    rcpt.Height,
		Timestamp: rcpt.Timestamp,
		Logs:      logItems(rcpt.Logs),
		Result:    result,
	}
}

func logItems(logs []ledger.Log) []LogItem {
	items := make([]LogItem, len(logs))
	for i, lg := range logs {
		items[i] = LogItem{
			Index:     lg.Index,
			Height:    lg.Height,
			Timestamp: lg.Timestamp,
			Emitter:   lg.Emitter,
			Name:      lg.Event.EventName(),
			Event:     lg.Event,
		}
	}
	return items
}

type InitializeManagerRequest struct {
	Manager string `json:"manager" binding:"required,eth_addr"`
}

type InitializeRoleRequest struct {
	AdminRole   string `json:"adminRole"   binding:"required,hexadecimal,len=66"`
	Description string `json:"description" binding:"required"`
}

type RoleAccountRequest struct {
	Role    string `json:"role"    binding:"required,hexadecimal,len=66"`
	Account string `json:"account" binding:"required,eth_addr"`
}

type BatchRolesRequest struct {
	Inits  []InitializeRoleRequest `json:"inits"  binding:"dive"`
	Grants []RoleAccountRequest    `json:"grants" binding:"dive"`
}

type RoleResponse struct {
	Role string
}

type RoleMembershipResponse struct {
	Role        string
	Account     string
	HasRole     bool
	AdminRole   string
	Description string
}

type WhitelistTarget struct {
	Authorizer string `json:"authorizer" binding:"omitempty,oneof=requesters readers"`
	Airnode    string `json:"airnode"    binding:"omitempty,eth_addr"`
	EndpointID string `json:"endpointId" binding:"required,hexadecimal,len=66"`
	Requester  string `json:"requester"  binding:"required,eth_addr"`
}

type WhitelistExpirationRequest struct {
	WhitelistTarget
	Expiration uint64 `json:"expiration"`
}

type IndefiniteWhitelistRequest struct {
	WhitelistTarget
	Status bool `json:"status"`
}

type RevokeIndefiniteWhitelistRequest struct {
	WhitelistTarget
	Setter string `json:"setter" binding:"required,eth_addr"`
}

type WhitelistStatusResponse struct {
	ExpirationTimestamp      uint64
	IndefiniteWhitelistCount uint64
	IsAuthorized             bool
}

type SponsorshipRequest struct {
	Requester string `json:"requester" binding:"required,eth_addr"`
	Status    bool   `json:"status"`
}

type CreateTemplateRequest struct {
	Airnode    string `json:"airnode"    binding:"required,eth_addr"`
	EndpointID string `json:"endpointId" binding:"required,hexadecimal,len=66"`
	Parameters string `json:"parameters" binding:"omitempty,hexadecimal"`
}

type TemplateResponse struct {
	TemplateID string
	Airnode    common.Address
	EndpointID common.Hash
	Parameters hexutil.Bytes
}

// MakeRequestRequest is a template request when TemplateID is set and a full request otherwise
type MakeRequestRequest struct {
	TemplateID        string `json:"templateId"        binding:"required_without=EndpointID,omitempty,hexadecimal,len=66"`
	Airnode           string `json:"airnode"           binding:"required_with=EndpointID,omitempty,eth_addr"`
	EndpointID        string `json:"endpointId"        binding:"omitempty,hexadecimal,len=66"`
	Sponsor           string `json:"sponsor"           binding:"required,eth_addr"`
	SponsorWallet     string `json:"sponsorWallet"     binding:"required,eth_addr"`
	FulfillAddress    string `json:"fulfillAddress"    binding:"required,eth_addr"`
	FulfillFunctionID string `json:"fulfillFunctionId" binding:"required,hexadecimal,len=10"`
	Parameters        string `json:"parameters"        binding:"omitempty,hexadecimal"`
}

type RequestIDResponse struct {
	RequestID string
}

type PendingRequestResponse struct {
	Resource
	RequestID         string
	Requester         common.Address
	Nonce             uint64
	Airnode           common.Address
	TemplateID        common.Hash
	EndpointID        common.Hash
	Sponsor           common.Address
	SponsorWallet     common.Address
	FulfillAddress    common.Address
	FulfillFunctionID hexutil.Bytes
	Parameters        hexutil.Bytes
}

type FulfillRequest struct {
	Airnode           string `json:"airnode"           binding:"required,eth_addr"`
	FulfillAddress    string `json:"fulfillAddress"    binding:"required,eth_addr"`
	FulfillFunctionID string `json:"fulfillFunctionId" binding:"required,hexadecimal,len=10"`
	Data              string `json:"data"              binding:"omitempty,hexadecimal"`
	Signature         string `json:"signature"         binding:"required,hexadecimal"`
}

type FailRequest struct {
	Airnode           string `json:"airnode"           binding:"required,eth_addr"`
	FulfillAddress    string `json:"fulfillAddress"    binding:"required,eth_addr"`
	FulfillFunctionID string `json:"fulfillFunctionId" binding:"required,hexadecimal,len=10"`
	ErrorMessage      string `json:"errorMessage"`
}

type FulfillmentOutcomeResponse struct {
	CallSuccess   bool
	CallbackError string `json:",omitempty"`
}

type SponsorWalletResponse struct {
	Sponsor        common.Address
	SponsorWallet  common.Address
	DerivationPath string
}

type BeaconUpdateRequest struct {
	TemplateID    string `json:"templateId"    binding:"required,hexadecimal,len=66"`
	Sponsor       string `json:"sponsor"       binding:"required,eth_addr"`
	SponsorWallet string `json:"sponsorWallet" binding:"required,eth_addr"`
}

type BeaconResponse struct {
	BeaconID  string
	Value     string
	Timestamp uint32
}

type TokenAmountRequest struct {
	Account string `json:"account" binding:"required,eth_addr"`
	Amount  string `json:"amount"  binding:"required,number"`
}

type NonceResponse struct {
	Account common.Address
	Nonce   uint64
}

type TokenBalanceResponse struct {
	Token   common.Address
	Symbol  string
	Account common.Address
	Balance string
}

type PaymentRequest struct {
	ChainTag        string `json:"chainTag"        binding:"required"`
	Airnode         string `json:"airnode"         binding:"required,eth_addr"`
	EndpointID      string `json:"endpointId"      binding:"required,hexadecimal,len=66"`
	Requester       string `json:"requester"       binding:"required,eth_addr"`
	DurationSeconds uint64 `json:"durationSeconds" binding:"required"`
}

type QuoteResponse struct {
	Token       common.Address
	Amount      string
	Destination common.Address
	Expiration  uint64
}

func parseAddress(name string, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, lib.WrapError(ErrInvalidParam, fmt.Errorf("%s: %q is not an address", name, s))
	}
	return common.HexToAddress(s), nil
}

func parseHash(name string, s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, lib.WrapError(ErrInvalidParam, fmt.Errorf("%s: %q is not a 32 byte hex string", name, s))
	}
	return common.BytesToHash(b), nil
}

func parseBytes(name string, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, lib.WrapError(ErrInvalidParam, fmt.Errorf("%s: %w", name, err))
	}
	return b, nil
}

func parseSelector(name string, s string) ([4]byte, error) {
	var sel [4]byte
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != len(sel) {
		return sel, lib.WrapError(ErrInvalidParam, fmt.Errorf("%s: %q is not a 4 byte hex string", name, s))
	}
	copy(sel[:], b)
	return sel, nil
}

func parseAmount(name string, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, lib.WrapError(ErrInvalidParam, fmt.Errorf("%s: %q is not a non-negative integer", name, s))
	}
	return v, nil
}

func (h *HTTPHandler) selfLink(path string) string {
	if h.publicUrl == nil {
		return path
	}
	return h.publicUrl.JoinPath(path).String()
}
