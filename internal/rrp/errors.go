package rrp

import "errors"

var (
	ErrZeroAirnode              = errors.New("airnode address zero")
	ErrTemplateNotFound         = errors.New("template does not exist")
	ErrRequesterNotSponsored    = errors.New("requester not sponsored")
	ErrFulfillAddressIsProtocol = errors.New("fulfill address is the protocol")
	ErrUnknownRequest           = errors.New("unknown request")
	ErrFulfillmentParameters    = errors.New("invalid fulfillment parameters")
	ErrInvalidSignature         = errors.New("invalid signature")
	ErrCallbackInput            = errors.New("invalid callback input")
)
