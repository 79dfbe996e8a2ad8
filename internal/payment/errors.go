package payment

import "errors"

var (
	ErrZeroAddress                    = errors.New("zero address")
	ErrUnknownChain                   = errors.New("no authorizer for chain")
	ErrInvalidDuration                = errors.New("invalid whitelist duration")
	ErrInvalidPrice                   = errors.New("invalid price")
	ErrInvalidPeriod                  = errors.New("invalid period")
	ErrAlreadyWhitelistedIndefinitely = errors.New("requester already whitelisted indefinitely")
	ErrNotMaintainer                  = errors.New("sender not maintainer or manager")
	ErrNotPriceSetter                 = errors.New("sender not price setter or manager")
	ErrPriceFeed                      = errors.New("token price unavailable")
)
