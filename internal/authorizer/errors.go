package authorizer

import "errors"

var (
	ErrZeroAirnode              = errors.New("airnode address zero")
	ErrZeroAddress              = errors.New("requester address zero")
	ErrNotExtender              = errors.New("cannot extend expiration")
	ErrNotSetter                = errors.New("cannot set expiration")
	ErrNotIndefiniteWhitelister = errors.New("cannot set indefinite status")
	ErrSetterStillPrivileged    = errors.New("setter can set indefinite status")
)
