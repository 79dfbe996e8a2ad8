package accesscontrol

import "errors"

var (
	ErrZeroManagerAddress  = errors.New("manager address zero")
	ErrEmptyDescription    = errors.New("role description empty")
	ErrNotAdmin            = errors.New("sender lacks admin role")
	ErrCannotRenounceOther = errors.New("can only renounce roles for self")
	ErrCannotRenounceRoot  = errors.New("role is root")
	ErrBatchStep           = errors.New("batch step failed")
)
