package punch

import "errors"

var (
	ErrInvalidDirection  = errors.New("invalid punch direction")
	ErrDeviceUnreachable = errors.New("device unreachable")
)
