package attendance

import "errors"

var (
	ErrInvalidStatus       = errors.New("invalid attendance status")
	ErrUnknownShift        = errors.New("unknown shift")
	ErrInvalidShiftTable   = errors.New("invalid shift table")
	ErrInvalidWindowPolicy = errors.New("invalid window policy")

	ErrRecordIndexUnavailable = errors.New("attendance register could not be read")
)
