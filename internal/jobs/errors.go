package jobs

import "errors"

var (
	ErrInvalidType    = errors.New("invalid mail job type")
	ErrInvalidPayload = errors.New("invalid mail job payload")
)
