package domain

import "errors"

// Error taxonomy shared by all modules. Package-level sentinels wrap one of
// these so transport code can map them without knowing every module.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)
