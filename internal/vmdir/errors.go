package vmdir

import "errors"

// Error taxonomy shared by the store, the create workflow and the CLI.
// Callers match with errors.Is; messages carry the detail.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrSerialization = errors.New("serialization error")
	ErrIO            = errors.New("io error")
)
