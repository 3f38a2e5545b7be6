package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidImage      = errors.New("invalid image")
	ErrProviderFailure   = errors.New("provider failure")
	ErrUpstream          = errors.New("upstream error")
	ErrMissingCredential = errors.New("missing credential")
)
