package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidImage    = errors.New("invalid image data")
	ErrProviderFailure = errors.New("provider failure")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrJobTimeout      = errors.New("generation job timed out")
)
