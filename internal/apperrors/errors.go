package apperrors

import (
	"errors"
)

var (
	ErrProfileNotFound      = errors.New("credit profile not found")
	ErrProfileAlreadyExists = errors.New("credit profile already exists")

	ErrInsufficientCredits = errors.New("insufficient credits")

	ErrJobNotFound     = errors.New("job not found")
	ErrJobNotClaimable = errors.New("job is not in a claimable status")

	ErrOrderNotFound = errors.New("order not found")

	ErrInvalidUserReference = errors.New("payload references unknown or malformed user")
	ErrUnknownPack          = errors.New("unknown credit pack")
)
