package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound                  = errors.New("payment session not found")
	ErrAlreadyExists             = errors.New("payment session already exists")
	ErrInvalidAmount             = errors.New("amount is below the configured minimum")
	ErrInvalidStatus             = errors.New("invalid payment status")
	ErrProviderUnavailable       = errors.New("payment provider unavailable")
	ErrProviderMalformedResponse = errors.New("malformed payment provider response")
	ErrInternal                  = errors.New("internal error")

	// Store-layer errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
