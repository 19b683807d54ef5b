package domain

import "errors"

var (
	// ErrStoreUnavailable is returned when the data source is missing or corrupt.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidAggregateInput is returned when the aggregator receives values
	// a well-formed store can never produce.
	ErrInvalidAggregateInput = errors.New("invalid aggregate input")

	// ErrPersistFailure is returned when the report artifact cannot be written.
	ErrPersistFailure = errors.New("persist failure")
)
