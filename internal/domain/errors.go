package domain

import "errors"

var (
	// ErrVisionUnavailable is returned when the vision model cannot be reached or times out
	ErrVisionUnavailable = errors.New("vision model unavailable")

	// ErrMalformedResponse is returned when the model response cannot be decoded
	ErrMalformedResponse = errors.New("malformed vision model response")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrTaxonomyUnavailable is returned when the attribute taxonomy cannot be loaded
	ErrTaxonomyUnavailable = errors.New("attribute taxonomy unavailable")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("record not found")
)
