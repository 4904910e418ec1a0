package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidConfiguration is returned when weights, thresholds or pricing
	// parameters are rejected at construction time
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMissingIdentity is returned for raw records without a URL
	ErrMissingIdentity = errors.New("record has no url")

	// ErrNoSimilarProducts is returned when no catalog record matched the query
	ErrNoSimilarProducts = errors.New("no similar watches found")

	// ErrNoPriceData is returned when matches exist but none carries a usable price
	ErrNoPriceData = errors.New("no price data available for similar watches")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFeedFailure is returned when a scraper export cannot be fetched
	ErrFeedFailure = errors.New("feed request failed")

	// ErrStoreFailure is returned when the catalog store fails
	ErrStoreFailure = errors.New("catalog store failure")
)
