package domain

import "errors"

var (
	// ErrInvalidConfig is returned when static optimizer configuration is structurally invalid
	ErrInvalidConfig = errors.New("invalid optimizer configuration")

	// ErrMalformedProduct is returned when a feed record is not a JSON object
	ErrMalformedProduct = errors.New("malformed product record")

	// ErrMissingIdentifier is returned when a feed record has no identifier
	ErrMissingIdentifier = errors.New("product identifier is missing")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRunNotFound is returned when an optimization run is unknown or expired
	ErrRunNotFound = errors.New("optimization run not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFeedProviderFailure is returned when fetching products from a feed provider fails
	ErrFeedProviderFailure = errors.New("feed provider request failed")

	// ErrFeedPublishFailure is returned when pushing products to the feed publisher fails
	ErrFeedPublishFailure = errors.New("feed publish request failed")

	// ErrProviderNotConfigured is returned when a feed operation needs a provider that is not set up
	ErrProviderNotConfigured = errors.New("feed provider not configured")

	// ErrSuggestionFailure is returned when the title suggester cannot produce a title
	ErrSuggestionFailure = errors.New("title suggestion failed")
)
