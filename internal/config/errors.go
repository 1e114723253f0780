// Package config provides configuration types and defaults for flashbang.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrMissingVideo indicates no input video path was configured.
	ErrMissingVideo = errors.New("video path is required")

	// ErrInvalidLatitude indicates a latitude outside -90..90.
	ErrInvalidLatitude = errors.New("latitude out of range")

	// ErrInvalidLongitude indicates a longitude outside -180..180.
	ErrInvalidLongitude = errors.New("longitude out of range")

	// ErrMissingOutputDir indicates an empty output directory.
	ErrMissingOutputDir = errors.New("output directory is required")

	// ErrInvalidTimeout indicates a non-positive weather timeout.
	ErrInvalidTimeout = errors.New("weather timeout must be positive")

	// ErrInvalidRetries indicates a weather retry count outside 0..10.
	ErrInvalidRetries = errors.New("weather retries out of range")

	// ErrInvalidEndpoint indicates a malformed weather API URL.
	ErrInvalidEndpoint = errors.New("invalid weather endpoint URL")
)
