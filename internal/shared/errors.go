package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Source errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNotFound           = fmt.Errorf("not found")
	ErrMalformedResponse  = fmt.Errorf("malformed response")
	ErrRetriesExhausted   = fmt.Errorf("retries exhausted")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Pipeline errors
	ErrAlreadyRunning = fmt.Errorf("another run is already in progress")
	ErrTimeout        = fmt.Errorf("operation timed out")
	ErrAlbumNotFound  = fmt.Errorf("album not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
