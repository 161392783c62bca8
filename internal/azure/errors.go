package azure

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoSubscription is returned when no subscription is configured
var ErrNoSubscription = errors.New("no subscription configured")

// APIError represents an error response from the control plane
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control plane request failed with status %d", e.Status)
	}
	if e.Code == "" {
		return fmt.Sprintf("control plane request failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("control plane request failed (%d %s): %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the control plane
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ErrTokenUnavailable is returned when no access token could be obtained
type ErrTokenUnavailable struct {
	Err error
}

func (e ErrTokenUnavailable) Error() string {
	return fmt.Sprintf("access token unavailable: %v", e.Err)
}

func (e ErrTokenUnavailable) Unwrap() error {
	return e.Err
}
