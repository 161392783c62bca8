package scm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnparseable is returned when the deployment status endpoint answers with
// something that is not a JSON status object
var ErrUnparseable = errors.New("unparseable deployment status")

// StatusError is returned when the SCM site answers with an unexpected HTTP status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// Unauthorized reports whether the site rejected the publishing credentials
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// StatusCode is the numeric state of an asynchronous deployment
type StatusCode int

const (
	StatusPending   StatusCode = 0
	StatusBuilding  StatusCode = 1
	StatusDeploying StatusCode = 2
	StatusSucceeded StatusCode = 4
	StatusFailed    StatusCode = 5
)

func (s StatusCode) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusBuilding:
		return "building"
	case StatusDeploying:
		return "deploying"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether no further progress is expected
func (s StatusCode) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// DeploymentStatus is the payload of the latest-deployment endpoint.
// A missing status field decodes as pending.
type DeploymentStatus struct {
	ID         string     `json:"id"`
	Status     StatusCode `json:"status"`
	StatusText string     `json:"status_text"`
	Progress   *string    `json:"progress,omitempty"`
	Message    string     `json:"message,omitempty"`
	Author     string     `json:"author,omitempty"`
	Complete   bool       `json:"complete"`
	StartTime  string     `json:"start_time,omitempty"`
	EndTime    string     `json:"end_time,omitempty"`
}

// ParseDeploymentStatus validates and decodes a status body
func ParseDeploymentStatus(body []byte) (*DeploymentStatus, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty body", ErrUnparseable)
	}

	var status DeploymentStatus
	if err := json.Unmarshal(trimmed, &status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	return &status, nil
}
