package deployer

import (
	"context"
	"errors"
	"time"

	"github.com/alvesdmateus/appsvc-deployer/internal/scm"
)

// ErrDeploymentFailed reports that the remote build finished with a failed status
var ErrDeploymentFailed = errors.New("zip deployment failed")

// Deployer defines the interface for pushing content to a web app
type Deployer interface {
	// Deploy uploads content and waits for the asynchronous deployment to settle
	Deploy(ctx context.Context, req *DeployRequest) (*Result, error)
}

// DeployRequest contains information needed to zip-deploy an application
type DeployRequest struct {
	ResourceGroup string
	AppName       string
	Slot          string

	// Source is a zip archive or a directory that is zipped before upload
	Source string
}

// Target returns the SCM target of the request
func (r *DeployRequest) Target() scm.Target {
	return scm.Target{ResourceGroup: r.ResourceGroup, Name: r.AppName, Slot: r.Slot}
}

// Outcome classifies how a deployment poll ended
type Outcome string

const (
	// OutcomeSucceeded means the remote reported success
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeFailed means the remote reported failure; polling stopped early
	OutcomeFailed Outcome = "failed"

	// OutcomeInconclusive means the retry budget ran out before a terminal status
	OutcomeInconclusive Outcome = "inconclusive"

	// OutcomeUnparseable means the first status response was not a JSON status
	OutcomeUnparseable Outcome = "unparseable"
)

// Result contains the result of a deployment poll. Inconclusive and
// unparseable results are not errors; StatusURL allows a manual check.
type Result struct {
	Outcome   Outcome
	Status    *scm.DeploymentStatus
	StatusURL string
	Attempts  int
	Duration  time.Duration
}

// Err returns ErrDeploymentFailed when the remote reported failure. Other
// outcomes leave the decision to the caller.
func (r *Result) Err() error {
	if r != nil && r.Outcome == OutcomeFailed {
		return ErrDeploymentFailed
	}
	return nil
}

// Succeeded reports whether the deployment finished successfully
func (r *Result) Succeeded() bool {
	return r != nil && r.Outcome == OutcomeSucceeded
}
