package builder

import (
	"context"

	"github.com/alvesdmateus/appsvc-deployer/internal/builder/buildtypes"
	"github.com/alvesdmateus/appsvc-deployer/internal/builder/registry"
	"github.com/alvesdmateus/appsvc-deployer/internal/builder/strategies"
)

// BuildContext is an alias for buildtypes.BuildContext
type BuildContext = buildtypes.BuildContext

// BuildResult is an alias for buildtypes.BuildResult
type BuildResult = buildtypes.BuildResult

// BuildStrategy is an alias for strategies.Strategy
type BuildStrategy = strategies.Strategy

// RegistryClient is an alias for registry.Client
type RegistryClient = registry.Client

// BuildService builds container images and publishes them to a registry
type BuildService interface {
	// BuildImage builds, tags and pushes a container image
	BuildImage(ctx context.Context, buildCtx *BuildContext) (*Image, error)
}

// Image is a container image published to a registry
type Image struct {
	// Name is the repository:tag without registry host
	Name string

	// Reference is the full registry reference
	Reference string

	Digest   string
	Registry registry.Credentials
	Build    *BuildResult
}
