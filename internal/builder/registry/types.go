package registry

import "context"

// Config contains registry-specific configuration
type Config struct {
	Type          string // acr
	Name          string // registry name, e.g. myregistry
	ResourceGroup string // resource group of the registry
	Domain        string // login server domain, e.g. azurecr.io
}

// Credentials are the login credentials of a registry
type Credentials struct {
	Server   string
	Username string
	Password string
}

// Client handles container registry operations
type Client interface {
	// Push pushes an image to the registry
	Push(ctx context.Context, imageTag string) error

	// GetImageTag generates a full image tag for the registry
	// Format: registry.host/image:tag
	GetImageTag(imageName string) string

	// Authenticate fetches the registry credentials
	Authenticate(ctx context.Context) (*Credentials, error)

	// VerifyAccess verifies registry access and permissions
	VerifyAccess(ctx context.Context) error
}
