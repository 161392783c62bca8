package registry

import (
	"fmt"
)

// RegistryType defines the type of container registry
type RegistryType string

const (
	RegistryTypeACR RegistryType = "acr"
)

// ClientFactory creates registry clients based on configuration
type ClientFactory struct {
	credentials CredentialSource
}

// NewClientFactory creates a new registry client factory
func NewClientFactory(credentials CredentialSource) *ClientFactory {
	return &ClientFactory{credentials: credentials}
}

// CreateClient creates a registry client based on configuration
func (f *ClientFactory) CreateClient(config Config) (Client, error) {
	registryType := RegistryType(config.Type)

	switch registryType {
	case RegistryTypeACR, "":
		return NewACRClient(config, f.credentials)
	default:
		return nil, ErrUnknownRegistry{Type: registryType}
	}
}

// ErrUnknownRegistry is returned when an unknown registry type is requested
type ErrUnknownRegistry struct {
	Type RegistryType
}

func (e ErrUnknownRegistry) Error() string {
	return "unknown registry type: " + string(e.Type)
}

// ErrAuthenticationFailed is returned when registry authentication fails
type ErrAuthenticationFailed struct {
	Registry string
	Err      error
}

func (e ErrAuthenticationFailed) Error() string {
	return fmt.Sprintf("authentication failed for registry %s: %v", e.Registry, e.Err)
}

func (e ErrAuthenticationFailed) Unwrap() error {
	return e.Err
}

// ErrPushFailed is returned when image push fails
type ErrPushFailed struct {
	ImageTag string
	Err      error
}

func (e ErrPushFailed) Error() string {
	return fmt.Sprintf("failed to push image %s: %v", e.ImageTag, e.Err)
}

func (e ErrPushFailed) Unwrap() error {
	return e.Err
}
