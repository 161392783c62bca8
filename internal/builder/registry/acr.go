package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/docker/docker/api/types/image"
	dockerregistry "github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/appsvc-deployer/internal/azure"
)

const defaultDomain = "azurecr.io"

// CredentialSource returns the admin credentials of a registry
type CredentialSource interface {
	ListRegistryCredentials(ctx context.Context, resourceGroup, registry string) (*azure.RegistryCredentials, error)
}

// ImagePusher is the part of the Docker engine API used for pushes
type ImagePusher interface {
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	Close() error
}

// ACRClient implements Client for Azure Container Registry
type ACRClient struct {
	config       Config
	credentials  CredentialSource
	dockerClient ImagePusher

	mu    sync.Mutex
	creds *Credentials
}

// NewACRClient creates a new Azure Container Registry client
func NewACRClient(config Config, credentials CredentialSource) (*ACRClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return NewACRClientWithPusher(config, credentials, cli)
}

// NewACRClientWithPusher creates a registry client on an existing Docker client
func NewACRClientWithPusher(config Config, credentials CredentialSource, pusher ImagePusher) (*ACRClient, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("registry name is required")
	}
	if config.Domain == "" {
		config.Domain = defaultDomain
	}

	return &ACRClient{
		config:       config,
		credentials:  credentials,
		dockerClient: pusher,
	}, nil
}

// LoginServer returns the registry host, e.g. myregistry.azurecr.io
func (c *ACRClient) LoginServer() string {
	return fmt.Sprintf("%s.%s", strings.ToLower(c.config.Name), c.config.Domain)
}

// GetImageTag generates a full image tag for the registry
func (c *ACRClient) GetImageTag(imageName string) string {
	return c.LoginServer() + "/" + imageName
}

// Authenticate fetches the admin credentials of the registry. They are cached
// for the lifetime of the client.
func (c *ACRClient) Authenticate(ctx context.Context) (*Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.creds != nil {
		return c.creds, nil
	}

	log.Debug().
		Str("registry", c.config.Name).
		Str("resourceGroup", c.config.ResourceGroup).
		Msg("Fetching registry credentials")

	creds, err := c.credentials.ListRegistryCredentials(ctx, c.config.ResourceGroup, c.config.Name)
	if err != nil {
		return nil, ErrAuthenticationFailed{Registry: c.LoginServer(), Err: err}
	}

	if creds.Username == "" || creds.Password() == "" {
		return nil, ErrAuthenticationFailed{
			Registry: c.LoginServer(),
			Err:      fmt.Errorf("admin user is not enabled"),
		}
	}

	c.creds = &Credentials{
		Server:   c.LoginServer(),
		Username: creds.Username,
		Password: creds.Password(),
	}
	return c.creds, nil
}

// VerifyAccess verifies the registry credentials can be fetched
func (c *ACRClient) VerifyAccess(ctx context.Context) error {
	if _, err := c.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}

// Push pushes an image to the registry
func (c *ACRClient) Push(ctx context.Context, imageTag string) error {
	log.Info().Str("imageTag", imageTag).Msg("Pushing image to container registry")

	creds, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	encodedAuth, err := dockerregistry.EncodeAuthConfig(dockerregistry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Password,
		ServerAddress: creds.Server,
	})
	if err != nil {
		return fmt.Errorf("failed to encode auth config: %w", err)
	}

	pushResponse, err := c.dockerClient.ImagePush(ctx, imageTag, image.PushOptions{
		RegistryAuth: encodedAuth,
	})
	if err != nil {
		return ErrPushFailed{ImageTag: imageTag, Err: err}
	}
	defer pushResponse.Close()

	if err := streamPushOutput(ctx, pushResponse); err != nil {
		return ErrPushFailed{ImageTag: imageTag, Err: err}
	}

	log.Info().Str("imageTag", imageTag).Msg("Image pushed successfully")
	return nil
}

// Close closes the Docker client connection
func (c *ACRClient) Close() error {
	if c.dockerClient != nil {
		return c.dockerClient.Close()
	}
	return nil
}

// streamPushOutput drains the push progress stream and surfaces errors
func streamPushOutput(ctx context.Context, reader io.Reader) error {
	decoder := json.NewDecoder(reader)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var msg struct {
			Status   string `json:"status"`
			Progress string `json:"progress"`
			Error    string `json:"error"`
		}

		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to decode push output: %w", err)
		}

		if msg.Error != "" {
			return fmt.Errorf("push error: %s", msg.Error)
		}

		if msg.Status != "" {
			log.Debug().Str("status", msg.Status).Str("progress", msg.Progress).Msg("Push progress")
		}
	}
}
