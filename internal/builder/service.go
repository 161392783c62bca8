package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/alvesdmateus/appsvc-deployer/internal/builder/registry"
	"github.com/alvesdmateus/appsvc-deployer/internal/builder/strategies"
)

// ErrBuildTimeout is returned when a build exceeds the configured timeout
var ErrBuildTimeout = errors.New("build timeout exceeded")

// DefaultBuildTimeout is the default maximum time allowed for a build
const DefaultBuildTimeout = 30 * time.Minute

// Service implements BuildService
type Service struct {
	buildStrategy  BuildStrategy
	registryClient RegistryClient
	buildTimeout   time.Duration
	logger         zerolog.Logger
}

// ServiceConfig contains configuration for the build service
type ServiceConfig struct {
	RegistryConfig registry.Config
	StrategyType   strategies.StrategyType
	BuildTimeout   time.Duration
}

// NewService creates a new build service backed by the local Docker daemon
func NewService(config ServiceConfig, credentials registry.CredentialSource, logger zerolog.Logger) (*Service, error) {
	strategy, err := strategies.NewStrategyFactory().CreateStrategy(config.StrategyType)
	if err != nil {
		return nil, fmt.Errorf("failed to create build strategy: %w", err)
	}

	registryClient, err := registry.NewClientFactory(credentials).CreateClient(config.RegistryConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}

	return NewServiceWith(strategy, registryClient, config.BuildTimeout, logger), nil
}

// NewServiceWith creates a build service from existing components
func NewServiceWith(strategy BuildStrategy, registryClient RegistryClient, buildTimeout time.Duration, logger zerolog.Logger) *Service {
	if buildTimeout <= 0 {
		buildTimeout = DefaultBuildTimeout
	}

	return &Service{
		buildStrategy:  strategy,
		registryClient: registryClient,
		buildTimeout:   buildTimeout,
		logger:         logger.With().Str("component", "builder").Logger(),
	}
}

// BuildImage orchestrates the build:
// 1. Fetch registry credentials
// 2. Build container image
// 3. Tag image for registry
// 4. Push to registry
func (s *Service) BuildImage(ctx context.Context, buildCtx *BuildContext) (image *Image, err error) {
	s.logger.Info().
		Str("image", buildCtx.ImageName).
		Str("source", buildCtx.SourcePath).
		Dur("timeout", s.buildTimeout).
		Msg("Starting container image build")

	ctx, cancel := context.WithTimeout(ctx, s.buildTimeout)
	defer cancel()

	defer func() {
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error().
				Str("image", buildCtx.ImageName).
				Dur("timeout", s.buildTimeout).
				Msg("Build timeout exceeded")
			err = fmt.Errorf("%w: build exceeded maximum duration of %v", ErrBuildTimeout, s.buildTimeout)
		}
	}()

	// Credentials first so a registry without admin access fails before a long build
	creds, err := s.registryClient.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("strategy", s.buildStrategy.Name()).
		Msg("Building container image")

	result, err := s.buildStrategy.Build(ctx, buildCtx)
	if err != nil {
		if result != nil && result.BuildLog != "" {
			s.logger.Debug().Str("log", result.BuildLog).Msg("Build log")
		}
		return nil, fmt.Errorf("build failed: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("build unsuccessful: %v", result.Error)
	}

	registryTag := s.registryClient.GetImageTag(buildCtx.ImageName)

	s.logger.Info().
		Str("sourceTag", result.ImageTag).
		Str("registryTag", registryTag).
		Msg("Tagging image for registry")

	if err := s.buildStrategy.Tag(ctx, result.ImageTag, registryTag); err != nil {
		return nil, err
	}

	if err := s.registryClient.Push(ctx, registryTag); err != nil {
		return nil, fmt.Errorf("failed to push image to registry: %w", err)
	}

	s.logger.Info().
		Str("imageTag", registryTag).
		Dur("duration", result.BuildDuration).
		Msg("Container image build completed successfully")

	return &Image{
		Name:      buildCtx.ImageName,
		Reference: registryTag,
		Digest:    result.ImageDigest,
		Registry:  *creds,
		Build:     result,
	}, nil
}

// VerifyRegistryAccess verifies access to the container registry
func (s *Service) VerifyRegistryAccess(ctx context.Context) error {
	if err := s.registryClient.VerifyAccess(ctx); err != nil {
		return fmt.Errorf("registry access verification failed: %w", err)
	}
	return nil
}

// Close cleans up resources
func (s *Service) Close() error {
	if closer, ok := s.registryClient.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close registry client")
		}
	}

	if closer, ok := s.buildStrategy.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close build strategy")
		}
	}

	return nil
}
