package strategies

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/appsvc-deployer/internal/builder/buildtypes"
)

const defaultDockerfile = "Dockerfile"

// DockerAPI is the part of the Docker engine API used for builds
type DockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	Close() error
}

// DockerStrategy implements Strategy using the local Docker daemon
type DockerStrategy struct {
	client DockerAPI
}

// NewDockerStrategy creates a new Docker build strategy
func NewDockerStrategy() (*DockerStrategy, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return NewDockerStrategyWithClient(cli), nil
}

// NewDockerStrategyWithClient creates a Docker build strategy on an existing client
func NewDockerStrategyWithClient(api DockerAPI) *DockerStrategy {
	return &DockerStrategy{client: api}
}

// Name returns the strategy name
func (s *DockerStrategy) Name() string {
	return string(StrategyTypeDocker)
}

// Build builds a container image from the Dockerfile in the source directory
func (s *DockerStrategy) Build(ctx context.Context, buildCtx *buildtypes.BuildContext) (*buildtypes.BuildResult, error) {
	startTime := time.Now()
	result := &buildtypes.BuildResult{
		Success: false,
	}

	if err := s.verifyDockerAccess(ctx); err != nil {
		result.Error = fmt.Errorf("docker not accessible: %w", err)
		return result, result.Error
	}

	dockerfile := buildCtx.Dockerfile
	if dockerfile == "" {
		dockerfile = defaultDockerfile
	}

	if _, err := os.Stat(filepath.Join(buildCtx.SourcePath, dockerfile)); err != nil {
		result.Error = fmt.Errorf("no %s found in %s: %w", dockerfile, buildCtx.SourcePath, err)
		return result, result.Error
	}

	log.Info().
		Str("imageTag", buildCtx.ImageName).
		Str("source", buildCtx.SourcePath).
		Msg("Building Docker image")

	buildContextTar, err := createBuildContext(buildCtx.SourcePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to create build context: %w", err)
		return result, result.Error
	}
	defer buildContextTar.Close()

	buildOptions := build.ImageBuildOptions{
		Tags:        []string{buildCtx.ImageName},
		Dockerfile:  filepath.ToSlash(dockerfile),
		Remove:      true,
		ForceRemove: true,
		PullParent:  true,
		Labels:      buildCtx.Labels,
	}

	buildResponse, err := s.client.ImageBuild(ctx, buildContextTar, buildOptions)
	if err != nil {
		result.Error = fmt.Errorf("docker build failed: %w", err)
		return result, result.Error
	}
	defer buildResponse.Body.Close()

	var buildLog strings.Builder
	digest, err := streamBuildOutput(ctx, buildResponse.Body, &buildLog)
	result.BuildLog = buildLog.String()
	if err != nil {
		result.Error = fmt.Errorf("failed to stream build output: %w", err)
		return result, result.Error
	}

	result.Success = true
	result.ImageTag = buildCtx.ImageName
	result.ImageDigest = digest
	result.BuildDuration = time.Since(startTime)

	log.Info().
		Str("imageTag", result.ImageTag).
		Str("digest", result.ImageDigest).
		Dur("duration", result.BuildDuration).
		Msg("Docker build completed successfully")

	return result, nil
}

// Tag tags an existing image with a new tag
func (s *DockerStrategy) Tag(ctx context.Context, sourceTag, targetTag string) error {
	log.Debug().
		Str("source", sourceTag).
		Str("target", targetTag).
		Msg("Tagging Docker image")

	if err := s.client.ImageTag(ctx, sourceTag, targetTag); err != nil {
		return fmt.Errorf("failed to tag image: %w", err)
	}

	return nil
}

// Close closes the Docker client connection
func (s *DockerStrategy) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// verifyDockerAccess checks if Docker daemon is accessible
func (s *DockerStrategy) verifyDockerAccess(ctx context.Context) error {
	if _, err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon not accessible: %w", err)
	}
	return nil
}

// excludedContext are never sent to the daemon
var excludedContext = map[string]bool{
	".git":         true,
	".github":      true,
	"node_modules": true,
	".env":         true,
}

// createBuildContext creates a tar archive of the build context
func createBuildContext(sourcePath string) (io.ReadCloser, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)

	err := filepath.Walk(sourcePath, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourcePath, file)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if excludedContext[fi.Name()] {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(relPath, ".log") || (!fi.Mode().IsRegular() && !fi.IsDir()) {
			return nil
		}

		header, err := tar.FileInfoHeader(fi, fi.Name())
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if !fi.IsDir() {
			data, err := os.Open(file)
			if err != nil {
				return err
			}
			defer data.Close()

			if _, err := io.Copy(tw, data); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tar archive: %w", err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar archive: %w", err)
	}

	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// streamBuildOutput collects the build log and returns the built image ID
func streamBuildOutput(ctx context.Context, reader io.Reader, buildLog *strings.Builder) (string, error) {
	decoder := json.NewDecoder(reader)
	imageID := ""

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var msg struct {
			Stream      string `json:"stream"`
			Error       string `json:"error"`
			ErrorDetail struct {
				Message string `json:"message"`
			} `json:"errorDetail"`
			Aux struct {
				ID string `json:"ID"`
			} `json:"aux"`
		}

		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				return imageID, nil
			}
			return "", fmt.Errorf("failed to decode build output: %w", err)
		}

		if msg.Error != "" {
			buildLog.WriteString(msg.Error)
			detail := msg.ErrorDetail.Message
			if detail == "" {
				detail = msg.Error
			}
			return "", fmt.Errorf("build error: %s", detail)
		}

		if msg.Aux.ID != "" {
			imageID = msg.Aux.ID
		}

		if msg.Stream != "" {
			buildLog.WriteString(msg.Stream)
			log.Debug().Str("output", strings.TrimSpace(msg.Stream)).Msg("Build output")
		}
	}
}
