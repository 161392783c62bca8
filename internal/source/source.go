package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog"
)

// ErrNotDirectory is returned when a local source is a plain file
var ErrNotDirectory = errors.New("source is not a directory")

// Resolver turns a --source argument into a local directory
type Resolver struct {
	logger  zerolog.Logger
	tempDir string
	depth   int
}

// Option configures a Resolver
type Option func(*Resolver)

// WithTempDir sets the parent directory used for clones
func WithTempDir(dir string) Option {
	return func(r *Resolver) {
		r.tempDir = dir
	}
}

// WithDepth sets the clone depth. Zero clones the full history.
func WithDepth(depth int) Option {
	return func(r *Resolver) {
		r.depth = depth
	}
}

// NewResolver creates a new source resolver
func NewResolver(logger zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		logger: logger.With().Str("component", "source").Logger(),
		depth:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsGitURL reports whether source points at a remote git repository
func IsGitURL(source string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(source, prefix) {
			return true
		}
	}
	return strings.HasSuffix(strings.SplitN(source, "#", 2)[0], ".git") && strings.Contains(source, "://")
}

// SplitRef separates an optional "#branch" suffix from a git URL
func SplitRef(source string) (url, branch string) {
	url, branch, _ = strings.Cut(source, "#")
	return url, branch
}

// Resolve returns a local directory holding source. Git URLs are cloned into a
// temporary directory that is removed by the returned cleanup. Local paths are
// returned as absolute paths with a no-op cleanup.
func (r *Resolver) Resolve(ctx context.Context, source string) (string, func(), error) {
	noop := func() {}

	if source == "" {
		source = "."
	}

	if !IsGitURL(source) {
		dir, err := filepath.Abs(source)
		if err != nil {
			return "", noop, fmt.Errorf("failed to resolve source path: %w", err)
		}

		info, err := os.Stat(dir)
		if err != nil {
			return "", noop, fmt.Errorf("failed to read source %s: %w", dir, err)
		}
		if !info.IsDir() {
			return "", noop, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
		}

		return dir, noop, nil
	}

	url, branch := SplitRef(source)

	dir, err := os.MkdirTemp(r.tempDir, "appsvc-source-*")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Debug().Err(err).Str("dir", dir).Msg("Failed to remove cloned source")
		}
	}

	cloneOpts := &git.CloneOptions{
		URL:          url,
		Depth:        r.depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	r.logger.Info().
		Str("url", url).
		Str("branch", branch).
		Str("dir", dir).
		Msg("Cloning source repository")

	repo, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	if head, err := repo.Head(); err == nil {
		r.logger.Debug().Str("commit", head.Hash().String()).Msg("Source cloned")
	}

	return dir, cleanup, nil
}

// Name returns the name of the source used for image naming. For git URLs it
// is the repository name without the .git suffix.
func Name(source, dir string) string {
	if !IsGitURL(source) {
		return dir
	}

	url, _ := SplitRef(source)
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	if url == "" {
		return dir
	}
	return url
}
