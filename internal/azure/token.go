package azure

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// TokenSource provides bearer tokens for the control plane
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

// Token returns the static token
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", ErrTokenUnavailable{Err: errors.New("empty static token")}
	}
	return string(t), nil
}

// CLITokenSource obtains tokens from the az CLI of the signed-in user.
// The token is cached for the lifetime of the process, which is one command.
type CLITokenSource struct {
	mu    sync.Mutex
	token string
}

// NewCLITokenSource creates a token source backed by the az CLI
func NewCLITokenSource() *CLITokenSource {
	return &CLITokenSource{}
}

// Token returns a cached token or asks the az CLI for a fresh one
func (s *CLITokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	log.Debug().Msg("Requesting access token from az CLI")

	token, err := azCLI(ctx, "account", "get-access-token", "--query", "accessToken", "--output", "tsv")
	if err != nil {
		return "", ErrTokenUnavailable{Err: err}
	}

	s.token = token
	return token, nil
}

// DefaultSubscription returns the subscription selected in the az CLI
func DefaultSubscription(ctx context.Context) (string, error) {
	id, err := azCLI(ctx, "account", "show", "--query", "id", "--output", "tsv")
	if err != nil {
		return "", fmt.Errorf("failed to read default subscription: %w", err)
	}
	if id == "" {
		return "", ErrNoSubscription
	}
	return id, nil
}

func azCLI(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "az", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("az %s failed: %w, output: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("az %s failed: %w", args[0], err)
	}
	return strings.TrimSpace(string(output)), nil
}
