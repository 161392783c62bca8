package strategies

import (
	"context"

	"github.com/alvesdmateus/appsvc-deployer/internal/builder/buildtypes"
)

// Strategy defines how to build container images
type Strategy interface {
	// Build builds a container image from source
	Build(ctx context.Context, buildCtx *buildtypes.BuildContext) (*buildtypes.BuildResult, error)

	// Tag adds a tag to a built image
	Tag(ctx context.Context, sourceTag, targetTag string) error

	// Name returns the strategy name
	Name() string
}

// StrategyType defines the type of build strategy
type StrategyType string

const (
	StrategyTypeDocker StrategyType = "docker"
)

// StrategyFactory creates build strategies based on type
type StrategyFactory struct{}

// NewStrategyFactory creates a new strategy factory
func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{}
}

// CreateStrategy creates a build strategy based on the specified type
func (f *StrategyFactory) CreateStrategy(strategyType StrategyType) (Strategy, error) {
	switch strategyType {
	case StrategyTypeDocker, "":
		return NewDockerStrategy()
	default:
		return nil, ErrUnknownStrategy{Type: strategyType}
	}
}

// ErrUnknownStrategy is returned when an unknown strategy type is requested
type ErrUnknownStrategy struct {
	Type StrategyType
}

func (e ErrUnknownStrategy) Error() string {
	return "unknown strategy type: " + string(e.Type)
}
