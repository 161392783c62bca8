package buildtypes

import (
	"time"
)

// BuildContext contains all information needed for building a container image
type BuildContext struct {
	// SourcePath is the directory sent to the daemon as build context
	SourcePath string

	// ImageName is the repository:tag of the image, without registry host
	ImageName string

	// Dockerfile is relative to SourcePath, "Dockerfile" when empty
	Dockerfile string

	Labels map[string]string
}

// BuildResult contains the output of a build operation
type BuildResult struct {
	ImageTag      string
	ImageDigest   string
	BuildDuration time.Duration
	BuildLog      string
	Success       bool
	Error         error
}
