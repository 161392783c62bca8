package builder

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Image names follow pattern: {source-dir}:{utc timestamp}
// Example: myapp:20240115093000

const imageTagLayout = "20060102150405"

var (
	// Regex to match characters not allowed in a repository name
	invalidRepoChars = regexp.MustCompile(`[^a-z0-9._-]`)

	// Regex to match runs of separators
	multiSeparator = regexp.MustCompile(`[._-]{2,}`)
)

// GenerateImageName derives an image name from the source directory and time
func GenerateImageName(sourcePath string, now time.Time) string {
	return sanitizeRepository(filepath.Base(filepath.Clean(sourcePath))) + ":" + now.UTC().Format(imageTagLayout)
}

// sanitizeRepository converts a directory name to a valid repository name
func sanitizeRepository(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidRepoChars.ReplaceAllString(name, "")
	name = multiSeparator.ReplaceAllString(name, "-")
	name = strings.Trim(name, "._-")

	if name == "" {
		name = "app"
	}

	if len(name) > 64 {
		name = strings.TrimRight(name[:64], "._-")
	}

	return name
}
