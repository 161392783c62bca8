package analyzer

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Default runtime versions used when the project does not pin one
var defaultVersions = map[Language]string{
	LanguageNodeJS: "18-lts",
	LanguagePython: "3.11",
	LanguagePHP:    "8.2",
	LanguageDotNet: "8.0",
	LanguageJava:   "17-java17",
	LanguageStatic: "8.2",
}

// runtimeNames are the stack names understood by linuxFxVersion
var runtimeNames = map[Language]string{
	LanguageNodeJS: "NODE",
	LanguagePython: "PYTHON",
	LanguagePHP:    "PHP",
	LanguageDotNet: "DOTNETCORE",
	LanguageJava:   "JAVA",
	// Static sites are served by the PHP image's web server
	LanguageStatic: "PHP",
}

var (
	majorVersionRegex = regexp.MustCompile(`\d+`)
	pythonPinRegex    = regexp.MustCompile(`python-(\d+\.\d+)`)
	targetFrameworkRe = regexp.MustCompile(`<TargetFramework>net(?:coreapp)?(\d+\.\d+)</TargetFramework>`)
)

// RuntimeResolver picks the runtime version of a project
type RuntimeResolver struct{}

// NewRuntimeResolver creates a new runtime resolver
func NewRuntimeResolver() *RuntimeResolver {
	return &RuntimeResolver{}
}

// Resolve returns the runtime version and the linuxFxVersion stack string
func (rr *RuntimeResolver) Resolve(basePath string, language Language, files []FileInfo) (string, string) {
	name, ok := runtimeNames[language]
	if !ok {
		return "", ""
	}

	version := ""
	switch language {
	case LanguageNodeJS:
		version = rr.nodeVersion(basePath)
	case LanguagePython:
		version = rr.pythonVersion(basePath)
	case LanguageDotNet:
		version = rr.dotnetVersion(basePath, files)
	}

	if version == "" {
		version = defaultVersions[language]
	}

	return version, name + "|" + version
}

// nodeVersion reads the major version from the engines field of package.json
func (rr *RuntimeResolver) nodeVersion(basePath string) string {
	data, err := os.ReadFile(filepath.Join(basePath, "package.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Msg("No package.json, using the default node version")
		} else {
			log.Warn().Err(err).Msg("Failed to read package.json")
		}
		return ""
	}

	var pkg struct {
		Engines struct {
			Node string `json:"node"`
		} `json:"engines"`
	}

	if err := json.Unmarshal(data, &pkg); err != nil {
		log.Warn().Err(err).Msg("Failed to parse package.json")
		return ""
	}

	major := majorVersionRegex.FindString(pkg.Engines.Node)
	if major == "" {
		return ""
	}

	log.Debug().Str("engines", pkg.Engines.Node).Msg("Found node engine constraint")
	return major + "-lts"
}

// pythonVersion reads runtime.txt, e.g. "python-3.10.4"
func (rr *RuntimeResolver) pythonVersion(basePath string) string {
	data, err := os.ReadFile(filepath.Join(basePath, "runtime.txt"))
	if err != nil {
		return ""
	}

	match := pythonPinRegex.FindStringSubmatch(strings.TrimSpace(string(data)))
	if match == nil {
		return ""
	}
	return match[1]
}

// dotnetVersion reads the target framework of the first project file
func (rr *RuntimeResolver) dotnetVersion(basePath string, files []FileInfo) string {
	for _, file := range files {
		if file.Extension != ".csproj" && file.Extension != ".fsproj" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(basePath, filepath.FromSlash(file.Path)))
		if err != nil {
			continue
		}

		if match := targetFrameworkRe.FindSubmatch(data); match != nil {
			return string(match[1])
		}
	}
	return ""
}
