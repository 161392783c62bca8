package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Analyzer detects the language and runtime stack of a source directory
type Analyzer struct {
	languageDetector *LanguageDetector
	runtimeResolver  *RuntimeResolver
}

// New creates a new analyzer
func New() *Analyzer {
	return &Analyzer{
		languageDetector: NewLanguageDetector(),
		runtimeResolver:  NewRuntimeResolver(),
	}
}

// Analyze analyzes a directory of source code
func (a *Analyzer) Analyze(path string) (*AnalysisResult, error) {
	log.Debug().Str("path", path).Msg("Starting source code analysis")

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	files, err := a.scanDirectory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found in directory")
	}

	result := &AnalysisResult{
		Files: make([]string, 0, len(files)),
	}

	for _, file := range files {
		if !file.IsDirectory {
			result.Files = append(result.Files, file.Path)
		}
	}

	language, confidence := a.languageDetector.Detect(files)
	result.Language = language
	result.Confidence = confidence
	result.Version, result.RuntimeStack = a.runtimeResolver.Resolve(path, language, files)
	result.HasDockerfile = a.hasDockerfile(files)

	log.Info().
		Str("language", string(result.Language)).
		Str("runtime", result.RuntimeStack).
		Float64("confidence", confidence).
		Bool("has_dockerfile", result.HasDockerfile).
		Msg("Analysis complete")

	return result, nil
}

// scanDirectory scans a directory and returns file information
func (a *Analyzer) scanDirectory(path string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if filePath == path {
			return nil
		}

		// Skip hidden files and directories
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			ignored := []string{"node_modules", "vendor", "venv", "dist", "bin", "obj", "target", "__pycache__"}
			for _, dir := range ignored {
				if info.Name() == dir {
					return filepath.SkipDir
				}
			}
		}

		relPath, _ := filepath.Rel(path, filePath)

		files = append(files, FileInfo{
			Path:        filepath.ToSlash(relPath),
			Name:        info.Name(),
			Extension:   strings.ToLower(filepath.Ext(info.Name())),
			IsDirectory: info.IsDir(),
			Size:        info.Size(),
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// hasDockerfile checks if a Dockerfile exists at the top level
func (a *Analyzer) hasDockerfile(files []FileInfo) bool {
	for _, file := range files {
		if file.Path == file.Name && strings.EqualFold(file.Name, "Dockerfile") {
			return true
		}
	}
	return false
}
