package analyzer

import (
	"strings"
)

// LanguageDetector detects programming languages from source files
type LanguageDetector struct {
	// Language indicators map file extensions to languages
	extensionMap map[string]Language

	// Key files that indicate a language
	keyFiles map[string]Language
}

// NewLanguageDetector creates a new language detector
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{
		extensionMap: map[string]Language{
			".js":   LanguageNodeJS,
			".ts":   LanguageNodeJS,
			".jsx":  LanguageNodeJS,
			".tsx":  LanguageNodeJS,
			".mjs":  LanguageNodeJS,
			".py":   LanguagePython,
			".php":  LanguagePHP,
			".cs":   LanguageDotNet,
			".java": LanguageJava,
			".kt":   LanguageJava,
			".html": LanguageStatic,
			".htm":  LanguageStatic,
			".css":  LanguageStatic,
		},
		keyFiles: map[string]Language{
			"package.json":     LanguageNodeJS,
			"requirements.txt": LanguagePython,
			"pyproject.toml":   LanguagePython,
			"pipfile":          LanguagePython,
			"composer.json":    LanguagePHP,
			"pom.xml":          LanguageJava,
			"build.gradle":     LanguageJava,
		},
	}
}

// Detect detects the primary language from a list of files
func (ld *LanguageDetector) Detect(files []FileInfo) (Language, float64) {
	languageCounts := make(map[Language]int)
	totalFiles := 0

	// Key files and project files are high confidence indicators
	for _, file := range files {
		if file.IsDirectory {
			continue
		}
		if lang, exists := ld.keyFiles[strings.ToLower(file.Name)]; exists {
			return lang, 0.95
		}
		if file.Extension == ".csproj" || file.Extension == ".fsproj" {
			return LanguageDotNet, 0.95
		}
	}

	for _, file := range files {
		if file.IsDirectory {
			continue
		}

		if lang, exists := ld.extensionMap[file.Extension]; exists {
			languageCounts[lang]++
			totalFiles++
		}
	}

	if totalFiles == 0 {
		return LanguageUnknown, 0.0
	}

	// Markup only counts when no code was found
	if len(languageCounts) > 1 {
		delete(languageCounts, LanguageStatic)
		totalFiles = 0
		for _, count := range languageCounts {
			totalFiles += count
		}
	}

	var primaryLanguage Language
	maxCount := 0

	for lang, count := range languageCounts {
		if count > maxCount || (count == maxCount && lang < primaryLanguage) {
			maxCount = count
			primaryLanguage = lang
		}
	}

	if primaryLanguage == "" {
		return LanguageUnknown, 0.0
	}

	confidence := float64(maxCount) / float64(totalFiles)

	return primaryLanguage, confidence
}
