package analyzer

// Language represents a programming language
type Language string

const (
	LanguageNodeJS  Language = "nodejs"
	LanguagePython  Language = "python"
	LanguagePHP     Language = "php"
	LanguageDotNet  Language = "dotnet"
	LanguageJava    Language = "java"
	LanguageStatic  Language = "static"
	LanguageUnknown Language = "unknown"
)

// AnalysisResult represents the result of source code analysis
type AnalysisResult struct {
	Language      Language `json:"language"`
	Version       string   `json:"version,omitempty"`
	RuntimeStack  string   `json:"runtime_stack,omitempty"`
	HasDockerfile bool     `json:"has_dockerfile"`
	Files         []string `json:"files"`
	Confidence    float64  `json:"confidence"`
}

// Supported reports whether the app can run on a built-in runtime stack
func (r *AnalysisResult) Supported() bool {
	return r.RuntimeStack != ""
}

// FileInfo represents information about a source file
type FileInfo struct {
	Path        string
	Name        string
	Extension   string
	IsDirectory bool
	Size        int64
}
