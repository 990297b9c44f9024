package walker

import (
	"path/filepath"
	"strings"
)

// extensionToLanguage maps file extensions to the language name recorded
// in index metadata.
var extensionToLanguage = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".pyi":   "Python",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".mjs":   "JavaScript",
	".java":  "Java",
	".kt":    "Kotlin",
	".kts":   "Kotlin",
	".rs":    "Rust",
	".c":     "C",
	".h":     "C",
	".cpp":   "C++",
	".cc":    "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".scala": "Scala",
	".sh":    "Shell",
	".bash":  "Shell",
	".sql":   "SQL",
	".html":  "HTML",
	".css":   "CSS",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".toml":  "TOML",
	".md":    "Markdown",
	".adoc":  "AsciiDoc",
	".xml":   "XML",
	".proto": "Protobuf",
	".tf":    "Terraform",
}

// filenameToLanguage maps exact filenames to language names.
var filenameToLanguage = map[string]string{
	"Dockerfile":  "Dockerfile",
	"Makefile":    "Makefile",
	"Jenkinsfile": "Groovy",
	"Gemfile":     "Ruby",
	"Rakefile":    "Ruby",
}

// DetectLanguage returns the language for a given filename based on its
// exact name or extension. Returns "unknown" for unrecognized files.
func DetectLanguage(filename string) string {
	base := filepath.Base(filename)

	if lang, ok := filenameToLanguage[base]; ok {
		return lang
	}

	ext := strings.ToLower(filepath.Ext(base))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return "unknown"
}
