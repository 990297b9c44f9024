package walker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names excluded by default.
var DefaultExcludes = []string{
	"node_modules",
	"vendor",
	"__pycache__",
	"dist",
	"build",
	"out",
	"target",
	".venv",
}

// SkipDir checks whether a directory should be skipped during
// traversal. Dot-directories (.git, .idea, caches) are always excluded.
// Watch mode uses the same rule to decide which directories to observe.
func SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesAny checks if relPath matches any of the given glob patterns.
// It uses doublestar for ** support; a pattern is also tried against the
// bare filename so "*.go" style patterns work at any depth.
func MatchesAny(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}

		base := filepath.Base(normalized)
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}

		// Bare directory fragments ("src", "internal/api") match any
		// path containing them, mirroring how source roots are
		// configured.
		if !strings.ContainsAny(pattern, "*?[") && strings.Contains("/"+normalized+"/", "/"+strings.Trim(pattern, "/")+"/") {
			return true
		}
	}
	return false
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks if a relative path matches any gitignore
// pattern. Only the common pattern shapes are handled; full gitignore
// semantics (negation, anchoring) are not reproduced.
func matchesGitignore(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
		if pattern == "" || strings.HasPrefix(pattern, "!") {
			continue
		}

		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if strings.HasPrefix(normalized, pattern+"/") {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(normalized)); err == nil && matched {
			return true
		}
	}
	return false
}
