// Package walker decides which project files are eligible for indexing:
// source-tree membership, exclusion and ignore rules, binary and size
// checks, inclusion patterns, and the hard enumeration cap.
package walker

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the maximum file size to index (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// DefaultMaxFiles caps how many files one enumeration may yield. Files
// past the cap are simply not indexed; editing or creating one later
// still triggers its individual indexing.
const DefaultMaxFiles = 10000

// FileInfo holds metadata about a single eligible file.
type FileInfo struct {
	Path     string // Absolute path on disk.
	RelPath  string // Path relative to the root directory.
	Dir      string // Absolute directory containing the file.
	Name     string // Base file name.
	Size     int64  // File size in bytes.
	Language string // Detected language, for record metadata.
}

// Config controls file selection.
type Config struct {
	RootDir     string   // Root directory to walk.
	Sources     []string // Glob patterns marking source files; these fill the cap first.
	Exclude     []string // Glob patterns for files to exclude.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
	MaxFiles    int      // Enumeration cap (0 = use default).
}

func (c Config) maxFileSize() int64 {
	if c.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return c.MaxFileSize
}

func (c Config) maxFiles() int {
	if c.MaxFiles <= 0 {
		return DefaultMaxFiles
	}
	return c.MaxFiles
}

// Walk enumerates eligible files under config.RootDir. Files matching a
// source pattern take priority when the cap is hit; the returned flag
// reports whether the cap was reached, so the caller can surface a
// one-time limit notice.
func Walk(config Config) ([]FileInfo, bool, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, false, fmt.Errorf("walker: resolve root: %w", err)
	}

	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))
	maxFiles := config.maxFiles()

	var sources, others []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		if len(sources) >= maxFiles {
			return filepath.SkipAll
		}

		name := d.Name()

		if d.IsDir() {
			if path != root && SkipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if MatchesAny(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		// Empty files carry nothing worth embedding.
		if info.Size() == 0 || info.Size() > config.maxFileSize() {
			return nil
		}
		if isBinary(path) {
			return nil
		}

		file := FileInfo{
			Path:     path,
			RelPath:  filepath.ToSlash(relPath),
			Dir:      filepath.Dir(path),
			Name:     name,
			Size:     info.Size(),
			Language: DetectLanguage(name),
		}

		if len(config.Sources) == 0 || MatchesAny(relPath, config.Sources) {
			sources = append(sources, file)
		} else if len(others) < maxFiles {
			others = append(others, file)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("walker: traversal: %w", err)
	}

	// Source files fill the cap first, remaining room goes to the rest.
	merged := sources
	for _, f := range others {
		if len(merged) >= maxFiles {
			break
		}
		merged = append(merged, f)
	}

	return merged, len(merged) >= maxFiles, nil
}

// ShouldIndex is the per-file predicate used outside a full enumeration,
// for example when a watcher reports a single changed path.
func (c Config) ShouldIndex(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() == 0 || info.Size() > c.maxFileSize() {
		return false
	}

	relPath := path
	if root, err := filepath.Abs(c.RootDir); err == nil {
		if rel, err := filepath.Rel(root, path); err == nil {
			relPath = rel
		}
	}
	if MatchesAny(relPath, c.Exclude) {
		return false
	}
	if len(c.Sources) > 0 && !MatchesAny(relPath, c.Sources) {
		return false
	}
	return !isBinary(path)
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true // treat unreadable files as binary
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
