// Package registry keeps durable per-project index bookkeeping: which
// projects carry a fresh, non-corrupted index, surviving process restarts.
//
// The backing file holds one `projectId,ISO-date,corrupted` line per
// project. Malformed lines are skipped on load, which makes the affected
// project read as never-indexed and therefore due for a full re-index.
package registry

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StalenessWindow is how long a successful index is trusted before the
// project is treated as due for refresh.
const StalenessWindow = 7 * 24 * time.Hour

const (
	dateLayout = "2006-01-02"
	separator  = ","
)

// ProjectMetadata is one registry row.
type ProjectMetadata struct {
	LastIndexedDate time.Time
	Corrupted       bool
}

// Registry owns the indexed-projects file. It is the sole writer of that
// file; construct one per process and pass it by handle (no ambient
// global state). The in-memory current-indexations set tracks runs that
// are in flight so a concurrent indexation is not mistaken for a missing
// index.
type Registry struct {
	path   string
	logger *slog.Logger

	mu                 sync.Mutex
	currentIndexations map[string]struct{}

	// now is swappable for staleness tests.
	now func() time.Time
}

// Open creates a Registry backed by the given file path, creating the
// file and its parent directory if needed.
func Open(path string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create registry file: %w", err)
	}
	_ = f.Close()

	return &Registry{
		path:               path,
		logger:             logger,
		currentIndexations: make(map[string]struct{}),
		now:                time.Now,
	}, nil
}

// IsIndexed reports whether projectID has a usable index: either an
// indexation is currently in flight for it, or the stored row is not
// corrupted and its date falls inside the staleness window.
func (r *Registry) IsIndexed(projectID string) bool {
	r.mu.Lock()
	_, inFlight := r.currentIndexations[projectID]
	r.mu.Unlock()
	if inFlight {
		return true
	}

	meta, ok := r.IndexedProjects()[projectID]
	if !ok || meta.Corrupted {
		return false
	}

	cutoff := r.now().Add(-StalenessWindow)
	return meta.LastIndexedDate.After(cutoff)
}

// MarkAsCurrentIndexation records an in-flight indexation run (in memory
// only).
func (r *Registry) MarkAsCurrentIndexation(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentIndexations[projectID] = struct{}{}
}

// RemoveFromCurrentIndexation clears the in-flight marker.
func (r *Registry) RemoveFromCurrentIndexation(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.currentIndexations, projectID)
}

// IndexationIsProcessing reports whether an indexation run is in flight.
func (r *Registry) IndexationIsProcessing(projectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.currentIndexations[projectID]
	return ok
}

// MarkAsIndexed records a successful full index: date set to today,
// corrupted flag cleared.
func (r *Registry) MarkAsIndexed(projectID string) error {
	projects := r.IndexedProjects()
	projects[projectID] = ProjectMetadata{LastIndexedDate: r.now(), Corrupted: false}
	return r.write(projects)
}

// MarkAsCorrupted flips the corrupted flag while preserving the existing
// last-indexed date.
func (r *Registry) MarkAsCorrupted(projectID string) error {
	return r.setCorrupted(projectID, true)
}

// MarkAsCleared clears the corrupted flag while preserving the existing
// last-indexed date.
func (r *Registry) MarkAsCleared(projectID string) error {
	return r.setCorrupted(projectID, false)
}

func (r *Registry) setCorrupted(projectID string, corrupted bool) error {
	projects := r.IndexedProjects()
	existing, ok := projects[projectID]
	if ok {
		projects[projectID] = ProjectMetadata{LastIndexedDate: existing.LastIndexedDate, Corrupted: corrupted}
	} else {
		projects[projectID] = ProjectMetadata{LastIndexedDate: r.now(), Corrupted: corrupted}
	}
	return r.write(projects)
}

// IsCorrupted reports the stored corrupted flag for projectID.
func (r *Registry) IsCorrupted(projectID string) bool {
	meta, ok := r.IndexedProjects()[projectID]
	return ok && meta.Corrupted
}

// RemoveProject deletes the project's row, if present.
func (r *Registry) RemoveProject(projectID string) error {
	projects := r.IndexedProjects()
	if _, ok := projects[projectID]; !ok {
		return nil
	}
	delete(projects, projectID)
	return r.write(projects)
}

// IndexedProjects loads all well-formed rows from the registry file.
// Rows with a blank id, a missing date, or an unparsable date are
// skipped so the project falls back to the never-indexed default.
func (r *Registry) IndexedProjects() map[string]ProjectMetadata {
	projects := make(map[string]ProjectMetadata)

	f, err := os.Open(r.path)
	if err != nil {
		r.logger.Error("reading indexed projects file", "path", r.path, "error", err)
		return projects
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, separator) {
			continue
		}

		parts := strings.SplitN(line, separator, 3)
		if len(parts) < 2 {
			r.logger.Info("project needs reindexing (missing date)", "project", parts[0])
			continue
		}

		projectID := strings.TrimSpace(parts[0])
		if projectID == "" {
			continue
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(parts[1]))
		if err != nil {
			r.logger.Warn("invalid date in registry", "project", projectID, "value", parts[1])
			continue
		}

		corrupted := false
		if len(parts) == 3 {
			corrupted, _ = strconv.ParseBool(strings.TrimSpace(parts[2]))
		}

		projects[projectID] = ProjectMetadata{LastIndexedDate: date, Corrupted: corrupted}
	}

	if err := scanner.Err(); err != nil {
		r.logger.Error("scanning indexed projects file", "path", r.path, "error", err)
	}
	return projects
}

// write rewrites the whole registry file. Rows are sorted so the file is
// stable across rewrites.
func (r *Registry) write(projects map[string]ProjectMetadata) error {
	ids := make([]string, 0, len(projects))
	for id := range projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, id := range ids {
		meta := projects[id]
		sb.WriteString(id)
		sb.WriteString(separator)
		sb.WriteString(meta.LastIndexedDate.Format(dateLayout))
		sb.WriteString(separator)
		sb.WriteString(strconv.FormatBool(meta.Corrupted))
		sb.WriteString("\n")
	}

	if err := os.WriteFile(r.path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("updating indexed projects file: %w", err)
	}
	return nil
}
