package retrieval

import (
	"bytes"
	"fmt"
	"os"
	"sync"
)

const (
	// maxPinnedFileSize caps files a user can pin into the context.
	maxPinnedFileSize = 200 * 1024
	// caretWindowSize is how many characters around the caret of the
	// active document are offered as workspace context.
	caretWindowSize = 5000
)

// Workspace tracks what the attached editor is showing: files the user
// pinned as always-relevant, plus the document under the caret. It is
// one of the orchestrator's sources and safe for concurrent use.
type Workspace struct {
	mu     sync.Mutex
	pinned map[string]struct{}

	activePath  string
	activeText  string
	activeCaret int
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{pinned: make(map[string]struct{})}
}

// Pin marks path as always included in workspace context. Files that
// are too large or look binary are rejected.
func (w *Workspace) Pin(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("pin %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("pin %s: is a directory", path)
	}
	if info.Size() > maxPinnedFileSize {
		return fmt.Errorf("pin %s: %d bytes exceeds the %d byte limit", path, info.Size(), maxPinnedFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pin %s: %w", path, err)
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return fmt.Errorf("pin %s: binary file", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pinned[path] = struct{}{}
	return nil
}

// Unpin removes path from the pinned set.
func (w *Workspace) Unpin(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pinned, path)
}

// Pinned lists the pinned paths.
func (w *Workspace) Pinned() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.pinned))
	for p := range w.pinned {
		paths = append(paths, p)
	}
	return paths
}

// SetActiveDocument records the document under edit and the caret
// position within it. An empty path clears the active document.
func (w *Workspace) SetActiveDocument(path, text string, caret int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activePath = path
	w.activeText = text
	w.activeCaret = caret
}

// Snippets assembles the workspace context: every pinned file's
// content, plus a window around the caret of the active document when
// that document is not already pinned. Unreadable pinned files are
// skipped silently; they may have been deleted since pinning.
func (w *Workspace) Snippets() []Snippet {
	w.mu.Lock()
	pinned := make([]string, 0, len(w.pinned))
	for p := range w.pinned {
		pinned = append(pinned, p)
	}
	activePath, activeText, activeCaret := w.activePath, w.activeText, w.activeCaret
	_, activePinned := w.pinned[activePath]
	w.mu.Unlock()

	var snippets []Snippet
	for _, path := range pinned {
		content, err := os.ReadFile(path)
		if err != nil || len(content) > maxPinnedFileSize || bytes.IndexByte(content, 0) >= 0 {
			continue
		}
		snippets = append(snippets, Snippet{
			Text:   string(content),
			Origin: "workspace",
			Path:   path,
		})
	}

	if activePath != "" && activeText != "" && !activePinned {
		snippets = append(snippets, Snippet{
			Text:   caretWindow(activeText, activeCaret, caretWindowSize),
			Origin: "workspace",
			Path:   activePath,
		})
	}
	return snippets
}

// caretWindow cuts a window of up to size characters centered on the
// caret, clamped to the document bounds.
func caretWindow(text string, caret, size int) string {
	if len(text) <= size {
		return text
	}
	if caret < 0 {
		caret = 0
	}
	if caret > len(text) {
		caret = len(text)
	}

	start := caret - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > len(text) {
		end = len(text)
		start = end - size
	}
	return text[start:end]
}
