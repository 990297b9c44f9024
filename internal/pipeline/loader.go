package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/recall-dev/recall/internal/vectordb"
	"github.com/recall-dev/recall/internal/walker"
)

// loadDocument reads a file and derives the metadata every chunk of it
// will carry into the index. The returned metadata identifies the file
// so later re-ingestions can replace its chunks by prefix.
func loadDocument(path string) (string, map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dir := filepath.ToSlash(filepath.Dir(path))
	name := filepath.Base(path)

	meta := map[string]string{
		vectordb.MetaDirectory: dir,
		vectordb.MetaFileName:  name,
		vectordb.MetaPath:      filepath.ToSlash(path),
	}
	if lang := walker.DetectLanguage(path); lang != "" {
		meta[vectordb.MetaLanguage] = lang
	}

	return string(content), meta, nil
}
