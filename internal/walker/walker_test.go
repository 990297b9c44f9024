package walker

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file (and parent dirs) under root.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func relPaths(files []FileInfo) map[string]bool {
	out := make(map[string]bool, len(files))
	for _, f := range files {
		out[f.RelPath] = true
	}
	return out
}

func TestWalk_BasicSelection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "src/util.py", "def f():\n    pass\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "empty.go", "")
	writeFile(t, root, "image.png", "\x89PNG\x00\x00binary")
	writeFile(t, root, ".git/config", "[core]\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")

	files, limitReached, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if limitReached {
		t.Fatal("limit should not be reached")
	}

	got := relPaths(files)
	for _, want := range []string{"main.go", "src/util.py", "README.md"} {
		if !got[want] {
			t.Errorf("expected %s to be selected, got %v", want, got)
		}
	}
	for _, reject := range []string{"empty.go", "image.png", ".git/config", "node_modules/pkg/index.js"} {
		if got[reject] {
			t.Errorf("%s should have been excluded", reject)
		}
	}

	for _, f := range files {
		if f.RelPath == "main.go" && f.Language != "Go" {
			t.Errorf("main.go language = %q, want Go", f.Language)
		}
	}
}

func TestWalk_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", "package keep\n")
	writeFile(t, root, "gen/schema_gen.go", "package gen\n")

	files, _, err := Walk(Config{RootDir: root, Exclude: []string{"gen/**"}})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	if !got["keep.go"] || got["gen/schema_gen.go"] {
		t.Fatalf("exclude pattern not honored: %v", got)
	}
}

func TestWalk_GitignoreHonored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "secrets.txt\nlogs/\n")
	writeFile(t, root, "secrets.txt", "password\n")
	writeFile(t, root, "logs/app.log", "line\n")
	writeFile(t, root, "main.go", "package main\n")

	files, _, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	got := relPaths(files)
	if got["secrets.txt"] || got["logs/app.log"] {
		t.Fatalf("gitignored files selected: %v", got)
	}
	if !got["main.go"] {
		t.Fatal("main.go missing")
	}
}

func TestWalk_MaxFilesPrioritizesSources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "package a\n")
	writeFile(t, root, "src/b.go", "package b\n")
	writeFile(t, root, "docs/x.md", "x\n")
	writeFile(t, root, "docs/y.md", "y\n")

	files, limitReached, err := Walk(Config{
		RootDir:  root,
		Sources:  []string{"src/**"},
		MaxFiles: 3,
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if !limitReached {
		t.Fatal("expected limit-reached notice")
	}
	if len(files) != 3 {
		t.Fatalf("expected exactly 3 files, got %d", len(files))
	}

	got := relPaths(files)
	if !got["src/a.go"] || !got["src/b.go"] {
		t.Fatalf("source files must fill the cap first: %v", got)
	}
}

func TestShouldIndex(t *testing.T) {
	root := t.TempDir()
	goFile := writeFile(t, root, "src/ok.go", "package ok\n")
	binFile := writeFile(t, root, "bin/tool", "ELF\x00\x00\x00")
	emptyFile := writeFile(t, root, "src/empty.go", "")
	offSources := writeFile(t, root, "notes/todo.txt", "todo\n")

	cfg := Config{RootDir: root, Sources: []string{"src/**"}}

	if !cfg.ShouldIndex(goFile) {
		t.Error("eligible source file rejected")
	}
	if cfg.ShouldIndex(binFile) {
		t.Error("binary file accepted")
	}
	if cfg.ShouldIndex(emptyFile) {
		t.Error("empty file accepted")
	}
	if cfg.ShouldIndex(offSources) {
		t.Error("file outside source patterns accepted")
	}
	if cfg.ShouldIndex(filepath.Join(root, "missing.go")) {
		t.Error("missing file accepted")
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"src/main.go", []string{"src/**"}, true},
		{"src/deep/nested/x.go", []string{"src/**"}, true},
		{"lib/main.go", []string{"src/**"}, false},
		{"a/b/c.txt", []string{"*.txt"}, true},
		{"internal/api/h.go", []string{"api"}, true},
		{"anything.go", nil, false},
	}

	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"main.go":     "Go",
		"A.java":      "Java",
		"README.adoc": "AsciiDoc",
		"Dockerfile":  "Dockerfile",
		"noext":       "unknown",
	}
	for name, want := range tests {
		if got := DetectLanguage(name); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", name, got, want)
		}
	}
}
