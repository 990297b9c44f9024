package cmd

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/recall-dev/recall/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "indexed_projects.txt"), nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return reg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCorruptionRecorder_InvalidatesIndexedProject(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.MarkAsIndexed("p"); err != nil {
		t.Fatalf("MarkAsIndexed() error: %v", err)
	}

	corruptionRecorder(reg, "p", discardLogger())()

	if reg.IsIndexed("p") {
		t.Fatal("project still reads as indexed after its index was wiped")
	}
	if !reg.IsCorrupted("p") {
		t.Fatal("corrupted flag not recorded")
	}

	// A full re-index makes the project current again.
	if err := reg.MarkAsIndexed("p"); err != nil {
		t.Fatalf("MarkAsIndexed() error: %v", err)
	}
	if !reg.IsIndexed("p") {
		t.Fatal("re-indexed project should read as indexed")
	}
	if reg.IsCorrupted("p") {
		t.Fatal("re-index should clear the corrupted flag")
	}
}

func TestCorruptionRecorder_NeverIndexedProject(t *testing.T) {
	reg := newTestRegistry(t)

	corruptionRecorder(reg, "q", discardLogger())()

	if reg.IsIndexed("q") {
		t.Fatal("never-indexed project must not read as indexed after a fault")
	}
}
