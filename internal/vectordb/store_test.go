package vectordb

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"
)

// mockEmbedder produces deterministic token-hash vectors so texts that
// share words land close together in the vector space.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.vector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dims)
	for _, token := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%m.dims] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func (m *mockEmbedder) embedOne(t *testing.T, text string) []float32 {
	t.Helper()
	vecs, err := m.Embed(context.Background(), []string{text})
	if err != nil {
		t.Fatalf("embed %q: %v", text, err)
	}
	return vecs[0]
}

func newTestStore(t *testing.T) (*Store, *mockEmbedder) {
	t.Helper()
	embedder := newMockEmbedder(64)
	store, err := Open(t.TempDir(), embedder, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, embedder
}

func TestAddThenSearch_ReturnsRecordWithTopScore(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	text := "func openDatabase(path string) error"
	id, err := store.Add(ctx, Record{
		ID:     "src/db.go-chunk-0",
		Vector: embedder.embedOne(t, text),
		Text:   text,
	})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if id != "src/db.go-chunk-0" {
		t.Fatalf("Add() rewrote the id: %q", id)
	}

	matches := store.Search(ctx, SearchQuery{
		Vector:     embedder.embedOne(t, text),
		MaxResults: 1,
	})
	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(matches))
	}
	if matches[0].ID != id {
		t.Fatalf("top match id = %q, want %q", matches[0].ID, id)
	}
	if matches[0].Score < 0.99 {
		t.Fatalf("identical vector should score ~1.0, got %f", matches[0].Score)
	}
	if matches[0].IndexedAt.IsZero() {
		t.Fatal("match is missing its indexed-at timestamp")
	}
}

func TestSearch_DistinguishesDocumentContent(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	javaText := "private static final int BATCH_SIZE = 10 ;"
	adocText := "Licensed under the Apache License see LICENSE-2.0 for details"

	_, err := store.AddBatch(ctx, []Record{
		{
			Vector:   embedder.embedOne(t, javaText),
			Text:     javaText,
			Metadata: map[string]string{MetaDirectory: "/proj/src", MetaFileName: "A.java"},
		},
		{
			Vector:   embedder.embedOne(t, adocText),
			Text:     adocText,
			Metadata: map[string]string{MetaDirectory: "/proj", MetaFileName: "README.adoc"},
		},
	})
	if err != nil {
		t.Fatalf("AddBatch() error: %v", err)
	}

	matches := store.Search(ctx, SearchQuery{Vector: embedder.embedOne(t, "BATCH_SIZE"), MaxResults: 1})
	if len(matches) != 1 || !strings.Contains(matches[0].ID, "A.java") {
		t.Fatalf("BATCH_SIZE query should hit A.java, got %+v", matches)
	}

	matches = store.Search(ctx, SearchQuery{Vector: embedder.embedOne(t, "LICENSE-2.0"), MaxResults: 1})
	if len(matches) != 1 || !strings.Contains(matches[0].ID, "README.adoc") {
		t.Fatalf("LICENSE-2.0 query should hit README.adoc, got %+v", matches)
	}
}

func TestAddBatch_AssignsPrefixedIDs(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	ids, err := store.AddBatch(ctx, []Record{
		{
			Vector:   embedder.embedOne(t, "chunk one"),
			Text:     "chunk one",
			Metadata: map[string]string{MetaDirectory: "/proj/src", MetaFileName: "main.go"},
		},
		{
			Vector:   embedder.embedOne(t, "chunk two"),
			Text:     "chunk two",
			Metadata: map[string]string{MetaDirectory: "/proj/src", MetaFileName: "main.go"},
		},
	})
	if err != nil {
		t.Fatalf("AddBatch() error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}

	prefix := IDPrefix("/proj/src", "main.go")
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			t.Fatalf("id %q does not carry prefix %q", id, prefix)
		}
	}
	if ids[0] == ids[1] {
		t.Fatal("chunk ids must be unique")
	}
}

func TestRemove_ByIDPrefixInvalidatesFileChunks(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	mainMeta := map[string]string{MetaDirectory: "/p", MetaFileName: "main.go"}
	otherMeta := map[string]string{MetaDirectory: "/p", MetaFileName: "other.go"}

	_, err := store.AddBatch(ctx, []Record{
		{Vector: embedder.embedOne(t, "one"), Text: "one", Metadata: mainMeta},
		{Vector: embedder.embedOne(t, "two"), Text: "two", Metadata: mainMeta},
		{Vector: embedder.embedOne(t, "three"), Text: "three", Metadata: otherMeta},
	})
	if err != nil {
		t.Fatalf("AddBatch() error: %v", err)
	}

	if err := store.Remove(ctx, FilterByIDPrefix(IDPrefix("/p", "main.go"))); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("expected 1 record to survive prefix delete, got %d", got)
	}
}

func TestRemove_ByIDsAndAll(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	id, err := store.Add(ctx, Record{ID: "a", Vector: embedder.embedOne(t, "a"), Text: "a"})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if _, err := store.Add(ctx, Record{ID: "b", Vector: embedder.embedOne(t, "b"), Text: "b"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	if err := store.Remove(ctx, FilterByIDs(id)); err != nil {
		t.Fatalf("Remove(ByIDs) error: %v", err)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("expected 1 record after id delete, got %d", got)
	}

	if err := store.Remove(ctx, FilterAll()); err != nil {
		t.Fatalf("Remove(All) error: %v", err)
	}
	if got := store.Count(); got != 0 {
		t.Fatalf("expected empty store after remove all, got %d", got)
	}
}

func TestRecreate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	if _, err := store.Add(ctx, Record{ID: "x", Vector: embedder.embedOne(t, "x"), Text: "x"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.Recreate(); err != nil {
			t.Fatalf("Recreate() #%d error: %v", i+1, err)
		}
		if got := store.Count(); got != 0 {
			t.Fatalf("store not empty after recreate: %d", got)
		}

		// Still searchable and writable.
		if matches := store.Search(ctx, SearchQuery{Vector: embedder.embedOne(t, "x"), MaxResults: 5}); len(matches) != 0 {
			t.Fatalf("empty store returned %d matches", len(matches))
		}
		if _, err := store.Add(ctx, Record{ID: "y", Vector: embedder.embedOne(t, "y"), Text: "y"}); err != nil {
			t.Fatalf("Add() after recreate error: %v", err)
		}
		if err := store.Remove(ctx, FilterAll()); err != nil {
			t.Fatalf("Remove(All) error: %v", err)
		}
	}
}

func TestClose_IsIdempotentAndReopensLazily(t *testing.T) {
	ctx := context.Background()
	store, embedder := newTestStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}

	// A mutating call after close reopens the writer.
	if _, err := store.Add(ctx, Record{ID: "z", Vector: embedder.embedOne(t, "z"), Text: "z"}); err != nil {
		t.Fatalf("Add() after close error: %v", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)
	dir := t.TempDir()

	store, err := Open(dir, embedder, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := store.Add(ctx, Record{ID: "persisted", Vector: embedder.embedOne(t, "persisted text"), Text: "persisted text"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(dir, embedder, nil)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	matches := reopened.Search(ctx, SearchQuery{Vector: embedder.embedOne(t, "persisted text"), MaxResults: 1})
	if len(matches) != 1 || matches[0].ID != "persisted" {
		t.Fatalf("record lost across reopen: %+v", matches)
	}
}
