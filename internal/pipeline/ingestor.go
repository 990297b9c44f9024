package pipeline

import (
	"context"
	"fmt"

	"github.com/recall-dev/recall/internal/embeddings"
	"github.com/recall-dev/recall/internal/vectordb"
)

// Ingestor turns a single file into index records: load, chunk, embed,
// then replace whatever the index already holds for that file.
type Ingestor struct {
	store    *vectordb.Store
	embedder embeddings.Embedder
	maxChars int
	overlap  int
}

// NewIngestor builds an ingestor writing into store via embedder.
func NewIngestor(store *vectordb.Store, embedder embeddings.Embedder) *Ingestor {
	return &Ingestor{
		store:    store,
		embedder: embedder,
		maxChars: defaultChunkSize,
		overlap:  defaultChunkOverlap,
	}
}

// Ingest indexes path. Existing records for the same file are removed
// first, so re-ingesting a changed file never leaves stale chunks
// behind. An empty file is a no-op beyond the removal.
func (in *Ingestor) Ingest(ctx context.Context, path string) error {
	text, meta, err := loadDocument(path)
	if err != nil {
		return err
	}

	chunks := splitText(text, in.maxChars, in.overlap)

	dir := meta[vectordb.MetaDirectory]
	name := meta[vectordb.MetaFileName]
	prefix := vectordb.IDPrefix(dir, name)

	records := make([]vectordb.Record, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := embeddings.EmbedOne(ctx, in.embedder, chunk)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", path, err)
		}
		records = append(records, vectordb.Record{
			Vector:   vec,
			Text:     chunk,
			Metadata: meta,
		})
	}

	if err := in.store.Remove(ctx, vectordb.FilterByIDPrefix(prefix)); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	_, err = in.store.AddBatch(ctx, records)
	return err
}
