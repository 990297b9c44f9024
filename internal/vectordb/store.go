// Package vectordb implements the persistent vector index: add, delete
// and cosine-similarity search over (vector, text, metadata) records,
// with a single logical writer and corruption recovery by full directory
// reset.
//
// Persistence is delegated to chromem-go, which keeps one segment file
// per document under the index directory. The store owns that directory
// exclusively within the process.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/recall-dev/recall/internal/embeddings"
)

const collectionName = "knowledge"

// ErrIndexCorrupted signals an unrecoverable fault in the persistent
// index. The caller is expected to trigger Recreate followed by a full
// re-index.
var ErrIndexCorrupted = errors.New("vector index corrupted")

// Metadata keys the ingestion side writes and id composition reads.
const (
	MetaDirectory = "directory"
	MetaFileName  = "file_name"
	MetaPath      = "path"
	MetaLanguage  = "language"
)

// Store is a persistent, directory-backed vector index. All mutating
// operations serialize on an internal write lock (single-writer
// discipline); searches take the read lock only while acquiring a
// snapshot of the committed state.
type Store struct {
	dir       string
	embedFunc chromem.EmbeddingFunc
	logger    *slog.Logger

	// onCorruption, when set, is invoked after a query-time fault has
	// forced an index reset, so the owner can schedule a full re-index.
	onCorruption func()

	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	closed     bool
}

// Open creates or reopens the index stored under dir. The embedder is
// only consulted by chromem when a document arrives without a
// precomputed vector; ingestion always precomputes, so it is effectively
// a fallback.
func Open(dir string, embedder embeddings.Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		dir:       dir,
		embedFunc: embeddings.ToChromemFunc(embedder),
		logger:    logger,
	}

	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetOnCorruption registers the callback invoked after an internal
// recovery triggered by a search fault.
func (s *Store) SetOnCorruption(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCorruption = fn
}

// open initializes the chromem handles. Callers must hold the write
// lock or have exclusive access to the store.
func (s *Store) open() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(s.dir, false)
	if err != nil {
		return fmt.Errorf("%w: open segments: %v", ErrIndexCorrupted, err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("%w: open collection: %v", ErrIndexCorrupted, err)
	}

	s.db = db
	s.collection = col
	s.closed = false
	return nil
}

// ensureOpen lazily reopens the store after Close. Write lock required.
func (s *Store) ensureOpen() error {
	if s.db != nil && s.collection != nil && !s.closed {
		return nil
	}
	return s.open()
}

// Add writes a single record and commits it synchronously. A blank id is
// composed from the record's directory/file metadata plus a random
// suffix. Returns the id under which the record was stored.
func (s *Store) Add(ctx context.Context, rec Record) (string, error) {
	ids, err := s.AddBatch(ctx, []Record{rec})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// AddBatch writes all records in one commit. Any per-document failure
// aborts the whole batch with ErrIndexCorrupted; the caller must then
// Recreate.
func (s *Store) AddBatch(ctx context.Context, recs []Record) ([]string, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	docs := make([]chromem.Document, len(recs))
	ids := make([]string, len(recs))

	for i, rec := range recs {
		id := rec.ID
		if id == "" {
			id = composeID(rec.Metadata)
		}
		ids[i] = id

		meta := make(map[string]string, len(rec.Metadata)+2)
		for k, v := range rec.Metadata {
			meta[k] = v
		}
		meta[metaIndexedAt] = now
		if dir, file := rec.Metadata[MetaDirectory], rec.Metadata[MetaFileName]; dir != "" && file != "" {
			meta[metaIDPrefix] = IDPrefix(dir, file)
		}

		docs[i] = chromem.Document{
			ID:        id,
			Content:   rec.Text,
			Embedding: rec.Vector,
			Metadata:  meta,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("%w: add batch: %v", ErrIndexCorrupted, err)
	}
	return ids, nil
}

// composeID mirrors the id scheme used for whole files when the caller
// did not assign one: directory/file prefix plus random suffix, or a
// bare random id when the metadata is incomplete.
func composeID(metadata map[string]string) string {
	dir, file := metadata[MetaDirectory], metadata[MetaFileName]
	if dir != "" && file != "" {
		return RecordID(dir, file)
	}
	return RecordID("", "")
}

// Remove deletes every record matched by the filter, then commits.
func (s *Store) Remove(ctx context.Context, f Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return err
	}

	switch f.kind {
	case filterAll:
		if err := s.db.DeleteCollection(collectionName); err != nil {
			return fmt.Errorf("remove all: %w", err)
		}
		col, err := s.db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
		if err != nil {
			return fmt.Errorf("%w: reopen collection: %v", ErrIndexCorrupted, err)
		}
		s.collection = col
		return nil

	case filterByIDs:
		if len(f.ids) == 0 {
			return nil
		}
		if err := s.collection.Delete(ctx, nil, nil, f.ids...); err != nil {
			return fmt.Errorf("remove by ids: %w", err)
		}
		return nil

	case filterByIDPrefix:
		where := map[string]string{metaIDPrefix: f.prefix}
		if err := s.collection.Delete(ctx, where, nil); err != nil {
			return fmt.Errorf("remove by id prefix %q: %w", f.prefix, err)
		}
		return nil

	default:
		// Unreachable: Filters are only built via the exported constructors.
		return fmt.Errorf("unknown filter kind %d", f.kind)
	}
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

// Recreate resets the index: it drops the writer handles, deletes every
// segment file under the index directory and reopens a fresh empty
// index. Safe to call repeatedly and concurrently with in-flight
// writers; the write lock is held for the full duration.
func (s *Store) Recreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("recreating vector index", "dir", s.dir)

	s.db = nil
	s.collection = nil

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("delete index directory: %w", err)
	}

	if err := s.open(); err != nil {
		return fmt.Errorf("reopen after recreate: %w", err)
	}

	s.logger.Info("vector index recreated", "dir", s.dir)
	return nil
}

// Close releases the writer and directory handles. Idempotent; a later
// mutating call reopens the store lazily.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db = nil
	s.collection = nil
	s.closed = true
	return nil
}
