package vectordb

import (
	"time"

	"github.com/google/uuid"
)

// Reserved metadata keys written alongside every record.
const (
	metaIDPrefix  = "id_prefix"
	metaIndexedAt = "indexed_at"
)

// Record is a stored (vector, text, metadata) triple addressable by id.
// Records are never mutated in place; an update is a prefix delete
// followed by a fresh insert.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// SearchQuery describes a top-K vector search with a relevance floor.
type SearchQuery struct {
	Vector     []float32
	MaxResults int
	MinScore   float64
}

// Match is a single search hit. Matches are ordered by decreasing score.
type Match struct {
	Score     float64
	ID        string
	Text      string
	Metadata  map[string]string
	IndexedAt time.Time
}

// RecordID composes a unique record id from the owning file's directory
// and name plus a random suffix, so one file can own several chunk
// records. All chunks of a file share the prefix returned by IDPrefix,
// which is what prefix deletion keys on.
func RecordID(directory, fileName string) string {
	return IDPrefix(directory, fileName) + uuid.NewString()
}

// IDPrefix returns the id prefix shared by every chunk of a file.
func IDPrefix(directory, fileName string) string {
	return directory + "/" + fileName
}
