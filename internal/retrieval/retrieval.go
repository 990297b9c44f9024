// Package retrieval assembles context snippets for a query from up to
// three sources: the vector index, an external search provider and the
// editing workspace. Sources run concurrently under a hard time budget
// and the orchestrator always returns a list, never an error.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/recall-dev/recall/internal/embeddings"
	"github.com/recall-dev/recall/internal/vectordb"
)

const (
	// retrievalBudget is the global deadline for one retrieval; a
	// source that has not finished by then contributes nothing.
	retrievalBudget = 2 * time.Second
	// workspaceMinLength is the smallest workspace snippet considered
	// relevant; anything this long or shorter is noise.
	workspaceMinLength = 30

	defaultMaxResults = 5
	defaultMinScore   = 0.4
)

// refactorPrefix marks queries that are machine-built refactor
// instructions. Those must reach the model untouched, without
// unrelated retrieved context mixed in.
const refactorPrefix = "**Do NOT include notes, explanations, or extra text.**"

// Snippet is one piece of retrieved context.
type Snippet struct {
	Text   string
	Origin string // "index", "web" or "workspace"
	Path   string
	Score  float64
}

// Searcher is an external search provider.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Snippet, error)
}

// Notifier surfaces retrieval problems to the user. The orchestrator
// reports through it instead of returning errors.
type Notifier interface {
	Warn(msg string)
	Error(msg string)
}

// LogNotifier routes notifications into a logger. It is the default
// when no host-facing notifier is wired.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Warn(msg string)  { n.Logger.Warn(msg) }
func (n LogNotifier) Error(msg string) { n.Logger.Error(msg) }

// Options tune one orchestrator.
type Options struct {
	MaxResults int
	MinScore   float64
	Budget     time.Duration
}

// Orchestrator fans a query out to its sources, merges the answers in
// a fixed order and deduplicates them by exact text.
type Orchestrator struct {
	store     *vectordb.Store // nil when the index source is disabled
	embedder  embeddings.Embedder
	web       Searcher // nil when external search is disabled
	workspace *Workspace
	notifier  Notifier
	logger    *slog.Logger

	maxResults int
	minScore   float64
	budget     time.Duration
}

// New builds an orchestrator. store may be nil to disable the index
// source, web may be nil to disable external search, and workspace may
// be nil when no editor is attached.
func New(store *vectordb.Store, embedder embeddings.Embedder, web Searcher, workspace *Workspace, notifier Notifier, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MinScore <= 0 {
		opts.MinScore = defaultMinScore
	}
	if opts.Budget <= 0 {
		opts.Budget = retrievalBudget
	}
	return &Orchestrator{
		store:      store,
		embedder:   embedder,
		web:        web,
		workspace:  workspace,
		notifier:   notifier,
		logger:     logger,
		maxResults: opts.MaxResults,
		minScore:   opts.MinScore,
		budget:     opts.Budget,
	}
}

// sourceResult holds one source's answer. A slot only counts once the
// source marked it done; a source still running at the deadline leaves
// its slot empty.
type sourceResult struct {
	mu       sync.Mutex
	done     bool
	snippets []Snippet
	err      error
}

func (r *sourceResult) set(snippets []Snippet, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snippets = snippets
	r.err = err
	r.done = true
}

func (r *sourceResult) take() ([]Snippet, error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done {
		return nil, nil, false
	}
	return r.snippets, r.err, true
}

// Retrieve gathers context for query. It never returns an error: a
// timeout yields whatever finished in time plus a warning, a source
// fault yields the other sources' answers plus a notification.
func (o *Orchestrator) Retrieve(ctx context.Context, query string) []Snippet {
	if isRefactorQuery(query) {
		o.logger.Debug("refactor query, skipping retrieval")
		return []Snippet{}
	}

	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	var index, web, workspace sourceResult

	var g errgroup.Group
	if o.store != nil {
		g.Go(func() error {
			snippets, err := o.searchIndex(ctx, query)
			index.set(snippets, err)
			return nil
		})
	}
	if o.web != nil {
		g.Go(func() error {
			snippets, err := o.web.Search(ctx, query, o.maxResults)
			web.set(snippets, err)
			return nil
		})
	}
	if o.workspace != nil {
		g.Go(func() error {
			workspace.set(o.workspace.Snippets(), nil)
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	timedOut := false
	select {
	case <-finished:
	case <-ctx.Done():
		timedOut = true
	}

	seen := make(map[string]struct{})
	var merged []Snippet

	add := func(snippets []Snippet, minLength int) {
		for _, s := range snippets {
			text := strings.TrimSpace(s.Text)
			if text == "" || len(text) <= minLength {
				continue
			}
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			s.Text = text
			merged = append(merged, s)
		}
	}

	var faults []error
	collect := func(r *sourceResult, minLength int) {
		snippets, err, done := r.take()
		if !done {
			return
		}
		if err != nil {
			faults = append(faults, err)
			return
		}
		add(snippets, minLength)
	}

	// Merge order is fixed: index first, then web, then workspace.
	collect(&index, 0)
	collect(&web, 0)
	collect(&workspace, workspaceMinLength)

	o.report(timedOut, faults)

	if merged == nil {
		merged = []Snippet{}
	}
	return merged
}

// searchIndex embeds the query and runs it against the vector store.
func (o *Orchestrator) searchIndex(ctx context.Context, query string) ([]Snippet, error) {
	vec, err := embeddings.EmbedOne(ctx, o.embedder, query)
	if err != nil {
		return nil, err
	}

	matches := o.store.Search(ctx, vectordb.SearchQuery{
		Vector:     vec,
		MaxResults: o.maxResults,
		MinScore:   o.minScore,
	})

	snippets := make([]Snippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, Snippet{
			Text:   m.Text,
			Origin: "index",
			Path:   m.Metadata[vectordb.MetaPath],
			Score:  m.Score,
		})
	}
	return snippets, nil
}

// report surfaces what went wrong, in order of severity: timeout as a
// warning, an embedding service fault with full detail, anything else
// generically.
func (o *Orchestrator) report(timedOut bool, faults []error) {
	if timedOut {
		o.notifier.Warn("context retrieval timed out; answering without full context")
	}

	for _, err := range faults {
		var svcErr *embeddings.ServiceError
		if errors.As(err, &svcErr) {
			o.notifier.Error(fmt.Sprintf(
				"embedding model %q at %s rejected the request: %s",
				svcErr.Model, svcErr.URL, svcErr.Detail))
			o.logger.Error("embedding service fault", "err", err)
			return
		}
	}
	for _, err := range faults {
		// Deadline faults are already covered by the timeout warning.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			continue
		}
		o.logger.Error("retrieval source failed", "err", err)
		o.notifier.Error("context retrieval failed; answering without retrieved context")
		return
	}
}

// isRefactorQuery detects machine-built refactor instructions.
func isRefactorQuery(query string) bool {
	q := strings.TrimSpace(query)
	return strings.HasPrefix(q, refactorPrefix) && strings.Contains(q, "Refactor the")
}
