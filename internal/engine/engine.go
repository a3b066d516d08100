package engine

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/askpatrick/patrick/config"
	"github.com/askpatrick/patrick/internal/index"
	"github.com/askpatrick/patrick/internal/ingest"
	"github.com/askpatrick/patrick/internal/pipeline"
	"github.com/askpatrick/patrick/internal/telemetry"
	"github.com/askpatrick/patrick/session"
	"github.com/askpatrick/patrick/tools/web_fetch"
	websearch "github.com/askpatrick/patrick/tools/web_search"
)

// NotInitializedMessage is the fixed reply for queries issued before a
// successful initialization.
const NotInitializedMessage = "The knowledge base is not initialized. Please upload documents first."

// Engine owns the document set, the published vector index, and the prompt
// configuration, and runs queries through the answering pipeline. Concurrent
// queries share only read-only snapshots.
type Engine struct {
	cfg      *config.Config
	logger   *log.Logger
	llm      pipeline.LLM
	searcher websearch.WebSearcher
	fetcher  *web_fetch.Fetcher
	metrics  *telemetry.Telemetry

	ingestor *ingest.Ingestor
	prompt   *promptConfig

	docMu sync.Mutex
	docs  map[string][]byte

	buildMu     sync.Mutex // one index build at a time
	idx         atomic.Pointer[index.Index]
	initialized atomic.Bool
}

func New(cfg *config.Config, logger *log.Logger, llm pipeline.LLM,
	searcher websearch.WebSearcher, fetcher *web_fetch.Fetcher, metrics *telemetry.Telemetry) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		llm:      llm,
		searcher: searcher,
		fetcher:  fetcher,
		metrics:  metrics,
		ingestor: ingest.New(logger),
		prompt:   newPromptConfig(DefaultPromptTemplate),
		docs:     make(map[string][]byte),
	}
}

// UploadDocument stores raw document bytes. Any document-set change
// invalidates the published index until the next Initialize.
func (e *Engine) UploadDocument(name string, data []byte) {
	e.docMu.Lock()
	e.docs[name] = data
	e.docMu.Unlock()
	e.invalidate()
	e.logger.Printf("stored document: %s (%d bytes)", name, len(data))
}

// RemoveDocument discards a stored document and invalidates the index.
func (e *Engine) RemoveDocument(name string) {
	e.docMu.Lock()
	delete(e.docs, name)
	e.docMu.Unlock()
	e.invalidate()
	e.logger.Printf("removed document: %s", name)
}

// ListDocuments returns the stored document names, sorted.
func (e *Engine) ListDocuments() []string {
	e.docMu.Lock()
	defer e.docMu.Unlock()
	names := make([]string, 0, len(e.docs))
	for name := range e.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Initialize ingests the given documents (replacing any stored set when docs
// is non-nil), builds a fresh index off to the side, and publishes it
// atomically. Returns false when no document yields any indexable text.
func (e *Engine) Initialize(ctx context.Context, docs map[string][]byte) bool {
	if docs != nil {
		e.docMu.Lock()
		e.docs = make(map[string][]byte, len(docs))
		for name, data := range docs {
			e.docs[name] = data
		}
		e.docMu.Unlock()
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	e.docMu.Lock()
	snapshot := make(map[string][]byte, len(e.docs))
	for name, data := range e.docs {
		snapshot[name] = data
	}
	e.docMu.Unlock()

	var units []ingest.TextUnit
	for name, data := range snapshot {
		parsed, err := e.ingestor.Ingest(name, data)
		if err != nil {
			// per-document containment: log and carry on with the rest
			e.logger.Printf("warn: %v", err)
			continue
		}
		units = append(units, parsed...)
	}
	if len(units) == 0 {
		e.logger.Printf("initialization failed: no text units produced")
		e.initialized.Store(false)
		return false
	}

	chunker := index.NewChunker(e.cfg.Retrieval.ChunkSize, e.cfg.Retrieval.ChunkOverlap)
	builder := index.NewBuilder(chunker, e.llm, e.logger)
	builder.OnDrop = e.metrics.IncEmbeddingDrops
	built, err := builder.Build(ctx, units)
	if err != nil {
		if errors.Is(err, index.ErrEmptyCorpus) {
			e.logger.Printf("initialization failed: empty corpus")
		} else {
			e.logger.Printf("initialization failed: %v", err)
		}
		e.initialized.Store(false)
		return false
	}

	old := e.idx.Swap(built)
	e.initialized.Store(true)
	e.metrics.RecordIndexBuild(built.Len())
	if old != nil {
		_ = old.Close()
	}
	e.logger.Printf("initialized with %d documents, %d chunks", len(snapshot), built.Len())
	return true
}

// IsInitialized reports whether an index has been published.
func (e *Engine) IsInitialized() bool {
	return e.initialized.Load() && e.idx.Load() != nil
}

// ProcessQuery runs one query through the pipeline and always returns an
// answer string; failures resolve to fixed messages, never errors. history
// holds the session's earlier exchanges for follow-up resolution.
func (e *Engine) ProcessQuery(ctx context.Context, query string, history []session.Exchange) string {
	if !e.IsInitialized() {
		return NotInitializedMessage
	}
	e.metrics.IncQueries()
	e.metrics.AddInFlight(1)
	defer e.metrics.AddInFlight(-1)

	p := pipeline.New(e.cfg, e.logger, e.llm, e.searcher, e.fetcher,
		e.idx.Load(), e.prompt.Current(), e.metrics)
	state := p.Run(ctx, query, history)
	return state.Answer
}

// UpdatePrompt replaces the persona template for subsequent synthesis calls.
func (e *Engine) UpdatePrompt(template string) {
	e.logger.Printf("updating assistant prompt template")
	e.prompt.Update(template)
}

// ResetPrompt restores the default persona template.
func (e *Engine) ResetPrompt() {
	e.logger.Printf("resetting assistant prompt to default")
	e.prompt.Reset()
}

// PromptModified reports whether the template differs from the default.
func (e *Engine) PromptModified() bool { return e.prompt.Modified() }

// KeywordSearch exposes the index's full-text search for operator inspection.
func (e *Engine) KeywordSearch(q string, k int) ([]index.Chunk, error) {
	idx := e.idx.Load()
	if idx == nil {
		return nil, nil
	}
	return idx.Keyword(q, k)
}

func (e *Engine) invalidate() {
	e.initialized.Store(false)
	if old := e.idx.Swap(nil); old != nil {
		_ = old.Close()
	}
}
