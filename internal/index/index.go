package index

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/blevesearch/bleve"

	"github.com/askpatrick/patrick/internal/ingest"
)

// Chunk is an indexed window of text. Metadata is inherited from the TextUnit
// it was split from and never mutated afterwards.
type Chunk struct {
	Content    string `json:"content"`
	Source     string `json:"source"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

// ErrEmptyCorpus is returned when no text unit yields any indexable chunk.
var ErrEmptyCorpus = errors.New("no indexable content in corpus")

// Embedder produces one embedding vector per input text.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is an immutable vector index over a chunked corpus, with an auxiliary
// keyword index for operator search. Built once, then published atomically;
// never patched in place.
type Index struct {
	chunks  []Chunk
	vectors [][]float32
	keyword bleve.Index
	byID    map[string]int
}

// Builder constructs indexes from text units.
type Builder struct {
	chunker  *Chunker
	embedder Embedder
	logger   *log.Logger

	// OnDrop, when set, is called once per chunk dropped for embedding
	// failure.
	OnDrop func()
}

func NewBuilder(chunker *Chunker, embedder Embedder, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	return &Builder{chunker: chunker, embedder: embedder, logger: logger}
}

// Build chunks the units, embeds every chunk, and assembles a complete index.
// Embedding failures are retried once per chunk, then the chunk is dropped.
// The partially built index is never visible to callers: Build either returns
// a whole index or an error.
func (b *Builder) Build(ctx context.Context, units []ingest.TextUnit) (*Index, error) {
	var chunks []Chunk
	for _, unit := range units {
		chunks = append(chunks, b.chunker.Split(unit)...)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}

	idx := &Index{byID: make(map[string]int)}
	keyword, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("keyword index: %w", err)
	}
	idx.keyword = keyword

	dropped := 0
	for i, chunk := range chunks {
		vec, err := b.embedChunk(ctx, chunk.Content)
		if err != nil {
			dropped++
			if b.OnDrop != nil {
				b.OnDrop()
			}
			b.logger.Printf("dropping chunk %d of %s (page %d): embedding failed twice: %v",
				i, chunk.Source, chunk.Page, err)
			continue
		}
		id := fmt.Sprintf("%s#%d#%03d", chunk.Source, chunk.Page, i)
		if err := keyword.Index(id, chunk); err != nil {
			b.logger.Printf("keyword indexing failed for %s: %v", id, err)
		}
		idx.byID[id] = len(idx.chunks)
		idx.chunks = append(idx.chunks, chunk)
		idx.vectors = append(idx.vectors, vec)
	}
	if len(idx.chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	b.logger.Printf("built index: %d chunks from %d units (%d dropped)", len(idx.chunks), len(units), dropped)
	return idx, nil
}

func (b *Builder) embedChunk(ctx context.Context, text string) ([]float32, error) {
	vecs, err := b.embedder.CreateEmbedding(ctx, []string{text})
	if err == nil && len(vecs) == 1 {
		return vecs[0], nil
	}
	// one retry, then give up on this chunk only
	vecs, err = b.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

// Len reports the number of indexed chunks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

// Close releases the keyword index resources.
func (idx *Index) Close() error {
	if idx == nil || idx.keyword == nil {
		return nil
	}
	return idx.keyword.Close()
}
