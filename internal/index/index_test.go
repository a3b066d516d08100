package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/askpatrick/patrick/internal/ingest"
)

// stubEmbedder maps fixed terms onto orthogonal-ish unit vectors so tests can
// reason about cosine ordering without a live model.
type stubEmbedder struct {
	fail     map[string]int // remaining failures per text
	failAll  bool
	requests int
}

func (s *stubEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	s.requests++
	if s.failAll {
		return nil, errors.New("embedding unavailable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if s.fail != nil && s.fail[text] > 0 {
			s.fail[text]--
			return nil, fmt.Errorf("transient failure for %q", text)
		}
		out[i] = termVector(text)
	}
	return out, nil
}

// termVector scores a text on three fixed topic axes.
func termVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := []float32{0.01, 0.01, 0.01}
	for i, term := range []string{"finance", "weather", "sports"} {
		v[i] += float32(strings.Count(lower, term))
	}
	return v
}

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func buildTestIndex(t *testing.T, units []ingest.TextUnit) *Index {
	t.Helper()
	b := NewBuilder(NewChunker(1000, 200), &stubEmbedder{}, testLogger())
	idx, err := b.Build(context.Background(), units)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBuildEmptyCorpus(t *testing.T) {
	t.Parallel()
	b := NewBuilder(NewChunker(1000, 200), &stubEmbedder{}, testLogger())
	if _, err := b.Build(context.Background(), nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Build(nil) error = %v, want ErrEmptyCorpus", err)
	}
	units := []ingest.TextUnit{{Content: "   ", Source: "blank.txt"}}
	if _, err := b.Build(context.Background(), units); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Build(blank) error = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildIndexesAllChunks(t *testing.T) {
	t.Parallel()
	idx := buildTestIndex(t, []ingest.TextUnit{
		{Content: "finance report one", Source: "a.txt"},
		{Content: "weather outlook", Source: "b.txt", Page: 1, TotalPages: 2},
	})
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
}

func TestBuildRetriesOnceThenDrops(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{fail: map[string]int{"weather outlook": 2}}
	b := NewBuilder(NewChunker(1000, 200), emb, testLogger())
	idx, err := b.Build(context.Background(), []ingest.TextUnit{
		{Content: "finance report", Source: "a.txt"},
		{Content: "weather outlook", Source: "b.txt"},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer idx.Close()
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after dropping the failing chunk", idx.Len())
	}
}

func TestBuildTransientFailureRecovered(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{fail: map[string]int{"weather outlook": 1}}
	b := NewBuilder(NewChunker(1000, 200), emb, testLogger())
	idx, err := b.Build(context.Background(), []ingest.TextUnit{
		{Content: "weather outlook", Source: "b.txt"},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer idx.Close()
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1; single retry should have recovered", idx.Len())
	}
}

func TestBuildAllEmbeddingsFail(t *testing.T) {
	t.Parallel()
	b := NewBuilder(NewChunker(1000, 200), &stubEmbedder{failAll: true}, testLogger())
	if _, err := b.Build(context.Background(), []ingest.TextUnit{
		{Content: "finance", Source: "a.txt"},
	}); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Build() error = %v, want ErrEmptyCorpus when every chunk drops", err)
	}
}

func TestIndexNilSafety(t *testing.T) {
	t.Parallel()
	var idx *Index
	if idx.Len() != 0 {
		t.Fatalf("nil Len() = %d, want 0", idx.Len())
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("nil Close() error = %v", err)
	}
	if got := idx.Diverse([]float32{1}, 5, 10, 0.5); got != nil {
		t.Fatalf("nil Diverse() = %v, want nil", got)
	}
	if got := idx.Similar([]float32{1}, 5, 0.5); got != nil {
		t.Fatalf("nil Similar() = %v, want nil", got)
	}
}
