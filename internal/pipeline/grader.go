package pipeline

import (
	"strings"

	"github.com/askpatrick/patrick/config"
	"github.com/askpatrick/patrick/internal/index"
)

// Grader filters retrieved chunks for relevance and decides whether the local
// corpus is sufficient. The policy is deliberately lenient: a kept irrelevant
// chunk is cheaper than a dropped relevant one, because synthesis can ignore
// noise but cannot use content it never sees.
type Grader struct {
	cfg config.GradingConfig
}

func NewGrader(cfg config.GradingConfig) Grader {
	return Grader{cfg: cfg}
}

// Grade keeps a chunk when any of these holds: it comes from an early page,
// it shares a lowercase token with the query, or it contains a configured
// anchor term for the corpus.
func (g Grader) Grade(query string, docs []index.Chunk) (kept []index.Chunk, augmentationNeeded bool) {
	if len(docs) == 0 {
		return nil, true
	}
	terms := strings.Fields(strings.ToLower(query))
	for _, doc := range docs {
		if g.keep(doc, terms) {
			kept = append(kept, doc)
		}
	}
	return kept, len(kept) < g.cfg.MinKept
}

func (g Grader) keep(doc index.Chunk, queryTerms []string) bool {
	if doc.Page <= g.cfg.MaxFrontPage {
		return true
	}
	content := strings.ToLower(doc.Content)
	for _, term := range queryTerms {
		if strings.Contains(content, term) {
			return true
		}
	}
	for _, anchor := range g.cfg.AnchorTerms {
		if strings.Contains(content, strings.ToLower(anchor)) {
			return true
		}
	}
	return false
}
