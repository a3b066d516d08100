package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/askpatrick/patrick/config"
	"github.com/askpatrick/patrick/internal/index"
	"github.com/askpatrick/patrick/internal/telemetry"
	"github.com/askpatrick/patrick/session"
	"github.com/askpatrick/patrick/tools/web_fetch"
	websearch "github.com/askpatrick/patrick/tools/web_search"
)

// DegradedAnswer is the fixed user-visible reply when synthesis fails.
const DegradedAnswer = "I apologize, but I encountered an error while processing your request. Please try again or contact support if the issue persists."

// maxTransitions bounds the node walk. The longest path is
// retrieve → grade → rewrite → web_search → generate → end.
const maxTransitions = 8

// LLM is the language-model surface the pipeline needs.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline runs one query through the conditional workflow. It holds only
// read-only snapshots (index, prompt template, clients); all mutable state
// lives in the per-query State.
type Pipeline struct {
	cfg      *config.Config
	logger   *log.Logger
	llm      LLM
	searcher websearch.WebSearcher // nil disables web augmentation
	fetcher  *web_fetch.Fetcher    // nil disables snippet enrichment
	idx      *index.Index          // nil yields empty retrieval
	prompt   string
	grader   Grader
	metrics  *telemetry.Telemetry
}

func New(cfg *config.Config, logger *log.Logger, llm LLM, searcher websearch.WebSearcher,
	fetcher *web_fetch.Fetcher, idx *index.Index, prompt string, metrics *telemetry.Telemetry) *Pipeline {
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		llm:      llm,
		searcher: searcher,
		fetcher:  fetcher,
		idx:      idx,
		prompt:   prompt,
		grader:   NewGrader(cfg.Grading),
		metrics:  metrics,
	}
}

// Run walks the graph from RETRIEVE to END and returns the final state.
// Every path passes through GENERATE, so Answer is always set. history holds
// the session's earlier exchanges; only the most recent ones reach synthesis.
func (p *Pipeline) Run(ctx context.Context, query string, history []session.Exchange) State {
	state := State{Query: query, History: p.recentHistory(history)}
	node := NodeRetrieve
	for steps := 0; node != NodeEnd && steps < maxTransitions; steps++ {
		state, node = p.step(ctx, state, node)
	}
	if state.Answer == "" {
		// unreachable unless the transition table is broken; still never
		// return silence to the caller
		state.Answer = DegradedAnswer
	}
	return state
}

// step executes one node and returns the successor. The conditional edge out
// of GRADE is the only branch in the graph.
func (p *Pipeline) step(ctx context.Context, state State, node Node) (State, Node) {
	switch node {
	case NodeRetrieve:
		return p.retrieve(ctx, state), NodeGrade
	case NodeGrade:
		state = p.grade(state)
		return state, p.decide(state)
	case NodeRewrite:
		return p.rewrite(ctx, state), NodeWebSearch
	case NodeWebSearch:
		return p.webSearch(ctx, state), NodeGenerate
	case NodeGenerate:
		return p.generate(ctx, state), NodeEnd
	default:
		return state, NodeEnd
	}
}

// decide is the conditional edge predicate. Augmentation is forced when no
// documents survived, the grader flagged insufficiency, too few documents
// remain, or the query asks for recency or comparison.
func (p *Pipeline) decide(state State) Node {
	if len(state.Graded) == 0 || state.AugmentationNeeded || len(state.Graded) < p.cfg.Grading.MinSufficient {
		return NodeRewrite
	}
	query := strings.ToLower(state.Query)
	for _, keyword := range p.cfg.Grading.RecencyKeywords {
		if strings.Contains(query, keyword) {
			return NodeRewrite
		}
	}
	return NodeGenerate
}

// retrieve merges diversity-aware and plain similarity search over the
// published index. Retrieval failures degrade to an empty candidate set.
func (p *Pipeline) retrieve(ctx context.Context, state State) State {
	state.Documents = nil
	if p.idx == nil || p.idx.Len() == 0 {
		return state
	}
	vecs, err := p.llm.CreateEmbedding(ctx, []string{state.Query})
	if err != nil || len(vecs) != 1 {
		p.logger.Printf("query embedding failed, retrieval degraded: %v", err)
		p.metrics.IncNodeDegradation(string(NodeRetrieve))
		return state
	}
	qv := vecs[0]

	rc := p.cfg.Retrieval
	results := p.idx.Diverse(qv, rc.DiversityK, rc.DiversityPool, rc.DiversityLambda)
	seen := make(map[string]struct{}, len(results))
	for _, doc := range results {
		seen[doc.Content] = struct{}{}
	}
	for _, doc := range p.idx.Similar(qv, rc.SimilarityK, rc.SimilarityThreshold) {
		if _, dup := seen[doc.Content]; dup {
			continue
		}
		seen[doc.Content] = struct{}{}
		results = append(results, doc)
	}
	state.Documents = results
	p.logger.Printf("retrieved %d documents for query", len(results))
	return state
}

func (p *Pipeline) grade(state State) State {
	state.Graded, state.AugmentationNeeded = p.grader.Grade(state.Query, state.Documents)
	p.logger.Printf("graded %d of %d documents relevant (augmentation needed: %v)",
		len(state.Graded), len(state.Documents), state.AugmentationNeeded)
	return state
}

// rewrite reformulates the query for web search. Best-effort: any failure
// leaves the original query in place.
func (p *Pipeline) rewrite(ctx context.Context, state State) State {
	rewritten, err := p.llm.Generate(ctx,
		"Rewrite this query for web search to find the most relevant information: "+state.Query)
	if err != nil {
		p.logger.Printf("query rewrite failed, using original query: %v", err)
		p.metrics.IncNodeDegradation(string(NodeRewrite))
		state.RewrittenQuery = state.Query
		return state
	}
	rewritten = strings.Trim(strings.TrimSpace(rewritten), `"`)
	if rewritten == "" {
		rewritten = state.Query
	}
	state.RewrittenQuery = rewritten
	return state
}

// webSearch fetches external snippets. Optional enrichment, never a hard
// dependency: provider errors yield an empty result set.
func (p *Pipeline) webSearch(ctx context.Context, state State) State {
	state.WebResults = nil
	if p.searcher == nil {
		p.logger.Printf("no web search provider configured")
		return state
	}
	query := state.RewrittenQuery
	if query == "" {
		query = state.Query
	}
	searchCtx, cancel := context.WithTimeout(ctx, p.cfg.WebSearch.Timeout)
	defer cancel()
	results, err := p.searcher.Discover(searchCtx, query, p.cfg.WebSearch.MaxResults)
	if err != nil {
		p.logger.Printf("web search failed: %v", err)
		p.metrics.IncWebSearchErrors()
		return state
	}
	if p.cfg.WebSearch.FetchTopHit && p.fetcher != nil && len(results) > 0 {
		fetchCtx, cancelFetch := context.WithTimeout(ctx, p.cfg.WebSearch.Timeout)
		if text, err := p.fetcher.ReadableText(fetchCtx, results[0].URL); err == nil && text != "" {
			results[0].Snippet = text
		} else if err != nil {
			p.logger.Printf("top hit enrichment skipped: %v", err)
		}
		cancelFetch()
	}
	state.WebResults = results
	p.logger.Printf("web search returned %d results", len(results))
	return state
}

// generate issues the single synthesis call. A model failure surfaces the
// fixed degraded answer, never an error.
func (p *Pipeline) generate(ctx context.Context, state State) State {
	prompt := composePrompt(p.prompt, state.Query, state.History, state.Graded, state.WebResults)
	genCtx, cancel := context.WithTimeout(ctx, p.llmTimeout())
	defer cancel()
	answer, err := p.llm.Generate(genCtx, prompt)
	if err != nil {
		p.logger.Printf("synthesis failed: %v", err)
		p.metrics.IncNodeDegradation(string(NodeGenerate))
		p.metrics.IncQueryFailures()
		state.Answer = DegradedAnswer
		return state
	}
	state.Answer = answer
	return state
}

// recentHistory caps the conversation window carried into synthesis. A
// non-positive limit disables history entirely.
func (p *Pipeline) recentHistory(history []session.Exchange) []session.Exchange {
	limit := p.cfg.Session.MaxHistory
	if limit <= 0 {
		return nil
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

func (p *Pipeline) llmTimeout() time.Duration {
	if p.cfg.LLM.Timeout > 0 {
		return p.cfg.LLM.Timeout
	}
	return 60 * time.Second
}
