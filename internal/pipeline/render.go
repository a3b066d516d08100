package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/askpatrick/patrick/internal/index"
	"github.com/askpatrick/patrick/session"
	"github.com/askpatrick/patrick/tools/web_search/models"
)

const noWebResultsMarker = "No web results available."

// renderDocuments groups chunks by source, orders each source's chunks by
// page ascending, and renders one labeled block per source. Duplicate
// (source, page) pairs are dropped before rendering.
func renderDocuments(docs []index.Chunk) string {
	if len(docs) == 0 {
		return "No relevant documents found."
	}

	var order []string
	bySource := make(map[string][]index.Chunk)
	for _, doc := range docs {
		if _, ok := bySource[doc.Source]; !ok {
			order = append(order, doc.Source)
		}
		bySource[doc.Source] = append(bySource[doc.Source], doc)
	}

	seen := make(map[string]struct{})
	var blocks []string
	for _, source := range order {
		chunks := bySource[source]
		sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Page < chunks[j].Page })

		var parts []string
		for _, chunk := range chunks {
			key := fmt.Sprintf("%s-%d", source, chunk.Page)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			parts = append(parts, fmt.Sprintf("[Page %d]: %s", chunk.Page, strings.TrimSpace(chunk.Content)))
		}
		if len(parts) > 0 {
			blocks = append(blocks, fmt.Sprintf("Source: %s\n%s", source, strings.Join(parts, "\n\n")))
		}
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// renderWebResults renders numbered result blocks, or an explicit marker when
// there are none so the model is not left inferring silence.
func renderWebResults(results []models.Result) string {
	if len(results) == 0 {
		return noWebResultsMarker
	}
	var blocks []string
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("[Result %d]\nTitle: %s\nContent: %s\nURL: %s",
			i+1, r.Title, r.Snippet, r.URL))
	}
	return strings.Join(blocks, "\n\n")
}

// renderHistory lays out earlier turns of the session as Q/A pairs so the
// model can resolve follow-up questions. Empty history renders nothing.
func renderHistory(history []session.Exchange) string {
	if len(history) == 0 {
		return ""
	}
	var turns []string
	for _, ex := range history {
		turns = append(turns, fmt.Sprintf("Q: %s\nA: %s", ex.Question, ex.Answer))
	}
	return "Conversation History:\n" + strings.Join(turns, "\n\n")
}

// composePrompt assembles the single synthesis prompt from the persona
// template, the conversation so far, both rendered contexts, and the
// question.
func composePrompt(template, query string, history []session.Exchange, docs []index.Chunk, web []models.Result) string {
	input := fmt.Sprintf(`Question: %s

Document Context:
%s

Web Results:
%s`, query, renderDocuments(docs), renderWebResults(web))
	if h := renderHistory(history); h != "" {
		input = h + "\n\n" + input
	}
	return fmt.Sprintf(`%s

<input>
%s
</input>

Please provide your response:`, template, input)
}
