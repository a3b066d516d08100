package pipeline

import (
	"strings"
	"testing"

	"github.com/askpatrick/patrick/internal/index"
	"github.com/askpatrick/patrick/session"
	"github.com/askpatrick/patrick/tools/web_search/models"
)

func TestRenderDocumentsEmpty(t *testing.T) {
	t.Parallel()
	if got := renderDocuments(nil); got != "No relevant documents found." {
		t.Fatalf("renderDocuments(nil) = %q", got)
	}
}

func TestRenderDocumentsGroupsAndSorts(t *testing.T) {
	t.Parallel()
	docs := []index.Chunk{
		{Content: "late page", Source: "b.pdf", Page: 7},
		{Content: "first file", Source: "a.pdf", Page: 2},
		{Content: "early page", Source: "b.pdf", Page: 1},
	}
	got := renderDocuments(docs)

	// sources appear in first-appearance order
	if strings.Index(got, "Source: b.pdf") > strings.Index(got, "Source: a.pdf") {
		t.Fatalf("source order lost:\n%s", got)
	}
	// within a source, pages ascend
	if strings.Index(got, "[Page 1]: early page") > strings.Index(got, "[Page 7]: late page") {
		t.Fatalf("pages not sorted ascending:\n%s", got)
	}
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Fatalf("missing source separator:\n%s", got)
	}
}

func TestRenderDocumentsDedupsSourcePage(t *testing.T) {
	t.Parallel()
	docs := []index.Chunk{
		{Content: "chunk one", Source: "a.pdf", Page: 3},
		{Content: "chunk two same page", Source: "a.pdf", Page: 3},
		{Content: "other page", Source: "a.pdf", Page: 4},
	}
	got := renderDocuments(docs)
	if strings.Count(got, "[Page 3]") != 1 {
		t.Fatalf("duplicate (source, page) rendered twice:\n%s", got)
	}
	if !strings.Contains(got, "[Page 4]") {
		t.Fatalf("distinct page dropped:\n%s", got)
	}
}

func TestRenderWebResults(t *testing.T) {
	t.Parallel()
	if got := renderWebResults(nil); got != noWebResultsMarker {
		t.Fatalf("renderWebResults(nil) = %q", got)
	}
	results := []models.Result{
		{Title: "T1", Snippet: "S1", URL: "https://one"},
		{Title: "T2", Snippet: "S2", URL: "https://two"},
	}
	got := renderWebResults(results)
	if !strings.Contains(got, "[Result 1]\nTitle: T1") || !strings.Contains(got, "[Result 2]\nTitle: T2") {
		t.Fatalf("renderWebResults() = %q", got)
	}
}

func TestComposePromptStructure(t *testing.T) {
	t.Parallel()
	got := composePrompt("PERSONA", "what is up?", nil,
		[]index.Chunk{{Content: "ctx", Source: "a.txt", Page: 1}},
		nil)
	for _, want := range []string{
		"PERSONA",
		"<input>",
		"Question: what is up?",
		"Document Context:",
		"[Page 1]: ctx",
		"Web Results:",
		noWebResultsMarker,
		"</input>",
		"Please provide your response:",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("composePrompt() missing %q in:\n%s", want, got)
		}
	}
	if strings.Index(got, "PERSONA") > strings.Index(got, "<input>") {
		t.Fatalf("persona must precede the input block")
	}
	if strings.Contains(got, "Conversation History:") {
		t.Fatalf("empty history must render no history section:\n%s", got)
	}
}

func TestComposePromptWithHistory(t *testing.T) {
	t.Parallel()
	history := []session.Exchange{
		{Question: "first?", Answer: "one"},
		{Question: "second?", Answer: "two"},
	}
	got := composePrompt("PERSONA", "third?", history, nil, nil)
	for _, want := range []string{
		"Conversation History:",
		"Q: first?\nA: one",
		"Q: second?\nA: two",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("composePrompt() missing %q in:\n%s", want, got)
		}
	}
	if strings.Index(got, "Conversation History:") > strings.Index(got, "Question: third?") {
		t.Fatalf("history must precede the current question:\n%s", got)
	}
}
