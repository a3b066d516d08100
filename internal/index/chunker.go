package index

import (
	"strings"

	"github.com/askpatrick/patrick/internal/ingest"
)

// Chunker splits text units into overlapping windows, preferring natural
// boundaries over hard cuts. Windows are measured in runes.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split turns one text unit into chunks carrying the unit's provenance.
func (c *Chunker) Split(unit ingest.TextUnit) []Chunk {
	text := strings.TrimSpace(unit.Content)
	if text == "" {
		return nil
	}
	var chunks []Chunk
	for _, part := range c.windows([]rune(text)) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:    part,
			Source:     unit.Source,
			Page:       unit.Page,
			TotalPages: unit.TotalPages,
		})
	}
	return chunks
}

func (c *Chunker) windows(runes []rune) []string {
	if len(runes) <= c.size {
		return []string{string(runes)}
	}
	var parts []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}
		cut := c.naturalCut(runes, start, end)
		parts = append(parts, string(runes[start:cut]))
		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return parts
}

// naturalCut looks for a paragraph break, then a sentence end, in the second
// half of the window. Falls back to the hard limit.
func (c *Chunker) naturalCut(runes []rune, start, end int) int {
	min := start + c.size/2
	for i := end - 1; i > min; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > min; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && isSpace(runes[i+1]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isSpace(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }
