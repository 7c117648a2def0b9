package vectorize

import (
	"strings"

	"github.com/alkashef/vector-store/internal/domain"
)

// DefaultMaxCharsPerChunk bounds the text sent per embedding request.
// A guardrail against oversized API payloads, not a summarization strategy.
const DefaultMaxCharsPerChunk = 4000

// ChunkItem is one section prepared for embedding: truncated text plus the
// metadata copied through to the section record.
type ChunkItem struct {
	Text       string
	Section    string
	Subsection string
	PageStart  *int
	PageEnd    *int
}

// Truncate cuts s to at most max characters. Hard cutoff, not word-aware.
// Non-positive max leaves s unchanged.
func Truncate(s string, max int) string {
	if s == "" || max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// PrepareChunks turns the ordered sections of a document into chunk items,
// preserving input order. Section texts are truncated to maxChars; sections
// whose text is empty or whitespace-only after truncation are dropped
// silently. Metadata strings are trimmed of surrounding whitespace.
func PrepareChunks(sections []domain.Section, maxChars int) []ChunkItem {
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerChunk
	}

	items := make([]ChunkItem, 0, len(sections))
	for _, s := range sections {
		txt := Truncate(s.Text, maxChars)
		if strings.TrimSpace(txt) == "" {
			continue
		}
		items = append(items, ChunkItem{
			Text:       txt,
			Section:    strings.TrimSpace(s.Section),
			Subsection: strings.TrimSpace(s.Subsection),
			PageStart:  s.PageStart,
			PageEnd:    s.PageEnd,
		})
	}
	return items
}
