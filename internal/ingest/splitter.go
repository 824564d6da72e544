package ingest

import "strings"

const (
	// DefaultChunkSize bounds the length of a single chunk in bytes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how much of the previous chunk's tail is
	// repeated at the start of the next one.
	DefaultChunkOverlap = 200
)

// Splitter splits text into overlapping chunks, preferring to break at
// paragraph, then line, then word boundaries before falling back to a hard
// cut. Separator preference mirrors the recursive character splitters common
// in RAG pipelines.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Non-positive arguments select the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

var separators = []string{"\n\n", "\n", " "}

// Split breaks text into chunks of at most chunkSize bytes with the
// configured overlap. Short inputs come back as a single chunk; empty or
// whitespace-only input yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := s.findCut(text, start, end)
		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - s.overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// findCut picks the best break position in text[start:end], scanning the
// separator list from coarsest to finest and keeping the cut within the
// second half of the window so chunks stay reasonably full.
func (s *Splitter) findCut(text string, start, end int) int {
	window := text[start:end]
	floor := len(window) / 2
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > floor {
			return start + idx + len(sep)
		}
	}
	return end
}
