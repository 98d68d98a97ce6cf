// Package chunk splits extracted document text into overlapping,
// boundary-aware pieces sized for embedding.
package chunk

import (
	"fmt"
	"strings"
)

// breakFloor is the minimum fraction of the window a natural break must
// cover for the window to shrink to it. Earlier breaks are ignored so
// chunks stay close to the configured size.
const breakFloor = 0.8

// Chunk is one piece of split text. Index is the zero-based position
// within the source text.
type Chunk struct {
	Text  string
	Index int
	Meta  map[string]string
}

// Splitter produces fixed-size chunks with a configured overlap between
// consecutive chunks. Windows prefer to end on a sentence, newline or
// word boundary when one falls late enough in the window.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the chunking parameters. Overlap must be
// strictly smaller than size or consecutive windows could not advance.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d with size %d", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks, attaching a copy of meta to each.
// Whitespace-only pieces are dropped. Returns nil for empty input.
func (s *Splitter) Split(text string, meta map[string]string) []Chunk {
	if len(text) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + s.size
		if end >= len(text) {
			chunks = appendChunk(chunks, text[start:], meta)
			break
		}

		window := text[start:end]
		bp := breakPoint(window)
		if float64(bp) > float64(s.size)*breakFloor {
			end = start + bp + 1
		}

		chunks = appendChunk(chunks, text[start:end], meta)

		next := end - s.overlap
		if next <= start {
			// Overlap would stall on a shrunk window. Drop it for this step.
			next = end
		}
		start = next
	}
	return chunks
}

func appendChunk(chunks []Chunk, piece string, meta map[string]string) []Chunk {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return chunks
	}
	m := make(map[string]string, len(meta))
	for k, v := range meta {
		m[k] = v
	}
	return append(chunks, Chunk{Text: piece, Index: len(chunks), Meta: m})
}

// breakPoint finds the rightmost sentence end, newline or space in the
// window. Returns -1 when the window has none.
func breakPoint(window string) int {
	bp := strings.LastIndexByte(window, '.')
	if i := strings.LastIndexByte(window, '\n'); i > bp {
		bp = i
	}
	if i := strings.LastIndexByte(window, ' '); i > bp {
		bp = i
	}
	return bp
}
