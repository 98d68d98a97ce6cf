package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// sourcePreviewLimit caps how many characters of chunk text a source
// echoes back to the client.
const sourcePreviewLimit = 500

const systemPrompt = "You are a helpful assistant that answers questions based on provided context."

// buildContext renders retrieved chunks into the context block of the
// prompt, numbered from 1 in relevance order.
func buildContext(hits []domain.SearchHit) string {
	parts := []string{"Here is the relevant context from the documents:\n"}

	for i, hit := range hits {
		parts = append(parts, fmt.Sprintf("\n--- Document Chunk %d ---", i+1))
		parts = append(parts, hit.Text)
		if filename, ok := hit.Meta[domain.MetaFilename]; ok {
			parts = append(parts, fmt.Sprintf("(Source: %s)", filename))
		}
	}

	return strings.Join(parts, "\n")
}

// buildPrompt assembles the full user prompt around the context block.
func buildPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`You are a helpful assistant that answers questions based on the provided context.

%s

Question: %s

Instructions:
- Answer the question based on the context provided above
- If the context doesn't contain enough information to answer the question, say so
- Be concise and accurate
- Cite specific parts of the context when possible

Answer:`, contextBlock, question)
}

// buildSources converts hits into client-facing sources with a capped
// text preview. RelevanceScore is 1 - cosine distance, unclamped.
func buildSources(hits []domain.SearchHit) []domain.Source {
	sources := make([]domain.Source, len(hits))
	for i, hit := range hits {
		text := hit.Text
		// Cap counts runes, not bytes: a byte slice could split a
		// multi-byte character and emit an invalid sequence.
		if runes := []rune(text); len(runes) > sourcePreviewLimit {
			text = string(runes[:sourcePreviewLimit]) + "..."
		}
		sources[i] = domain.Source{
			Text:           text,
			Metadata:       hit.Meta,
			RelevanceScore: 1 - hit.Distance,
		}
	}
	return sources
}
