package answer

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Embedder vectorizes the question for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher retrieves the nearest chunks for a query vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]domain.SearchHit, error)
}

// Generator produces the final answer from a prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}
