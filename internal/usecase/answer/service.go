package answer

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/retry"
)

// NoEvidenceAnswer is returned when retrieval finds nothing to ground
// an answer on. The generator is not called in that case.
const NoEvidenceAnswer = "No relevant documents found to answer this question."

// Result is the outcome of answering a question. Evidence is false
// when no chunks matched and Answer is the fixed no-evidence text.
type Result struct {
	Answer     string
	Sources    []domain.Source
	NumSources int
	Evidence   bool
}

// Options tunes retrieval depth and generation parameters.
type Options struct {
	DefaultTopK int
	MaxTopK     int
	Temperature float32
	MaxTokens   int
}

// Service answers questions over the indexed documents: embed the
// question, retrieve the nearest chunks, generate grounded text.
type Service struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	policy    retry.Policy
	opts      Options
}

// New creates an answer service. The policy governs generator retries;
// retrieval and embedding failures are never retried here.
func New(embedder Embedder, searcher Searcher, generator Generator, policy retry.Policy, opts Options) *Service {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 20
	}
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		policy:    policy,
		opts:      opts,
	}
}

// Ask answers the question using up to topK retrieved chunks. A topK
// of zero or less selects the default; values above the maximum clamp.
func (s *Service) Ask(ctx context.Context, question string, topK int) (Result, error) {
	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	if topK > s.opts.MaxTopK {
		topK = s.opts.MaxTopK
	}

	embedded, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Result{}, fmt.Errorf("vectorize question: %w", err)
	}

	hits, err := s.searcher.Search(ctx, embedded.Embedding, topK, nil)
	if err != nil {
		return Result{}, fmt.Errorf("search chunks: %w", err)
	}

	if len(hits) == 0 {
		return Result{
			Answer:  NoEvidenceAnswer,
			Sources: []domain.Source{},
		}, nil
	}

	req := domain.GenerationRequest{
		System:      systemPrompt,
		Prompt:      buildPrompt(question, buildContext(hits)),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	}

	var text string
	err = s.policy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		text, genErr = s.generator.Generate(ctx, req)
		return genErr
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}

	return Result{
		Answer:     text,
		Sources:    buildSources(hits),
		NumSources: len(hits),
		Evidence:   true,
	}, nil
}
