package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// Stats describes the state of the chunk collection.
type Stats struct {
	Name   string
	Count  int
	Status string
}

// Service handles document ingestion and deletion: extract, chunk,
// vectorize and index in one pass.
type Service struct {
	extractor Extractor
	splitter  Splitter
	embedder  Embedder
	repo      Repository
	files     FileStore
}

// New creates a document service.
func New(extractor Extractor, splitter Splitter, embedder Embedder, repo Repository, files FileStore) *Service {
	return &Service{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		repo:      repo,
		files:     files,
	}
}

// Ingest processes an uploaded file end to end and returns the stored
// document. Any failure leaves no partial chunks behind because the
// batch upsert is the last step.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (domain.Document, error) {
	if !s.extractor.IsSupported(filename) {
		return domain.Document{}, fmt.Errorf("file %q: %w", filename, domain.ErrUnsupportedFormat)
	}

	documentID := uuid.NewString()
	uploadedAt := time.Now().UTC()

	if _, err := s.files.Save(documentID, filename, data); err != nil {
		return domain.Document{}, fmt.Errorf("save upload: %w", err)
	}

	text, err := s.extractor.Text(ctx, filename, data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract text: %w", err)
	}

	meta := map[string]string{
		domain.MetaFilename:   filename,
		domain.MetaUploadedAt: uploadedAt.Format(time.RFC3339),
	}
	pieces := s.splitter.Split(text, meta)
	if len(pieces) == 0 {
		return domain.Document{}, fmt.Errorf("no chunks produced from %q: %w", filename, domain.ErrExtractionFailed)
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}

	batch, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.Document{}, fmt.Errorf("vectorize chunks: %w", err)
	}
	if len(batch.Embeddings) != len(pieces) {
		return domain.Document{}, fmt.Errorf(
			"got %d embeddings for %d chunks: %w",
			len(batch.Embeddings), len(pieces), domain.ErrEmbeddingProviderError)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID: documentID,
			Index:      p.Index,
			Total:      len(pieces),
			Text:       p.Text,
			Meta:       p.Meta,
			Vector:     batch.Embeddings[i],
		}
	}

	if err := s.repo.UpsertBatch(ctx, chunks); err != nil {
		return domain.Document{}, fmt.Errorf("index chunks: %w", err)
	}

	metrics.IngestedChunksTotal.Add(float64(len(chunks)))

	return domain.Document{
		ID:         documentID,
		Filename:   filename,
		NumChunks:  len(chunks),
		UploadedAt: uploadedAt,
	}, nil
}

// Delete removes a document's chunks from the index and its upload from
// disk. Returns the number of chunks removed; unknown IDs remove nothing.
func (s *Service) Delete(ctx context.Context, documentID string) (int, error) {
	n, err := s.repo.DeleteByDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.files.Remove(documentID); err != nil {
		return n, fmt.Errorf("remove upload: %w", err)
	}
	return n, nil
}

// Stats reports the collection name and indexed chunk count.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	return Stats{
		Name:   s.repo.Collection(),
		Count:  count,
		Status: "active",
	}, nil
}
