package document

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
)

// Extractor converts uploaded files into plain text.
type Extractor interface {
	IsSupported(filename string) bool
	Text(ctx context.Context, filename string, data []byte) (string, error)
}

// Splitter cuts extracted text into chunks carrying shared metadata.
type Splitter interface {
	Split(text string, meta map[string]string) []chunk.Chunk
}

// Embedder vectorizes chunk texts in one call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Repository defines the storage contract for document chunks.
type Repository interface {
	UpsertBatch(ctx context.Context, chunks []domain.Chunk) error
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
	Count(ctx context.Context) (int, error)
	Collection() string
}

// FileStore keeps the original uploads on disk.
type FileStore interface {
	Save(documentID, filename string, data []byte) (string, error)
	Remove(documentID string) error
}
