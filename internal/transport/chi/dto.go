package chi

import "time"

// Error codes returned in the error response body.
const (
	CodeBadRequest             = "bad_request"
	CodeValidationFailed       = "validation_failed"
	CodePayloadTooLarge        = "payload_too_large"
	CodeUnsupportedFormat      = "unsupported_format"
	CodeExtractionFailed       = "extraction_failed"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeGenerationFailed       = "generation_failed"
	CodeLLMUnavailable         = "llm_unavailable"
	CodeInternalError          = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UploadResponse confirms a processed upload.
type UploadResponse struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	NumChunks  int       `json:"num_chunks"`
	Message    string    `json:"message"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// QueryRequest asks a question over the indexed documents.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k,omitempty"`
}

// SourceDocument is one retrieved chunk backing the answer.
type SourceDocument struct {
	Text           string            `json:"text"`
	Metadata       map[string]string `json:"metadata"`
	RelevanceScore float64           `json:"relevance_score"`
}

// QueryResponse carries the generated answer and its sources. Evidence
// is false when nothing matched and the answer is the fixed fallback.
type QueryResponse struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Sources    []SourceDocument `json:"sources"`
	NumSources int              `json:"num_sources"`
	Evidence   bool             `json:"evidence"`
}

// DeleteResponse confirms a document deletion.
type DeleteResponse struct {
	Message       string `json:"message"`
	DocumentID    string `json:"document_id"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

// StatsResponse describes the chunk collection.
type StatsResponse struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Status string `json:"status"`
}

// HealthResponse reports service and component health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}
