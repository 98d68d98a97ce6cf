package domain

import "errors"

var (
	// ErrUnsupportedFormat signals a file suffix outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailed signals that text extraction from an uploaded file failed.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a non-retryable language model failure.
	ErrGenerationFailed = errors.New("answer generation failed")
	// ErrProviderUnavailable signals a transient provider failure
	// (network, rate limit, 5xx). Eligible for retry.
	ErrProviderUnavailable = errors.New("provider temporarily unavailable")
)
