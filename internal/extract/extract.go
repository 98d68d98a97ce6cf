package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Extractor converts uploaded files into plain text for chunking.
type Extractor struct {
	logger *zap.Logger
}

// New creates a text extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

type extractFunc func(data []byte) (string, error)

var extractors = map[string]extractFunc{
	".pdf":  extractPDF,
	".txt":  extractPlain,
	".docx": extractDocx,
	".pptx": extractPptx,
	".xlsx": extractXlsx,
	".csv":  extractCSV,
}

// IsSupported reports whether the file extension has an extractor.
func (e *Extractor) IsSupported(filename string) bool {
	_, ok := extractors[normalizeExt(filename)]
	return ok
}

// Text extracts the plain text content of the file. Unsupported
// extensions return domain.ErrUnsupportedFormat; parse failures
// return domain.ErrExtractionFailed.
func (e *Extractor) Text(ctx context.Context, filename string, data []byte) (string, error) {
	ext := normalizeExt(filename)

	fn, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("file type %q: %w", ext, domain.ErrUnsupportedFormat)
	}

	text, err := fn(data)
	if err != nil {
		e.logger.Warn("text extraction failed",
			zap.String("filename", filename),
			zap.String("ext", ext),
			zap.Error(err))
		return "", fmt.Errorf("extract %s: %v: %w", ext, err, domain.ErrExtractionFailed)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text content in %s: %w", ext, domain.ErrExtractionFailed)
	}
	return text, nil
}

func normalizeExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func extractPlain(data []byte) (string, error) {
	return string(data), nil
}
