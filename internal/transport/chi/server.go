// Package chi exposes the document QA service over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	documentuc "github.com/kailas-cloud/docqa/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	"github.com/kailas-cloud/docqa/internal/version"
)

// maxQuestionLen bounds the query question length in characters.
const maxQuestionLen = 1000

// DocumentService covers upload, deletion and collection stats.
type DocumentService interface {
	Ingest(ctx context.Context, filename string, data []byte) (domain.Document, error)
	Delete(ctx context.Context, documentID string) (int, error)
	Stats(ctx context.Context) (documentuc.Stats, error)
}

// AnswerService answers questions over the indexed documents.
type AnswerService interface {
	Ask(ctx context.Context, question string, topK int) (answeruc.Result, error)
}

// HealthService probes component availability.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Config holds transport-level settings.
type Config struct {
	MaxUploadBytes int64
	APIKeys        []string
}

// Server routes HTTP requests to the use case services.
type Server struct {
	documents     DocumentService
	answers       AnswerService
	health        HealthService
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(documents DocumentService, answers AnswerService, health HealthService, cfg Config, logger *zap.Logger) *Server {
	s := &Server{
		documents: documents,
		answers:   answers,
		health:    health,
		cfg:       cfg,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusBadRequest, CodeUnsupportedFormat),
		sentinelHandler(domain.ErrExtractionFailed, http.StatusUnprocessableEntity, CodeExtractionFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusServiceUnavailable, CodeLLMUnavailable),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, CodeGenerationFailed),
	}
	return s
}

// Router assembles the full route tree with middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/query", s.handleQuery)
		r.Delete("/document/{documentID}", s.handleDelete)
		r.Get("/stats", s.handleStats)
		r.Get("/health", s.handleHealth)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// handleUpload handles POST /api/v1/upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("file size exceeds maximum limit of %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "multipart form must contain a \"file\" part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("file size exceeds maximum limit of %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read uploaded file")
		return
	}

	doc, err := s.documents.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("num_chunks", doc.NumChunks))

	writeJSON(w, http.StatusOK, UploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		NumChunks:  doc.NumChunks,
		Message:    "Document uploaded and processed successfully",
		UploadedAt: doc.UploadedAt,
	})
}

// handleQuery handles POST /api/v1/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Question == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return
	}
	if utf8.RuneCountInString(req.Question) > maxQuestionLen {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("question must be at most %d characters", maxQuestionLen))
		return
	}

	topK := 0
	if req.TopK != nil {
		if *req.TopK < 1 || *req.TopK > 20 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must be between 1 and 20")
			return
		}
		topK = *req.TopK
	}

	result, err := s.answers.Ask(r.Context(), req.Question, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := make([]SourceDocument, len(result.Sources))
	for i, src := range result.Sources {
		sources[i] = SourceDocument{
			Text:           src.Text,
			Metadata:       src.Metadata,
			RelevanceScore: src.RelevanceScore,
		}
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Question:   req.Question,
		Answer:     result.Answer,
		Sources:    sources,
		NumSources: result.NumSources,
		Evidence:   result.Evidence,
	})
}

// handleDelete handles DELETE /api/v1/document/{documentID}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if documentID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "document ID is required")
		return
	}

	n, err := s.documents.Delete(r.Context(), documentID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{
		Message:       fmt.Sprintf("Document %s deleted successfully", documentID),
		DocumentID:    documentID,
		ChunksDeleted: n,
	})
}

// handleStats handles GET /api/v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.documents.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Name:   stats.Name,
		Count:  stats.Count,
		Status: stats.Status,
	})
}

// handleHealth handles GET /api/v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  report.Checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// sentinelHandler returns an errorHandler matching a single sentinel
// error. The response message is the sentinel text, never internals.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// isTooLarge detects MaxBytesReader truncation. The multipart reader
// does not always wrap the error, so the message check stays.
func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
