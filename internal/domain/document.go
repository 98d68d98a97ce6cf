package domain

import (
	"fmt"
	"time"
)

// Metadata keys every stored chunk carries. Callers may add more.
const (
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
	MetaChunkTotal = "chunk_total"
	MetaFilename   = "filename"
	MetaUploadedAt = "uploaded_at"
)

// Document is an ingested file: the unit of upload and deletion.
type Document struct {
	ID         string
	Filename   string
	NumChunks  int
	UploadedAt time.Time
}

// Chunk is the atomic retrieval unit: a contiguous slice of a document's
// extracted text together with its embedding and flat metadata.
// Chunks are immutable once written; updates go through delete + re-ingest.
type Chunk struct {
	DocumentID string
	Index      int
	Total      int
	Text       string
	Meta       map[string]string
	Vector     []float32
}

// ID returns the deterministic chunk identifier, unique within a document.
func (c *Chunk) ID() string {
	return fmt.Sprintf("%s_chunk_%d", c.DocumentID, c.Index)
}

// SearchHit is a raw index query result. Distance is cosine distance:
// 0 means identical direction, larger means less similar.
type SearchHit struct {
	Text     string
	Meta     map[string]string
	Distance float64
}

// Source is the presentation view of a hit: a capped text preview and a
// similarity-oriented relevance score. RelevanceScore is 1 - distance and
// may be negative for highly dissimilar hits; it is never clamped.
type Source struct {
	Text           string
	Metadata       map[string]string
	RelevanceScore float64
}
