// Package chunks persists document chunks as Redis hashes behind an
// FT vector index and serves KNN retrieval over them.
package chunks

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain"
)

// Stored hash field names. Underscore-prefixed fields are internal and
// never surface as chunk metadata.
const (
	fieldContent = "__content"
	fieldVector  = "__vector"
)

// deleteBatchLimit bounds how many chunk keys one delete round collects
// from the index. Documents can exceed this, so deletion loops until the
// index has no keys left for the document.
const deleteBatchLimit = 10000

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchKeys(ctx context.Context, index string, filter map[string]string, limit int) ([]string, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements chunk storage and retrieval for a single collection.
type Repo struct {
	store      store
	collection string
	keyPrefix  string
	vectorDim  int
	hnsw       HNSWConfig
}

// New creates a chunk repository over the given collection.
func New(s store, collection, keyPrefix string, vectorDim int, hnsw HNSWConfig) *Repo {
	return &Repo{
		store:      s,
		collection: collection,
		keyPrefix:  keyPrefix,
		vectorDim:  vectorDim,
		hnsw:       hnsw,
	}
}

// Collection returns the collection name this repository serves.
func (r *Repo) Collection() string {
	return r.collection
}

// EnsureIndex creates the vector index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := r.buildIndex()
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// Reset drops the index and recreates it empty. A missing index is not
// an error, so Reset is safe on first start.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.indexName(), err)
	}
	return r.EnsureIndex(ctx)
}

// UpsertBatch writes all chunks in a single pipelined round-trip.
func (r *Repo) UpsertBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		fields := make(map[string]string, len(c.Meta)+2)
		for k, v := range c.Meta {
			fields[k] = v
		}
		fields[domain.MetaDocumentID] = c.DocumentID
		fields[domain.MetaChunkIndex] = strconv.Itoa(c.Index)
		fields[domain.MetaChunkTotal] = strconv.Itoa(c.Total)
		fields[fieldContent] = c.Text
		fields[fieldVector] = vectorToBytes(c.Vector)

		items[i] = db.HashSetItem{Key: r.chunkKey(c.ID()), Fields: fields}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(chunks), err)
	}
	return nil
}

// Search returns up to topK nearest chunks by cosine distance, closest
// first. An optional filter restricts candidates by tag equality before
// the KNN step.
func (r *Repo) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]domain.SearchHit, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    vector,
		K:         topK,
		Filter:    filter,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.collection, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	hits := make([]domain.SearchHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, parseEntry(entry))
	}
	return hits, nil
}

// DeleteByDocument removes every chunk of a document and reports how
// many were deleted. Unknown document IDs delete nothing.
func (r *Repo) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	filter := map[string]string{domain.MetaDocumentID: documentID}

	deleted := 0
	for {
		keys, err := r.store.SearchKeys(ctx, r.indexName(), filter, deleteBatchLimit)
		if err != nil {
			return deleted, fmt.Errorf("find chunks of %s: %w", documentID, err)
		}
		if len(keys) == 0 {
			return deleted, nil
		}

		if err := r.store.DelMulti(ctx, keys); err != nil {
			return deleted, fmt.Errorf("delete chunks of %s: %w", documentID, err)
		}
		deleted += len(keys)
	}
}

// Count returns the number of indexed chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName())
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.collection, err)
	}
	return n, nil
}

func (r *Repo) chunkKey(chunkID string) string {
	return fmt.Sprintf("%s%s:%s", r.keyPrefix, r.collection, chunkID)
}

func (r *Repo) indexName() string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, r.collection)
}

// parseEntry maps stored hash fields to a search hit. The vector blob
// stays in the store; everything else except content becomes metadata.
func parseEntry(entry db.SearchEntry) domain.SearchHit {
	hit := domain.SearchHit{
		Distance: entry.Distance,
		Meta:     make(map[string]string, len(entry.Fields)),
	}
	for k, v := range entry.Fields {
		switch k {
		case fieldContent:
			hit.Text = v
		case fieldVector:
			// skip the binary blob
		default:
			hit.Meta[k] = v
		}
	}
	return hit
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
