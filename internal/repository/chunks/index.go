package chunks

import (
	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain"
)

// buildIndex defines the FT index over chunk hashes: tag fields for
// exact-match filters, numeric fields for chunk positions, and the
// HNSW cosine vector field used by KNN retrieval.
func (r *Repo) buildIndex() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.keyPrefix + r.collection + ":"},
		Fields: []db.IndexField{
			{Name: domain.MetaDocumentID, Type: db.IndexFieldTag},
			{Name: domain.MetaFilename, Type: db.IndexFieldTag},
			{Name: domain.MetaUploadedAt, Type: db.IndexFieldTag},
			{Name: domain.MetaChunkIndex, Type: db.IndexFieldNumeric},
			{Name: domain.MetaChunkTotal, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}
}
