package db

// KNNQuery is the input for vector similarity search.
// Filter entries become tag-equality pre-filters, ANDed together.
type KNNQuery struct {
	IndexName string
	Filter    map[string]string
	Vector    []float32
	K         int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. Distance is the
// raw metric value reported by the index (cosine distance for this
// service), ascending.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
