package models

// Bounds for the requested result count.
const (
	MinTopK     = 1
	MaxTopK     = 50
	DefaultTopK = 10
)

// SearchRequest is the wire shape of POST /search.
type SearchRequest struct {
	Q          string `json:"q"`
	TopK       int    `json:"topK"`
	Synthesize bool   `json:"synthesize"`
}

// ClampedTopK returns the effective result count: zero and negative values
// are raised to the minimum, oversized requests are capped.
func (r SearchRequest) ClampedTopK() int {
	k := r.TopK
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// Citation is a chunk-level provenance record on the wire.
type Citation struct {
	DocumentID string  `json:"documentId"`
	ChunkID    string  `json:"chunkId"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

// RankedPerson is one entry of the search response.
type RankedPerson struct {
	Person    Person     `json:"person"`
	Score     float64    `json:"score"`
	Citations []Citation `json:"citations"`
}

// SearchResponse is the wire shape of a successful search.
type SearchResponse struct {
	QueryEmbeddingModel string         `json:"queryEmbeddingModel"`
	Results             []RankedPerson `json:"results"`
	Answer              string         `json:"answer,omitempty"`
}
