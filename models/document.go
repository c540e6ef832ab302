package models

import "time"

// Document is a parsed source file. The id is the sha256 of the extracted
// text bytes, so re-ingesting identical content is idempotent.
type Document struct {
	ID        string     `json:"id"`
	Path      string     `json:"path"`
	Mime      string     `json:"mime,omitempty"`
	Bytes     int64      `json:"bytes,omitempty"`
	Status    string     `json:"status"` // pending, processing, ingested
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Chunk is a bounded span of document text with its embedding vector.
// Chunks are written by the ingestion worker and read-only to the search
// path.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
	Order     int       `json:"order"`
	Tokens    int       `json:"tokens"`
}
