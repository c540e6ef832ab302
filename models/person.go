package models

// Person is an entity extracted from ingested documents and targeted by
// MENTIONS relations from chunks. IDs are slugs derived from the name.
type Person struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles,omitempty"`
	Skills []string `json:"skills,omitempty"`
}

// EvidenceHit is one chunk-level citation supporting a ranked person.
type EvidenceHit struct {
	DocumentID string  `json:"documentId"`
	ChunkID    string  `json:"chunkId"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

// PersonResult is a person with its aggregated relevance and supporting
// evidence. AggregateScore is the sum of all contributing chunk scores;
// Evidence is capped at MaxEvidencePerPerson entries, best first.
type PersonResult struct {
	Person         Person
	AggregateScore float64
	Evidence       []EvidenceHit
}

// MaxEvidencePerPerson caps the citations carried per ranked person.
const MaxEvidencePerPerson = 5

// SnippetMaxChars bounds the evidence text excerpt.
const SnippetMaxChars = 240
