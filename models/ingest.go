package models

// IngestFile describes one uploaded object in an ingestion manifest.
type IngestFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	ETag   string `json:"etag,omitempty"`
}

// ChunkingOptions are forwarded to the worker with every job. Token counts
// use the ~4 chars/token heuristic the worker chunks with.
type ChunkingOptions struct {
	ChunkTokens   int `json:"chunkTokens"`
	OverlapTokens int `json:"overlapTokens"`
}

// DefaultChunkingOptions matches the worker's chunker defaults.
func DefaultChunkingOptions() ChunkingOptions {
	return ChunkingOptions{ChunkTokens: 600, OverlapTokens: 80}
}

// IngestStartRequest is the wire shape of POST /ingest/start.
type IngestStartRequest struct {
	UploadSessionID string       `json:"uploadSessionId"`
	S3Prefix        string       `json:"s3Prefix"`
	Files           []IngestFile `json:"files"`
}

// IngestJob is the payload dispatched to the worker webhook. It exists only
// at dispatch time; the core never persists it.
type IngestJob struct {
	JobID    string          `json:"jobId"`
	S3Prefix string          `json:"s3Prefix"`
	Files    []IngestFile    `json:"files"`
	Options  ChunkingOptions `json:"options"`
}

// IngestStartResponse is returned to the original caller on acceptance.
type IngestStartResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}
