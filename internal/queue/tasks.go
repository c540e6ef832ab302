package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/config"
	"people-search-platform/internal/ingest"
	"people-search-platform/internal/logger"
	"people-search-platform/models"
	"people-search-platform/utils"
)

const TaskProcessIngest = "ingest:process"

// embedBatchSize bounds how many chunk texts go to the embedding API per
// call.
const embedBatchSize = 64

type IngestProcessPayload struct {
	JobID         string                 `json:"job_id"`
	Files         []models.IngestFile    `json:"files"`
	Options       models.ChunkingOptions `json:"options"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
}

// NewIngestProcessTask wraps a verified webhook job into an asynq task.
func NewIngestProcessTask(job models.IngestJob, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestProcessPayload{
		JobID:         job.JobID,
		Files:         job.Files,
		Options:       job.Options,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessIngest,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// GraphWriter is the slice of the graph store the processor writes through.
type GraphWriter interface {
	UpsertDocument(ctx context.Context, doc models.Document) error
	UpsertChunk(ctx context.Context, docID string, chunk models.Chunk) error
	UpsertMentions(ctx context.Context, chunkID string, persons []models.Person) error
}

// Embedder is the slice of the AI client the processor embeds through.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// TaskProcessor runs ingestion jobs: read, chunk, embed, upsert.
type TaskProcessor struct {
	store    GraphWriter
	embedder Embedder
	cfg      *config.Config
}

func NewTaskProcessor(store GraphWriter, embedder Embedder, cfg *config.Config) *TaskProcessor {
	return &TaskProcessor{store: store, embedder: embedder, cfg: cfg}
}

func (p *TaskProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	ctx = ai.WithCorrelationID(ctx, payload.CorrelationID)

	chunkTokens := payload.Options.ChunkTokens
	if chunkTokens <= 0 {
		chunkTokens = p.cfg.ChunkTokens
	}
	overlapTokens := payload.Options.OverlapTokens
	if overlapTokens <= 0 {
		overlapTokens = p.cfg.OverlapTokens
	}
	minTokens := p.cfg.MinChunkTokens

	totalDocs := 0
	totalChunks := 0

	for _, file := range payload.Files {
		text, err := ingest.ReadLocalText(p.cfg.WorkerLocalDataDir, file.Path)
		if err != nil {
			logger.Warn("file skipped",
				"jobId", payload.JobID, "path", file.Path,
				"correlationId", payload.CorrelationID, "error", err.Error())
			continue
		}

		raw := []byte(text)
		docID := utils.Sha256Hex(raw)
		mimeType := guessMime(file.Path)

		doc := models.Document{
			ID:     docID,
			Path:   file.Path,
			Mime:   mimeType,
			Bytes:  int64(len(raw)),
			Status: "processing",
		}
		if err := p.store.UpsertDocument(ctx, doc); err != nil {
			return err
		}

		pieces := ingest.ChunkText(text, chunkTokens, overlapTokens, minTokens)
		if len(pieces) == 0 {
			doc.Status = "ingested"
			if err := p.store.UpsertDocument(ctx, doc); err != nil {
				return err
			}
			totalDocs++
			continue
		}

		for start := 0; start < len(pieces); start += embedBatchSize {
			end := start + embedBatchSize
			if end > len(pieces) {
				end = len(pieces)
			}
			batch := pieces[start:end]

			texts := make([]string, len(batch))
			for i, piece := range batch {
				texts[i] = piece.Text
			}
			vectors, err := p.embedder.Embed(ctx, texts)
			if err != nil {
				logger.Error("embedding batch failed",
					"jobId", payload.JobID, "path", file.Path,
					"correlationId", payload.CorrelationID, "error", err.Error())
				return err
			}
			if len(vectors) != len(batch) {
				logger.Error("embedding batch mismatch",
					"expected", len(batch), "got", len(vectors),
					"jobId", payload.JobID)
				continue
			}

			for i, piece := range batch {
				chunkID := utils.Sha1Hex([]byte(fmt.Sprintf("%s|%d|%s", docID, piece.Order, piece.Text)))
				chunk := models.Chunk{
					ID:        chunkID,
					Text:      piece.Text,
					Embedding: vectors[i],
					Order:     piece.Order,
					Tokens:    piece.Tokens,
				}
				if err := p.store.UpsertChunk(ctx, docID, chunk); err != nil {
					return err
				}

				if persons := ingest.ExtractPersons(piece.Text); len(persons) > 0 {
					if err := p.store.UpsertMentions(ctx, chunkID, persons); err != nil {
						logger.Error("mentions upsert failed",
							"jobId", payload.JobID, "chunkId", chunkID,
							"correlationId", payload.CorrelationID, "error", err.Error())
					}
				}
				totalChunks++
			}
		}

		doc.Status = "ingested"
		if err := p.store.UpsertDocument(ctx, doc); err != nil {
			return err
		}
		totalDocs++
	}

	logger.Info("ingest job done",
		"jobId", payload.JobID,
		"correlationId", payload.CorrelationID,
		"documents", totalDocs,
		"chunks", totalChunks,
	)
	return nil
}

func guessMime(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "text/plain"
}
