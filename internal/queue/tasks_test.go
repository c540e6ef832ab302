package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"people-search-platform/internal/config"
	"people-search-platform/models"
	"people-search-platform/utils"
)

type recordingStore struct {
	docs     []models.Document
	chunks   map[string][]models.Chunk
	mentions map[string][]models.Person
	docErr   error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		chunks:   map[string][]models.Chunk{},
		mentions: map[string][]models.Person{},
	}
}

func (r *recordingStore) UpsertDocument(ctx context.Context, doc models.Document) error {
	if r.docErr != nil {
		return r.docErr
	}
	r.docs = append(r.docs, doc)
	return nil
}

func (r *recordingStore) UpsertChunk(ctx context.Context, docID string, chunk models.Chunk) error {
	r.chunks[docID] = append(r.chunks[docID], chunk)
	return nil
}

func (r *recordingStore) UpsertMentions(ctx context.Context, chunkID string, persons []models.Person) error {
	r.mentions[chunkID] = persons
	return nil
}

type fixedEmbedder struct {
	err   error
	calls int
}

func (f *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func workerConfig(dataDir string) *config.Config {
	return &config.Config{
		WorkerLocalDataDir: dataDir,
		ChunkTokens:        600,
		OverlapTokens:      80,
		MinChunkTokens:     80,
	}
}

func resumeText() string {
	return "Ada Lovelace, ada@example.com. " + strings.Repeat("Worked on graph retrieval and ranking systems. ", 20)
}

func ingestTask(t *testing.T, files []models.IngestFile) *asynq.Task {
	t.Helper()
	task, err := NewIngestProcessTask(models.IngestJob{
		JobID:   "job-1",
		Files:   files,
		Options: models.DefaultChunkingOptions(),
	}, "corr-1")
	require.NoError(t, err)
	return task
}

func TestNewIngestProcessTask(t *testing.T) {
	task := ingestTask(t, []models.IngestFile{{Path: "a.txt", SHA256: "x"}})
	assert.Equal(t, TaskProcessIngest, task.Type())

	var payload IngestProcessPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "job-1", payload.JobID)
	assert.Equal(t, "corr-1", payload.CorrelationID)
	require.Len(t, payload.Files, 1)
}

func TestProcessIngest(t *testing.T) {
	dir := t.TempDir()
	text := resumeText()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.txt"), []byte(text), 0o644))

	store := newRecordingStore()
	embedder := &fixedEmbedder{}
	processor := NewTaskProcessor(store, embedder, workerConfig(dir))

	task := ingestTask(t, []models.IngestFile{{Path: "resume.txt", SHA256: "x"}})
	require.NoError(t, processor.ProcessIngest(context.Background(), task))

	// Document goes through processing then ingested
	require.Len(t, store.docs, 2)
	docID := utils.Sha256Hex([]byte(text))
	assert.Equal(t, docID, store.docs[0].ID)
	assert.Equal(t, "processing", store.docs[0].Status)
	assert.Equal(t, "ingested", store.docs[1].Status)
	assert.Equal(t, int64(len(text)), store.docs[0].Bytes)

	chunks := store.chunks[docID]
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		expected := utils.Sha1Hex([]byte(fmt.Sprintf("%s|%d|%s", docID, chunk.Order, chunk.Text)))
		assert.Equal(t, expected, chunk.ID, "chunk id must be derived from content")
		assert.NotEmpty(t, chunk.Embedding)
	}

	// The chunk holding the name records the mention
	found := false
	for _, persons := range store.mentions {
		for _, p := range persons {
			if p.ID == "ada-lovelace" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a mention of ada-lovelace")
	assert.Equal(t, 1, embedder.calls)
}

func TestProcessIngestSkipsUnreadableFiles(t *testing.T) {
	store := newRecordingStore()
	processor := NewTaskProcessor(store, &fixedEmbedder{}, workerConfig(t.TempDir()))

	task := ingestTask(t, []models.IngestFile{{Path: "missing.txt", SHA256: "x"}})
	require.NoError(t, processor.ProcessIngest(context.Background(), task), "a bad file skips, the job succeeds")
	assert.Empty(t, store.docs)
}

func TestProcessIngestMalformedPayloadSkipsRetry(t *testing.T) {
	processor := NewTaskProcessor(newRecordingStore(), &fixedEmbedder{}, workerConfig(t.TempDir()))

	task := asynq.NewTask(TaskProcessIngest, []byte(`not json`))
	err := processor.ProcessIngest(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "garbage payloads must not be retried")
}

func TestProcessIngestEmbedFailureFailsTask(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.txt"), []byte(resumeText()), 0o644))

	store := newRecordingStore()
	processor := NewTaskProcessor(store, &fixedEmbedder{err: errors.New("model down")}, workerConfig(dir))

	task := ingestTask(t, []models.IngestFile{{Path: "resume.txt", SHA256: "x"}})
	err := processor.ProcessIngest(context.Background(), task)
	require.Error(t, err, "embedding failures surface so asynq can retry the job")
}

func TestProcessIngestStoreFailureFailsTask(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.txt"), []byte(resumeText()), 0o644))

	store := newRecordingStore()
	store.docErr = errors.New("graph offline")
	processor := NewTaskProcessor(store, &fixedEmbedder{}, workerConfig(dir))

	task := ingestTask(t, []models.IngestFile{{Path: "resume.txt", SHA256: "x"}})
	assert.Error(t, processor.ProcessIngest(context.Background(), task))
}
