package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"people-search-platform/models"
)

// Write path, used only by the ingestion worker. Upserts are MERGE-based so
// reprocessing a job is idempotent.

// EnsureVectorIndex creates the cosine index over Chunk.embedding if it is
// not there yet.
func (s *Store) EnsureVectorIndex(ctx context.Context) error {
	driver, err := s.provider.Driver(ctx)
	if err != nil {
		return err
	}

	// Index options cannot be parameterized.
	query := fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (c:Chunk) ON (c.embedding)
OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: 'cosine'}}`,
		VectorIndexName, s.vectorDim)

	_, err = neo4j.ExecuteQuery(ctx, driver, query, nil,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return fmt.Errorf("graph: ensure vector index: %w", err)
	}
	return nil
}

const upsertDocumentCypher = `
MERGE (d:Document {id: $docId})
  ON CREATE SET
    d.path = $path,
    d.mime = $mime,
    d.bytes = $bytes,
    d.createdAt = datetime(),
    d.status = coalesce($status, 'pending')
  ON MATCH SET
    d.path = coalesce($path, d.path),
    d.mime = coalesce($mime, d.mime),
    d.bytes = coalesce($bytes, d.bytes),
    d.updatedAt = datetime(),
    d.status = coalesce($status, d.status)
RETURN d.id AS id`

func (s *Store) UpsertDocument(ctx context.Context, doc models.Document) error {
	return s.write(ctx, upsertDocumentCypher, map[string]any{
		"docId":  doc.ID,
		"path":   doc.Path,
		"mime":   doc.Mime,
		"bytes":  doc.Bytes,
		"status": doc.Status,
	})
}

const upsertChunkCypher = `
MERGE (c:Chunk {id: $chunkId})
  ON CREATE SET
    c.text = $text,
    c.embedding = $embedding,
    c.` + "`order`" + ` = $order,
    c.tokens = $tokens,
    c.createdAt = datetime()
  ON MATCH SET
    c.text = $text,
    c.embedding = $embedding,
    c.` + "`order`" + ` = $order,
    c.tokens = $tokens,
    c.updatedAt = datetime()
WITH c
MATCH (d:Document {id: $docId})
MERGE (c)-[:CHUNK_OF]->(d)
RETURN c.id AS id`

func (s *Store) UpsertChunk(ctx context.Context, docID string, chunk models.Chunk) error {
	if len(chunk.Embedding) != s.vectorDim {
		return fmt.Errorf("graph: chunk %s embedding has %d dimensions, index expects %d",
			chunk.ID, len(chunk.Embedding), s.vectorDim)
	}
	return s.write(ctx, upsertChunkCypher, map[string]any{
		"chunkId":   chunk.ID,
		"docId":     docID,
		"text":      chunk.Text,
		"embedding": toFloat64(chunk.Embedding),
		"order":     chunk.Order,
		"tokens":    chunk.Tokens,
	})
}

const upsertMentionsCypher = `
MATCH (c:Chunk {id: $chunkId})
UNWIND $persons AS person
MERGE (p:Person {id: person.id})
  ON CREATE SET p.name = person.name
MERGE (c)-[:MENTIONS]->(p)`

// UpsertMentions attaches MENTIONS edges from a chunk to the given persons,
// creating Person nodes as needed. No-op for an empty list.
func (s *Store) UpsertMentions(ctx context.Context, chunkID string, persons []models.Person) error {
	if len(persons) == 0 {
		return nil
	}
	params := make([]map[string]any, len(persons))
	for i, p := range persons {
		params[i] = map[string]any{"id": p.ID, "name": p.Name}
	}
	return s.write(ctx, upsertMentionsCypher, map[string]any{
		"chunkId": chunkID,
		"persons": params,
	})
}

func (s *Store) write(ctx context.Context, query string, params map[string]any) error {
	driver, err := s.provider.Driver(ctx)
	if err != nil {
		return err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return nil, result.Err()
	})
	if err != nil {
		return fmt.Errorf("graph: write: %w", err)
	}
	return nil
}
