package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"people-search-platform/internal/config"
	"people-search-platform/models"
)

// VectorIndexName is the cosine KNN index over Chunk.embedding.
const VectorIndexName = "chunk_embeddings"

// ErrPersonNotFound reports a lookup for a person id with no matching node.
var ErrPersonNotFound = errors.New("graph: person not found")

// ChunkHit is one (chunk, mentioned person) row from the similarity search.
// A chunk mentioning several people yields several hits with the same chunk
// score.
type ChunkHit struct {
	ChunkID    string
	DocumentID string
	Text       string
	Score      float64
	Person     models.Person
}

// Store reads and writes the Document/Chunk/Person graph. The retrieval
// path is strictly read-only; a session is acquired per query and released
// on every exit path.
type Store struct {
	provider  *config.Neo4jProvider
	database  string
	vectorDim int
}

func NewStore(provider *config.Neo4jProvider, cfg *config.Config) *Store {
	return &Store{
		provider:  provider,
		database:  cfg.Neo4jDatabase,
		vectorDim: cfg.VectorDim,
	}
}

// VectorDim reports the index dimension the store was configured with.
func (s *Store) VectorDim() int { return s.vectorDim }

const similarChunksCypher = `
CALL db.index.vector.queryNodes($indexName, $limit, $embedding)
YIELD node AS c, score
MATCH (c)-[:CHUNK_OF]->(d:Document)
MATCH (c)-[:MENTIONS]->(p:Person)
RETURN c.id AS chunkId, c.text AS text, d.id AS documentId, score,
       p.id AS personId, p.name AS personName, p.roles AS roles, p.skills AS skills`

// SimilarChunks runs the cosine nearest-neighbor search and joins every
// candidate chunk to its parent document and mentioned persons. Chunks that
// mention nobody are dropped by the MATCH. A vector whose length differs
// from the index dimension is rejected outright rather than silently
// truncated by the index.
func (s *Store) SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]ChunkHit, error) {
	if len(embedding) != s.vectorDim {
		return nil, fmt.Errorf("graph: query vector has %d dimensions, index expects %d", len(embedding), s.vectorDim)
	}

	driver, err := s.provider.Driver(ctx)
	if err != nil {
		return nil, err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, similarChunksCypher, map[string]any{
			"indexName": VectorIndexName,
			"limit":     limit,
			"embedding": toFloat64(embedding),
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: similarity search: %w", err)
	}

	rows := records.([]*neo4j.Record)
	hits := make([]ChunkHit, 0, len(rows))
	for _, rec := range rows {
		hits = append(hits, ChunkHit{
			ChunkID:    recordString(rec, "chunkId"),
			DocumentID: recordString(rec, "documentId"),
			Text:       recordString(rec, "text"),
			Score:      recordFloat(rec, "score"),
			Person: models.Person{
				ID:     recordString(rec, "personId"),
				Name:   recordString(rec, "personName"),
				Roles:  recordStrings(rec, "roles"),
				Skills: recordStrings(rec, "skills"),
			},
		})
	}
	return hits, nil
}

// PersonByID is a thin projection used by the read-only lookup endpoint.
func (s *Store) PersonByID(ctx context.Context, id string) (*models.Person, error) {
	driver, err := s.provider.Driver(ctx)
	if err != nil {
		return nil, err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			`MATCH (p:Person {id: $id})
			 RETURN p.id AS id, p.name AS name, p.roles AS roles, p.skills AS skills`,
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: person lookup: %w", err)
	}

	rows := records.([]*neo4j.Record)
	if len(rows) == 0 {
		return nil, ErrPersonNotFound
	}
	rec := rows[0]
	return &models.Person{
		ID:     recordString(rec, "id"),
		Name:   recordString(rec, "name"),
		Roles:  recordStrings(rec, "roles"),
		Skills: recordStrings(rec, "skills"),
	}, nil
}

// DocumentsByStatus lists documents, optionally filtered by status.
func (s *Store) DocumentsByStatus(ctx context.Context, status string) ([]models.Document, error) {
	driver, err := s.provider.Driver(ctx)
	if err != nil {
		return nil, err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	query := `MATCH (d:Document)
	          WHERE $status = '' OR d.status = $status
	          RETURN d.id AS id, d.path AS path, d.mime AS mime,
	                 d.bytes AS bytes, d.status AS status
	          ORDER BY d.path`
	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"status": status})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: document listing: %w", err)
	}

	rows := records.([]*neo4j.Record)
	docs := make([]models.Document, 0, len(rows))
	for _, rec := range rows {
		docs = append(docs, models.Document{
			ID:     recordString(rec, "id"),
			Path:   recordString(rec, "path"),
			Mime:   recordString(rec, "mime"),
			Bytes:  recordInt(rec, "bytes"),
			Status: recordString(rec, "status"),
		})
	}
	return docs, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func recordString(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func recordFloat(rec *neo4j.Record, key string) float64 {
	if v, ok := rec.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func recordInt(rec *neo4j.Record, key string) int64 {
	if v, ok := rec.Get(key); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}

func recordStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
