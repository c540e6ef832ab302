package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"people-search-platform/internal/graph"
	"people-search-platform/models"
)

// candidateMultiplier widens the KNN pool beyond topK: several chunks can
// map to the same person and must be merged before truncation.
const candidateMultiplier = 5

// ChunkSearcher is the slice of the graph store the engine needs. Tests
// substitute a stub.
type ChunkSearcher interface {
	SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]graph.ChunkHit, error)
}

// AggregateFunc folds the chunk scores contributing to one person into that
// person's ranking score.
type AggregateFunc func(scores []float64) float64

// SumScores is the default aggregation: summing rewards breadth of
// evidence, so a person mentioned in many moderately relevant chunks can
// outrank one mentioned in a single highly relevant chunk. Deliberate
// scoring policy, kept swappable.
func SumScores(scores []float64) float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	return total
}

// Engine rolls chunk-level similarity hits up to ranked people.
type Engine struct {
	store     ChunkSearcher
	aggregate AggregateFunc
}

func NewEngine(store ChunkSearcher) *Engine {
	return &Engine{store: store, aggregate: SumScores}
}

// WithAggregate swaps the scoring policy.
func (e *Engine) WithAggregate(fn AggregateFunc) *Engine {
	e.aggregate = fn
	return e
}

// Retrieve runs the nearest-neighbor search, filters mis-extracted person
// entities, groups hits by person, and returns at most topK results ordered
// by aggregate score descending with person-id tie-break. A failing
// similarity search fails the whole call; there are no partial results.
func (e *Engine) Retrieve(ctx context.Context, queryVector []float32, topK int) ([]models.PersonResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("retrieval: topK must be positive, got %d", topK)
	}

	tracer := otel.Tracer("retrieval-engine")
	ctx, span := tracer.Start(ctx, "retrieval.retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.top_k", topK))

	hits, err := e.store.SimilarChunks(ctx, queryVector, topK*candidateMultiplier)
	if err != nil {
		span.SetAttributes(attribute.Bool("retrieval.error", true))
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.candidate_hits", len(hits)))

	type group struct {
		person models.Person
		scores []float64
		hits   []graph.ChunkHit
	}
	groups := map[string]*group{}
	for _, hit := range hits {
		if hit.Person.ID == "" || !LooksLikePersonName(hit.Person.Name) {
			continue
		}
		g, ok := groups[hit.Person.ID]
		if !ok {
			g = &group{person: hit.Person}
			groups[hit.Person.ID] = g
		}
		g.scores = append(g.scores, hit.Score)
		g.hits = append(g.hits, hit)
	}

	results := make([]models.PersonResult, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g.hits, func(i, j int) bool {
			if g.hits[i].Score != g.hits[j].Score {
				return g.hits[i].Score > g.hits[j].Score
			}
			return g.hits[i].ChunkID < g.hits[j].ChunkID
		})

		evidence := make([]models.EvidenceHit, 0, models.MaxEvidencePerPerson)
		for _, hit := range g.hits {
			if len(evidence) == models.MaxEvidencePerPerson {
				break
			}
			evidence = append(evidence, models.EvidenceHit{
				DocumentID: hit.DocumentID,
				ChunkID:    hit.ChunkID,
				Score:      hit.Score,
				Snippet:    Snippet(hit.Text),
			})
		}

		results = append(results, models.PersonResult{
			Person:         g.person,
			AggregateScore: e.aggregate(g.scores),
			Evidence:       evidence,
		})
	}

	// Person-id tie-break keeps repeated calls byte-identical even under
	// equal aggregate scores.
	sort.Slice(results, func(i, j int) bool {
		if results[i].AggregateScore != results[j].AggregateScore {
			return results[i].AggregateScore > results[j].AggregateScore
		}
		return results[i].Person.ID < results[j].Person.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(results)))
	return results, nil
}

// Snippet whitespace-normalizes chunk text and bounds it to the evidence
// excerpt length.
func Snippet(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) > models.SnippetMaxChars {
		return string(runes[:models.SnippetMaxChars])
	}
	return normalized
}
