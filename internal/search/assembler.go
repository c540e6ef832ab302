package search

import (
	"context"
	"fmt"
	"strings"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/logger"
	"people-search-platform/models"
)

// Limits for grounded answer synthesis.
const (
	maxSynthesisResults  = 5
	maxSnippetsPerPerson = 3
)

// Generator is the slice of the AI client the assembler needs.
type Generator interface {
	Generate(ctx context.Context, messages []ai.Message, opts ai.GenerateOptions) (string, error)
}

// Assembler maps ranked person results into the wire shape and optionally
// enriches the response with a grounded natural-language answer.
type Assembler struct {
	generator Generator
}

func NewAssembler(generator Generator) *Assembler {
	return &Assembler{generator: generator}
}

// Assemble builds the search response. Synthesis is an enrichment step:
// when it fails the ranked list is returned anyway, the answer field is
// simply omitted, and the failure is logged. Core ranking never fails
// because of it.
func (a *Assembler) Assemble(ctx context.Context, query string, results []models.PersonResult, synthesize bool) models.SearchResponse {
	ranked := make([]models.RankedPerson, 0, len(results))
	for _, r := range results {
		citations := make([]models.Citation, 0, len(r.Evidence))
		for _, ev := range r.Evidence {
			citations = append(citations, models.Citation{
				DocumentID: ev.DocumentID,
				ChunkID:    ev.ChunkID,
				Score:      ev.Score,
				Snippet:    ev.Snippet,
			})
		}
		ranked = append(ranked, models.RankedPerson{
			Person:    r.Person,
			Score:     r.AggregateScore,
			Citations: citations,
		})
	}

	resp := models.SearchResponse{Results: ranked}

	if synthesize && len(results) > 0 {
		answer, err := a.synthesize(ctx, query, results)
		if err != nil {
			logger.Warn("answer synthesis failed, returning ranked results only",
				"correlationId", ai.CorrelationID(ctx),
				"error", err.Error(),
			)
		} else {
			resp.Answer = answer
		}
	}

	return resp
}

func (a *Assembler) synthesize(ctx context.Context, query string, results []models.PersonResult) (string, error) {
	top := results
	if len(top) > maxSynthesisResults {
		top = top[:maxSynthesisResults]
	}

	messages := []ai.Message{
		{
			Role: "system",
			Content: "You are a people-search assistant. Answer only from the " +
				"supplied evidence. If the evidence is insufficient to answer, " +
				"say so explicitly.",
		},
		{
			Role:    "user",
			Content: synthesisPrompt(query, top),
		},
	}

	// Temperature 0 keeps the grounded answer deterministic.
	return a.generator.Generate(ctx, messages, ai.GenerateOptions{Temperature: 0})
}

func synthesisPrompt(query string, results []models.PersonResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nRanked candidates with evidence:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s (score %.3f)\n", i+1, r.Person.Name, r.AggregateScore)
		if len(r.Person.Skills) > 0 {
			fmt.Fprintf(&b, "   Skills: %s\n", strings.Join(r.Person.Skills, ", "))
		}
		snippets := r.Evidence
		if len(snippets) > maxSnippetsPerPerson {
			snippets = snippets[:maxSnippetsPerPerson]
		}
		for _, ev := range snippets {
			fmt.Fprintf(&b, "   - %q\n", ev.Snippet)
		}
	}
	b.WriteString("\nUsing only the evidence above, explain who best matches the question and why.")
	return b.String()
}
