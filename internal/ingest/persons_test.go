package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"people-search-platform/models"
)

func TestExtractPersons(t *testing.T) {
	text := "Ada Lovelace worked with Grace Hopper on the compiler. " +
		"Contact: ada@example.com"

	persons := ExtractPersons(text)
	require.Len(t, persons, 2)
	assert.Equal(t, models.Person{ID: "ada-lovelace", Name: "Ada Lovelace"}, persons[0])
	assert.Equal(t, models.Person{ID: "grace-hopper", Name: "Grace Hopper"}, persons[1])
}

func TestExtractPersonsDeterministicOrder(t *testing.T) {
	text := "Zoe Adams met Amy Chen and Maria Lopez."
	first := ExtractPersons(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ExtractPersons(text))
	}
	require.Len(t, first, 3)
	assert.Equal(t, "amy-chen", first[0].ID, "names sort lexically")
}

func TestExtractPersonsRejectsSubjects(t *testing.T) {
	text := "Studied Computer Science and Machine Learning, graduated Magna Cum Laude."
	assert.Empty(t, ExtractPersons(text))
}

func TestExtractPersonsRejectsStopwordPhrases(t *testing.T) {
	texts := []string{
		"The Project shipped on time.",
		"Senior Engineer wanted for the graph team.",
		"Knowledge Graph construction is ongoing.",
	}
	for _, text := range texts {
		assert.Empty(t, ExtractPersons(text), "input: %q", text)
	}
}

func TestExtractPersonsStricterWithoutContactHints(t *testing.T) {
	withContact := "Met John Cloud today. Reach him at +1 (555) 123-4567."
	without := "Met John Cloud today."

	// The subject-like surname still fails the shared suffix filter even
	// with a contact hint present
	assert.Empty(t, ExtractPersons(withContact))
	assert.Empty(t, ExtractPersons(without))
}

func TestExtractPersonsMiddleInitial(t *testing.T) {
	persons := ExtractPersons("Paper authored by Jean E. Sammet in 1969, contact jean@acm.org.")
	require.Len(t, persons, 1)
	assert.Equal(t, "Jean E. Sammet", persons[0].Name)
	assert.Equal(t, "jean-e-sammet", persons[0].ID, "slug drops the period")
}

func TestExtractPersonsDeduplicates(t *testing.T) {
	text := "Ada Lovelace wrote it. Later, Ada Lovelace reviewed it. ada@x.io"
	persons := ExtractPersons(text)
	require.Len(t, persons, 1)
}

func TestPersonID(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":        "ada-lovelace",
		"  Grace   Hopper  ":  "grace-hopper",
		"Jean-Luc Picard":     "jean-luc-picard",
		"":                    "",
	}
	for name, want := range cases {
		assert.Equal(t, want, PersonID(name), "input: %q", name)
	}
}
