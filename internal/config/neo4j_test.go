package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateURIs(t *testing.T) {
	t.Run("plain neo4j scheme", func(t *testing.T) {
		assert.Equal(t, []string{
			"neo4j://db.example.com:7687",
			"bolt://db.example.com:7687",
			"bolt+ssc://db.example.com:7687",
			"neo4j+ssc://db.example.com:7687",
		}, candidateURIs("neo4j://db.example.com:7687"))
	})

	t.Run("encrypted scheme falls back to bolt+s", func(t *testing.T) {
		got := candidateURIs("neo4j+s://db.example.com:7687")
		assert.Equal(t, "neo4j+s://db.example.com:7687", got[0])
		assert.Equal(t, "bolt+s://db.example.com:7687", got[1])
		assert.Contains(t, got, "bolt+ssc://db.example.com:7687")
		assert.Contains(t, got, "neo4j+ssc://db.example.com:7687")
	})

	t.Run("bolt input keeps no neo4j variant", func(t *testing.T) {
		got := candidateURIs("bolt://db.example.com:7687")
		assert.Equal(t, []string{
			"bolt://db.example.com:7687",
			"bolt+ssc://db.example.com:7687",
		}, got)
	})

	t.Run("no duplicates", func(t *testing.T) {
		got := candidateURIs("neo4j://localhost")
		seen := map[string]bool{}
		for _, u := range got {
			assert.False(t, seen[u], "duplicate %s", u)
			seen[u] = true
		}
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, getEnvInt("SOME_INT", 7))

	t.Setenv("SOME_INT", "not a number")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))

	assert.Equal(t, 7, getEnvInt("UNSET_INT_KEY", 7))
}
