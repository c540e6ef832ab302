package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikePersonName(t *testing.T) {
	accepted := []string{
		"Ada Lovelace",
		"Grace Brewster Hopper",
		"Jean E. Sammet Jr",
	}
	for _, name := range accepted {
		assert.True(t, LooksLikePersonName(name), "expected %q to pass", name)
	}

	rejected := map[string]string{
		"Ada":                          "single token",
		"One Two Three Four Five":     "too many tokens",
		"Computer Science":            "banned phrase",
		"Advanced Machine Learning":   "banned phrase",
		"Magna Cum Laude":             "banned phrase",
		"John Engineering":            "banned suffix",
		"Sarah Cloud":                 "banned suffix",
		"X " + strings.Repeat("y", 25): "token too long",
	}
	for name, reason := range rejected {
		assert.False(t, LooksLikePersonName(name), "expected %q to fail (%s)", name, reason)
	}
}

func TestLooksLikePersonNameBannedTermsAreCaseInsensitive(t *testing.T) {
	assert.False(t, LooksLikePersonName("NETWORK SECURITY"))
	assert.False(t, LooksLikePersonName("network security"))
}
