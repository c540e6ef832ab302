package retrieval

import "strings"

// Data-quality guard for upstream entity extraction: person nodes whose
// names are obviously course titles, credential phrases, or other
// mis-extracted text are dropped before aggregation.

var bannedTerms = []string{
	"computer science", "software engineering", "data structures",
	"advanced algorithms", "network security", "machine learning",
	"google cloud", "magna cum laude", "cum laude",
}

var bannedSuffixes = map[string]bool{
	"Science":    true,
	"Engineering": true,
	"Algorithms": true,
	"Structures": true,
	"Security":   true,
	"Cloud":      true,
	"Learning":   true,
	"Laude":      true,
}

const maxNameTokenLen = 20

// LooksLikePersonName reports whether a name is shaped like a real person
// name: 2-4 whitespace-delimited tokens, none absurdly long, no known
// non-person phrase fragment, and no subject/degree suffix.
func LooksLikePersonName(name string) bool {
	parts := strings.Fields(name)
	if len(parts) < 2 || len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if len(p) > maxNameTokenLen {
			return false
		}
	}
	lower := strings.ToLower(name)
	for _, term := range bannedTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	if bannedSuffixes[parts[len(parts)-1]] {
		return false
	}
	return true
}
