package ingest

import (
	"regexp"
	"sort"
	"strings"

	"people-search-platform/models"
)

// Naive person extraction: proper-case multi-word names, filtered by
// stopwords and known non-person phrases. Chunks without contact hints
// (email/phone) get stricter filtering, since resume headers are where real
// names cluster.

var (
	personNameRe    = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z\.]+)+)\b`)
	nameTokenRe     = regexp.MustCompile(`^[A-Z][a-z]+$`)
	middleInitialRe = regexp.MustCompile(`^[A-Z]\.$`)
	emailRe         = regexp.MustCompile(`\b[\w\.-]+@[\w\.-]+\.\w{2,}\b`)
	phoneRe         = regexp.MustCompile(`\+?\d[\d\-\.\s\(\)]{7,}\d`)

	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9\-]`)
	slugCollapseRe = regexp.MustCompile(`-{2,}`)
)

var nameStopwords = map[string]bool{
	"The": true, "And": true, "For": true, "With": true, "From": true,
	"Into": true, "Across": true, "Between": true, "Among": true,
	"Project": true, "Graph": true, "Knowledge": true, "Vector": true,
	"Search": true, "Database": true, "Engineer": true, "Senior": true,
	"Staff": true, "Manager": true, "Director": true, "Company": true,
	"Organization": true,
}

var extractBannedTerms = map[string]bool{
	"computer science": true, "software engineering": true,
	"data structures": true, "advanced algorithms": true,
	"network security": true, "machine learning": true,
	"google cloud": true, "magna cum laude": true, "cum laude": true,
}

var extractBannedSuffixes = map[string]bool{
	"Science": true, "Engineering": true, "Algorithms": true,
	"Structures": true, "Security": true, "Cloud": true,
	"Learning": true, "Laude": true,
}

// ExtractPersons returns the persons mentioned in a chunk of text, with
// slug ids, in deterministic order.
func ExtractPersons(text string) []models.Person {
	names := extractPersonNames(text)
	persons := make([]models.Person, 0, len(names))
	for _, name := range names {
		if id := PersonID(name); id != "" {
			persons = append(persons, models.Person{ID: id, Name: name})
		}
	}
	return persons
}

func extractPersonNames(text string) []string {
	if text == "" {
		return nil
	}
	hasContact := emailRe.MatchString(text) || phoneRe.MatchString(text)

	found := map[string]bool{}
	for _, match := range personNameRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(match[1])
		if extractBannedTerms[strings.ToLower(candidate)] {
			continue
		}

		parts := strings.Fields(candidate)
		if !looksLikePerson(parts) {
			continue
		}

		// Without contact hints in the chunk, be stricter about subject-like
		// tokens and compound words.
		if !hasContact {
			skip := false
			for _, p := range parts {
				if extractBannedSuffixes[p] || len(p) > 20 {
					skip = true
					break
				}
			}
			if skip {
				continue
			}
		}

		found[candidate] = true
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func looksLikePerson(parts []string) bool {
	if len(parts) < 2 || len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if middleInitialRe.MatchString(p) {
			continue
		}
		if !nameTokenRe.MatchString(p) {
			return false
		}
		if nameStopwords[p] {
			return false
		}
	}
	return !extractBannedSuffixes[parts[len(parts)-1]]
}

// PersonID normalizes a display name into a stable slug id.
func PersonID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	slug = slugInvalidRe.ReplaceAllString(slug, "")
	slug = slugCollapseRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
