package database

import "strings"

// formatSearchTerm converts a search term into PostgreSQL tsquery format
func formatSearchTerm(term string) string {
	// Remove special characters that would break tsquery
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}

	// Check if it's a phrase (contains spaces)
	if strings.Contains(term, " ") {
		// Phrase search: split into words and join with <->
		words := strings.Fields(term)
		for i := range words {
			words[i] = strings.ToLower(words[i]) + ":*"
		}
		return strings.Join(words, " <-> ")
	}

	// Single word: add prefix matching
	return strings.ToLower(term) + ":*"
}
