// Package search implements free text lookup over candidate profiles.
package search

import (
	"strings"

	"github.com/spigell/teacherlink-search/internal/candidate"
)

// Fields returns every searchable value of c. Languages contribute one value per entry.
func Fields(c *candidate.Candidate) []string {
	fields := []string{
		c.FullName,
		c.Email,
		c.Phone,
		c.Designation,
		c.Country,
		c.State,
		c.City,
		c.PresentCountry,
		c.PresentState,
		c.PresentCity,
		c.EducationText,
		c.FullTimeOffline,
		c.TeachingExperience,
		c.ExpectedSalary,
	}
	return append(fields, c.Languages...)
}

// Matches reports whether any searchable field of c contains the already folded query.
func Matches(c *candidate.Candidate, folded string) bool {
	if folded == "" {
		return true
	}
	for _, f := range Fields(c) {
		if f == "" {
			continue
		}
		if strings.Contains(candidate.Fold(f), folded) {
			return true
		}
	}
	return false
}

// Search keeps the candidates matching query, preserving order.
// An empty or blank query returns candidates as is.
func Search(candidates []*candidate.Candidate, query string) []*candidate.Candidate {
	folded := candidate.Fold(query)
	if folded == "" {
		return candidates
	}

	found := make([]*candidate.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Matches(c, folded) {
			found = append(found, c)
		}
	}
	return found
}
