package filtering

import (
	"sort"
	"strings"

	"github.com/spigell/teacherlink-search/internal/candidate"
)

const (
	noMatch = iota
	partialMatch
	exactMatch
)

// Sort orders matches in place. With a location filter active, city matches come first, then
// state matches (exact before partial), then country matches; relevance score breaks the
// remaining ties. Without location filters only the score counts. Equal entries keep their order.
func Sort(matches []Match, criteria Criteria) {
	if !criteria.HasLocation() {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].RelevanceScore > matches[j].RelevanceScore
		})
		return
	}

	city := candidate.Fold(criteria.Location(KeyCity))
	state := candidate.Fold(criteria.Location(KeyState))
	country := candidate.Fold(criteria.Location(KeyCountry))

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].Candidate, matches[j].Candidate

		if city != "" {
			ca, cb := locationRank(a.City, city) > noMatch, locationRank(b.City, city) > noMatch
			if ca != cb {
				return ca
			}
		}

		if state != "" {
			sa, sb := locationRank(a.State, state), locationRank(b.State, state)
			if sa != sb {
				return sa > sb
			}
		}

		if country != "" {
			ca, cb := locationRank(a.Country, country) > noMatch, locationRank(b.Country, country) > noMatch
			if ca != cb {
				return ca
			}
		}

		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})
}

// locationRank compares a candidate value with an already folded filter value.
func locationRank(value, want string) int {
	have := candidate.Fold(value)
	switch {
	case have == "":
		return noMatch
	case have == want:
		return exactMatch
	case strings.Contains(have, want) || strings.Contains(want, have):
		return partialMatch
	default:
		return noMatch
	}
}
