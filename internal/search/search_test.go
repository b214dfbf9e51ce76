package search

import (
	"slices"
	"testing"

	"github.com/spigell/teacherlink-search/internal/candidate"
	"github.com/spigell/teacherlink-search/internal/filtering"
)

func ids(candidates []*candidate.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.UID)
	}
	return out
}

func pool() []*candidate.Candidate {
	return []*candidate.Candidate{
		{UID: "anita", FullName: "Anita Rao", City: "Pune", Gender: "Female", Languages: []string{"Marathi", "English"}},
		{UID: "ravi", FullName: "Ravi Kumar", City: "Pune", Gender: "Male", Email: "ravi@example.com"},
		{UID: "meera", FullName: "Meera Shah", City: "Mumbai", PresentCity: "Pune", Gender: "Female"},
		{UID: "john", FullName: "John Dsouza", City: "Goa", Gender: "Male", ExpectedSalary: "45000"},
		{UID: "priya", FullName: "Priya Nair", City: "Kochi", Gender: "Female", EducationText: `{"degree":"B.Ed"}`},
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query", query: "", want: []string{"anita", "ravi", "meera", "john", "priya"}},
		{name: "blank query", query: "  ", want: []string{"anita", "ravi", "meera", "john", "priya"}},
		{name: "name case insensitive", query: "ANITA", want: []string{"anita"}},
		{name: "permanent and present city", query: "pune", want: []string{"anita", "ravi", "meera"}},
		{name: "email", query: "@example", want: []string{"ravi"}},
		{name: "language element", query: "engl", want: []string{"anita"}},
		{name: "salary as text", query: "4500", want: []string{"john"}},
		{name: "education json text", query: "b.ed", want: []string{"priya"}},
		{name: "gender is not searchable", query: "female", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ids(Search(pool(), tt.query)); !slices.Equal(got, tt.want) {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSearchComposesWithFilters(t *testing.T) {
	engine := filtering.New(&filtering.Config{Retention: filtering.RetainSoftRequired}, nil)
	criteria := filtering.Criteria{Gender: filtering.Values{"Female"}}

	searchThenFilter := engine.Apply(Search(pool(), "Pune"), criteria).Candidates()
	filterThenSearch := Search(engine.Apply(pool(), criteria).Candidates(), "Pune")

	want := []string{"anita", "meera"}
	if !slices.Equal(ids(searchThenFilter), want) {
		t.Fatalf("search then filter: expected %q, got %q", want, ids(searchThenFilter))
	}
	if !slices.Equal(ids(filterThenSearch), want) {
		t.Fatalf("filter then search: expected %q, got %q", want, ids(filterThenSearch))
	}
}
