package cmd

import (
	"slices"
	"testing"

	"github.com/spigell/teacherlink-search/internal/filtering"
)

func TestParseFilterFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   []string
		check   func(c filtering.Criteria) bool
		wantErr bool
	}{
		{
			name:  "location and threshold",
			flags: []string{"city=Pune", "minSalary=20000"},
			check: func(c filtering.Criteria) bool { return c.City == "Pune" && c.MinSalary == 20000 },
		},
		{
			name:  "repeated key adds values",
			flags: []string{"languages=English", "languages=Hindi"},
			check: func(c filtering.Criteria) bool {
				return slices.Equal(c.Languages, filtering.Values{"English", "Hindi"})
			},
		},
		{
			name:  "comma list",
			flags: []string{"grades=1, 2"},
			check: func(c filtering.Criteria) bool { return slices.Equal(c.Grades, filtering.Values{"1", "2"}) },
		},
		{
			name:  "case insensitive key",
			flags: []string{"JOBTYPES=Full Time"},
			check: func(c filtering.Criteria) bool { return slices.Equal(c.JobTypes, filtering.Values{"Full Time"}) },
		},
		{name: "missing separator", flags: []string{"city"}, wantErr: true},
		{name: "non numeric threshold", flags: []string{"minSalary=lots"}, wantErr: true},
		{name: "negative threshold", flags: []string{"minExperience=-2"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := parseFilterFlags(tt.flags)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(c) {
				t.Fatalf("unexpected criteria %+v", c)
			}
		})
	}
}

func TestDefaultCriteria(t *testing.T) {
	config := &Config{Filters: &FiltersConfig{Default: map[string]any{
		"country":      "India",
		"designations": []any{"Teacher", map[string]any{"value": "Principal", "label": "Principal"}},
	}}}

	c, err := config.defaultCriteria()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Country != "India" || !slices.Equal(c.Designations, filtering.Values{"Teacher", "Principal"}) {
		t.Fatalf("unexpected criteria %+v", c)
	}
}
