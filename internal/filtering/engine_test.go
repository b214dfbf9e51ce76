package filtering

import (
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/teacherlink-search/internal/candidate"
)

func uids(matches []Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Candidate.UID)
	}
	return ids
}

func TestApplyWithoutFiltersKeepsInput(t *testing.T) {
	input := []*candidate.Candidate{{UID: "c"}, {UID: "a"}, {UID: "b"}}

	result := New(nil, zap.NewNop()).Apply(input, Criteria{Gender: Values{" "}})

	if result.FiltersApplied {
		t.Fatalf("expected filtersApplied to be false")
	}
	if !slices.Equal(uids(result.Matches), []string{"c", "a", "b"}) {
		t.Fatalf("expected input order, got %q", uids(result.Matches))
	}
	for _, m := range result.Matches {
		if m.RelevanceScore != MaxScore {
			t.Fatalf("expected score %d, got %d", MaxScore, m.RelevanceScore)
		}
	}
}

func TestRequiredLocationExcludesMissingValue(t *testing.T) {
	input := []*candidate.Candidate{
		{UID: "no-state"},
		{UID: "with-state", State: " Maharashtra "},
	}

	result := New(nil, nil).Apply(input, Criteria{State: "maharashtra"})

	if !slices.Equal(uids(result.Matches), []string{"with-state"}) {
		t.Fatalf("expected only candidate with matching state, got %q", uids(result.Matches))
	}
	if result.Step.Dropped != 1 {
		t.Fatalf("expected one dropped candidate, got %d", result.Step.Dropped)
	}
}

func TestMultiSelectCaseInsensitiveAndContains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate *candidate.Candidate
		criteria  Criteria
		match     bool
	}{
		{
			name:      "lower case filter",
			candidate: &candidate.Candidate{Designation: "Teacher"},
			criteria:  Criteria{Designations: Values{"teacher"}},
			match:     true,
		},
		{
			name:      "upper case filter",
			candidate: &candidate.Candidate{Designation: "Teacher"},
			criteria:  Criteria{Designations: Values{"TEACHER"}},
			match:     true,
		},
		{
			name:      "filter contained in candidate value",
			candidate: &candidate.Candidate{GradesTaught: "Grade 1-5"},
			criteria:  Criteria{Grades: Values{"Grade 1"}},
			match:     true,
		},
		{
			name:      "candidate value contained in filter",
			candidate: &candidate.Candidate{CurriculumTaught: "CBSE"},
			criteria:  Criteria{Curriculum: Values{"CBSE / NCERT"}},
			match:     true,
		},
		{
			name:      "empty candidate value never matches",
			candidate: &candidate.Candidate{JobType: ""},
			criteria:  Criteria{JobTypes: Values{"Full Time"}},
			match:     false,
		},
		{
			name:      "gender compares whole values",
			candidate: &candidate.Candidate{Gender: "Female"},
			criteria:  Criteria{Gender: Values{"male"}},
			match:     false,
		},
		{
			name:      "parsed languages",
			candidate: &candidate.Candidate{Languages: []string{"English", "Hindi"}},
			criteria:  Criteria{Languages: Values{"hindi"}},
			match:     true,
		},
		{
			name:      "education subjects",
			candidate: &candidate.Candidate{Education: candidate.Education{Subjects: []string{"Physics"}}},
			criteria:  Criteria{CoreSubjects: Values{"physics"}},
			match:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			matched, passes := Evaluate(tt.candidate, FromCriteria(tt.criteria))
			if !passes {
				t.Fatalf("soft filters must not fail the candidate")
			}
			if got := len(matched) == 1; got != tt.match {
				t.Fatalf("expected match=%v, got matched filters %q", tt.match, matched)
			}
		})
	}
}

func TestThresholds(t *testing.T) {
	c := &candidate.Candidate{FullTimeOffline: "5 years", TeachingExperience: "abc", ExpectedSalary: "30000"}

	matched, _ := Evaluate(c, FromCriteria(Criteria{
		MinExperience:      5,
		TeachingExperience: 1,
		MinSalary:          40000,
	}))

	if !slices.Equal(matched, []string{KeyMinExperience}) {
		t.Fatalf("unexpected matched filters %q", matched)
	}
}

func TestThresholdHugeValueStillMatches(t *testing.T) {
	input := []*candidate.Candidate{
		{UID: "huge", ExpectedSalary: "18446744073709551615"},
		{UID: "small", ExpectedSalary: "500"},
	}

	result := New(&Config{Retention: RetainScoringOnly}, nil).Apply(input, Criteria{MinSalary: 1000})

	if len(result.Matches) != 2 {
		t.Fatalf("expected both candidates, got %q", uids(result.Matches))
	}
	if got := result.Matches[0]; got.Candidate.UID != "huge" || !slices.Equal(got.MatchedFilters, []string{KeyMinSalary}) {
		t.Fatalf("expected huge salary to match minSalary, got %s/%q", got.Candidate.UID, got.MatchedFilters)
	}
	if result.Matches[1].RelevanceScore != BaseScore {
		t.Fatalf("expected small salary at floor, got %d", result.Matches[1].RelevanceScore)
	}
}

func TestScoreFloorAndCeiling(t *testing.T) {
	input := []*candidate.Candidate{
		{UID: "none", City: "Pune", Designation: "Clerk"},
		{UID: "all", City: "Pune", Designation: "Teacher", Gender: "Female"},
		{UID: "half", City: "Pune", Designation: "Teacher", Gender: "Male"},
	}

	result := New(nil, nil).Apply(input, Criteria{
		City:         "Pune",
		Designations: Values{"teacher"},
		Gender:       Values{"Female"},
	})

	scores := map[string]int{}
	for _, m := range result.Matches {
		scores[m.Candidate.UID] = m.RelevanceScore
	}

	if scores["none"] != BaseScore {
		t.Fatalf("expected floor score %d, got %d", BaseScore, scores["none"])
	}
	if scores["half"] != 70 {
		t.Fatalf("expected 70 for half the soft filters, got %d", scores["half"])
	}
	if scores["all"] != MaxScore {
		t.Fatalf("expected %d, got %d", MaxScore, scores["all"])
	}
	if !slices.Equal(uids(result.Matches), []string{"all", "half", "none"}) {
		t.Fatalf("unexpected order %q", uids(result.Matches))
	}
}

func TestScoreAllSoftMatchedWithoutLocation(t *testing.T) {
	c := &candidate.Candidate{Designation: "Teacher", Languages: []string{"English"}}
	filters := FromCriteria(Criteria{Designations: Values{"Teacher"}, Languages: Values{"English"}})

	matched, _ := Evaluate(c, filters)
	if got := Score(matched, filters); got != MaxScore {
		t.Fatalf("expected %d, got %d", MaxScore, got)
	}
}

func TestCityAndGenderScenario(t *testing.T) {
	input := []*candidate.Candidate{
		{UID: "male", City: "Pune", Gender: "Male"},
		{UID: "female", City: "Pune", Gender: "Female"},
	}

	result := New(nil, nil).Apply(input, Criteria{City: "Pune", Gender: Values{"Female"}})

	if len(result.Matches) != 2 {
		t.Fatalf("expected both candidates to pass, got %q", uids(result.Matches))
	}
	if result.Matches[0].Candidate.UID != "female" || result.Matches[0].RelevanceScore != 100 {
		t.Fatalf("expected female first with 100, got %s/%d", result.Matches[0].Candidate.UID, result.Matches[0].RelevanceScore)
	}
	if result.Matches[1].Candidate.UID != "male" || result.Matches[1].RelevanceScore != 40 {
		t.Fatalf("expected male second with 40, got %s/%d", result.Matches[1].Candidate.UID, result.Matches[1].RelevanceScore)
	}
}

func TestRetentionPolicies(t *testing.T) {
	input := []*candidate.Candidate{
		{UID: "teacher", Designation: "Teacher"},
		{UID: "clerk", Designation: "Clerk"},
	}
	criteria := Criteria{Designations: Values{"Teacher"}}

	strict := New(&Config{Retention: RetainSoftRequired}, nil).Apply(input, criteria)
	if !slices.Equal(uids(strict.Matches), []string{"teacher"}) {
		t.Fatalf("expected lone soft filter to act as required, got %q", uids(strict.Matches))
	}

	loose := New(&Config{Retention: RetainScoringOnly}, nil).Apply(input, criteria)
	if !slices.Equal(uids(loose.Matches), []string{"teacher", "clerk"}) {
		t.Fatalf("expected scoring-only to keep both, got %q", uids(loose.Matches))
	}
	if loose.Matches[1].RelevanceScore != BaseScore {
		t.Fatalf("expected unmatched candidate at floor, got %d", loose.Matches[1].RelevanceScore)
	}
}

func TestOnlyLocationFiltersRetainPassingCandidates(t *testing.T) {
	input := []*candidate.Candidate{
		{UID: "a", Country: "India"},
		{UID: "b", Country: "Nepal"},
		{UID: "c", Country: "india "},
	}

	result := New(nil, nil).Apply(input, Criteria{Country: "India"})

	if !slices.Equal(uids(result.Matches), []string{"a", "c"}) {
		t.Fatalf("unexpected result %q", uids(result.Matches))
	}
	for _, m := range result.Matches {
		if m.RelevanceScore != MaxScore {
			t.Fatalf("expected %d without soft filters, got %d", MaxScore, m.RelevanceScore)
		}
	}
}

func TestSortStatePriority(t *testing.T) {
	matches := []Match{
		{Candidate: &candidate.Candidate{UID: "partial", State: "Maharashtra West"}, RelevanceScore: 100},
		{Candidate: &candidate.Candidate{UID: "none", State: "Goa"}, RelevanceScore: 100},
		{Candidate: &candidate.Candidate{UID: "exact", State: "Maharashtra"}, RelevanceScore: 40},
	}

	Sort(matches, Criteria{State: "maharashtra"})

	if !slices.Equal(uids(matches), []string{"exact", "partial", "none"}) {
		t.Fatalf("unexpected order %q", uids(matches))
	}
}

func TestSortWithoutLocationUsesScoreOnly(t *testing.T) {
	matches := []Match{
		{Candidate: &candidate.Candidate{UID: "low", City: "Pune"}, RelevanceScore: 40},
		{Candidate: &candidate.Candidate{UID: "high-a"}, RelevanceScore: 100},
		{Candidate: &candidate.Candidate{UID: "high-b", City: "Pune"}, RelevanceScore: 100},
	}

	criteria := Criteria{City: "  ", Gender: Values{"Female"}}
	if criteria.HasLocation() {
		t.Fatalf("blank city must not count as a location filter")
	}

	Sort(matches, criteria)

	if !slices.Equal(uids(matches), []string{"high-a", "high-b", "low"}) {
		t.Fatalf("unexpected order %q", uids(matches))
	}
}

func TestApplyLogsStep(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	New(nil, zap.New(core)).Apply([]*candidate.Candidate{{UID: "a", Gender: "Female"}}, Criteria{Gender: Values{"Female"}})

	entries := observed.FilterMessage("filter step").All()
	if len(entries) != 1 {
		t.Fatalf("expected one filter step entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["left"] != int64(1) {
		t.Fatalf("expected left=1, got %v", ctx["left"])
	}
}

func TestParseRetention(t *testing.T) {
	if r, err := ParseRetention(""); err != nil || r != RetainSoftRequired {
		t.Fatalf("expected default policy, got %q (%v)", r, err)
	}
	if _, err := ParseRetention("bogus"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
