package filtering

import (
	"strconv"
	"strings"

	"github.com/spigell/teacherlink-search/internal/candidate"
)

// Filter represents a single active filter dimension evaluated against candidates.
type Filter interface {
	Name() string
	// Required filters exclude a candidate on failure. The rest only add to the match list and score.
	Required() bool
	Match(c *candidate.Candidate) bool
}

// Status represents runtime information about a filter.
type Status struct {
	Name     string            `json:"name"`
	Required bool              `json:"required"`
	Details  map[string]string `json:"details,omitempty"`
}

// Value returns the configured filter value as text.
func (s Status) Value() string {
	for _, key := range []string{"value", "values", "min"} {
		if v, ok := s.Details[key]; ok {
			return v
		}
	}
	return ""
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// FromCriteria builds the active filters in evaluation order: locations, multi selects, thresholds.
func FromCriteria(c Criteria) []Filter {
	filters := make([]Filter, 0)

	for _, key := range LocationKeys {
		if value := c.Location(key); value != "" {
			filters = append(filters, &locationFilter{key: key, value: value, field: locationFields[key]})
		}
	}

	for _, key := range MultiSelectKeys {
		if values := c.Selection(key); len(values) > 0 {
			filters = append(filters, &multiSelectFilter{
				key:    key,
				values: values,
				field:  multiSelectFields[key],
				exact:  exactKeys[key],
			})
		}
	}

	for _, key := range ThresholdKeys {
		if bound := c.Threshold(key); bound > 0 {
			filters = append(filters, &thresholdFilter{key: key, min: bound, field: thresholdFields[key]})
		}
	}

	return filters
}

// Describe returns status entries for the provided filters.
func Describe(filters []Filter) []Status {
	statuses := make([]Status, 0, len(filters))
	for _, f := range filters {
		if reporter, ok := f.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{Name: f.Name(), Required: f.Required()})
	}
	return statuses
}

var locationFields = map[string]func(*candidate.Candidate) string{
	KeyCountry: func(c *candidate.Candidate) string { return c.Country },
	KeyState:   func(c *candidate.Candidate) string { return c.State },
	KeyCity:    func(c *candidate.Candidate) string { return c.City },
}

var multiSelectFields = map[string]func(*candidate.Candidate) []string{
	KeyLanguages:           func(c *candidate.Candidate) []string { return c.Languages },
	KeyEducation:           func(c *candidate.Candidate) []string { return c.Education.Types },
	KeyCoreSubjects:        func(c *candidate.Candidate) []string { return c.Education.Subjects },
	KeyJobTypes:            func(c *candidate.Candidate) []string { return []string{c.JobType} },
	KeyGrades:              func(c *candidate.Candidate) []string { return []string{c.GradesTaught} },
	KeyCurriculum:          func(c *candidate.Candidate) []string { return []string{c.CurriculumTaught} },
	KeyDesignations:        func(c *candidate.Candidate) []string { return []string{c.Designation} },
	KeyGender:              func(c *candidate.Candidate) []string { return []string{c.Gender} },
	KeyNoticePeriod:        func(c *candidate.Candidate) []string { return []string{c.NoticePeriod} },
	KeyJobSearchStatus:     func(c *candidate.Candidate) []string { return []string{c.JobSearchStatus} },
	KeyJobShiftPreferences: func(c *candidate.Candidate) []string { return []string{c.JobShiftPreferences} },
	KeyTutionPreferences:   func(c *candidate.Candidate) []string { return []string{c.TutionPreferences} },
}

// Categorical families compare whole values: "male" is a substring of "female".
var exactKeys = map[string]bool{
	KeyGender: true,
}

var thresholdFields = map[string]func(*candidate.Candidate) string{
	KeyMinExperience:      func(c *candidate.Candidate) string { return c.FullTimeOffline },
	KeyTeachingExperience: func(c *candidate.Candidate) string { return c.TeachingExperience },
	KeyMinSalary:          func(c *candidate.Candidate) string { return c.ExpectedSalary },
}

type locationFilter struct {
	key   string
	value string
	field func(*candidate.Candidate) string
}

func (f *locationFilter) Name() string { return f.key }

func (f *locationFilter) Required() bool { return true }

// Match requires a non-empty candidate value equal to the filter value.
func (f *locationFilter) Match(c *candidate.Candidate) bool {
	have := candidate.Fold(f.field(c))
	return have != "" && have == candidate.Fold(f.value)
}

func (f *locationFilter) Status() Status {
	return Status{Name: f.key, Required: true, Details: map[string]string{"value": f.value}}
}

type multiSelectFilter struct {
	key    string
	values []string
	field  func(*candidate.Candidate) []string
	exact  bool
}

func (f *multiSelectFilter) Name() string { return f.key }

func (f *multiSelectFilter) Required() bool { return false }

func (f *multiSelectFilter) Match(c *candidate.Candidate) bool {
	if f.exact {
		return MatchExact(f.field(c), f.values)
	}
	return MatchAny(f.field(c), f.values)
}

func (f *multiSelectFilter) Status() Status {
	return Status{Name: f.key, Details: map[string]string{"values": strings.Join(f.values, ",")}}
}

type thresholdFilter struct {
	key   string
	min   int
	field func(*candidate.Candidate) string
}

func (f *thresholdFilter) Name() string { return f.key }

func (f *thresholdFilter) Required() bool { return false }

func (f *thresholdFilter) Match(c *candidate.Candidate) bool {
	n, ok := candidate.LeadingInt(f.field(c))
	return ok && n >= f.min
}

func (f *thresholdFilter) Status() Status {
	return Status{Name: f.key, Details: map[string]string{"min": strconv.Itoa(f.min)}}
}

// MatchAny reports whether any candidate value matches any wanted value: equal, or either one
// containing the other, ignoring case. Blank values never match.
func MatchAny(have, want []string) bool {
	for _, h := range have {
		h = candidate.Fold(h)
		if h == "" {
			continue
		}
		for _, w := range want {
			w = candidate.Fold(w)
			if w == "" {
				continue
			}
			if h == w || strings.Contains(h, w) || strings.Contains(w, h) {
				return true
			}
		}
	}
	return false
}

// MatchExact reports whether any candidate value equals any wanted value, ignoring case.
func MatchExact(have, want []string) bool {
	for _, h := range have {
		h = candidate.Fold(h)
		if h == "" {
			continue
		}
		for _, w := range want {
			if h == candidate.Fold(w) {
				return true
			}
		}
	}
	return false
}
