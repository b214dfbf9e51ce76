package filtering

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Filter keys. The order of the slices below is the evaluation and reporting order.
const (
	KeyCountry             = "country"
	KeyState               = "state"
	KeyCity                = "city"
	KeyLanguages           = "languages"
	KeyEducation           = "education"
	KeyCoreSubjects        = "coreSubjects"
	KeyJobTypes            = "jobTypes"
	KeyGrades              = "grades"
	KeyCurriculum          = "curriculum"
	KeyDesignations        = "designations"
	KeyGender              = "gender"
	KeyNoticePeriod        = "noticePeriod"
	KeyJobSearchStatus     = "jobSearchStatus"
	KeyJobShiftPreferences = "jobShiftPreferences"
	KeyTutionPreferences   = "tutionPreferences"
	KeyMinExperience       = "minExperience"
	KeyTeachingExperience  = "teachingExperience"
	KeyMinSalary           = "minSalary"
)

var (
	LocationKeys = []string{KeyCountry, KeyState, KeyCity}

	MultiSelectKeys = []string{
		KeyLanguages, KeyEducation, KeyCoreSubjects, KeyJobTypes, KeyGrades, KeyCurriculum,
		KeyDesignations, KeyGender, KeyNoticePeriod, KeyJobSearchStatus, KeyJobShiftPreferences,
		KeyTutionPreferences,
	}

	ThresholdKeys = []string{KeyMinExperience, KeyTeachingExperience, KeyMinSalary}
)

// Criteria is the full set of user selected constraints at a point in time.
// Zero values mean "not set".
type Criteria struct {
	Country Choice `json:"country,omitempty" validate:"max=200"`
	State   Choice `json:"state,omitempty" validate:"max=200"`
	City    Choice `json:"city,omitempty" validate:"max=200"`

	Languages           Values `json:"languages,omitempty" validate:"max=50"`
	Education           Values `json:"education,omitempty" validate:"max=50"`
	CoreSubjects        Values `json:"coreSubjects,omitempty" validate:"max=50"`
	JobTypes            Values `json:"jobTypes,omitempty" validate:"max=50"`
	Grades              Values `json:"grades,omitempty" validate:"max=50"`
	Curriculum          Values `json:"curriculum,omitempty" validate:"max=50"`
	Designations        Values `json:"designations,omitempty" validate:"max=50"`
	Gender              Values `json:"gender,omitempty" validate:"max=50"`
	NoticePeriod        Values `json:"noticePeriod,omitempty" validate:"max=50"`
	JobSearchStatus     Values `json:"jobSearchStatus,omitempty" validate:"max=50"`
	JobShiftPreferences Values `json:"jobShiftPreferences,omitempty" validate:"max=50"`
	TutionPreferences   Values `json:"tutionPreferences,omitempty" validate:"max=50"`

	MinExperience      Threshold `json:"minExperience,omitempty" validate:"gte=0"`
	TeachingExperience Threshold `json:"teachingExperience,omitempty" validate:"gte=0"`
	MinSalary          Threshold `json:"minSalary,omitempty" validate:"gte=0"`
}

// Choice is a single selection. It decodes from a plain value or a UI option object.
type Choice string

// Values is a multi selection. It decodes from a list of plain values or UI option objects.
type Values []string

// Threshold is a numeric lower bound. Zero means inactive.
type Threshold int

var validate = validator.New()

// Validate checks the criteria bounds.
func (c *Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid criteria: %w", err)
	}
	return nil
}

// Location returns the location value for one of LocationKeys.
func (c *Criteria) Location(key string) string {
	switch key {
	case KeyCountry:
		return strings.TrimSpace(string(c.Country))
	case KeyState:
		return strings.TrimSpace(string(c.State))
	case KeyCity:
		return strings.TrimSpace(string(c.City))
	default:
		return ""
	}
}

// Selection returns the values of one of MultiSelectKeys with blanks removed.
func (c *Criteria) Selection(key string) []string {
	var v Values
	switch key {
	case KeyLanguages:
		v = c.Languages
	case KeyEducation:
		v = c.Education
	case KeyCoreSubjects:
		v = c.CoreSubjects
	case KeyJobTypes:
		v = c.JobTypes
	case KeyGrades:
		v = c.Grades
	case KeyCurriculum:
		v = c.Curriculum
	case KeyDesignations:
		v = c.Designations
	case KeyGender:
		v = c.Gender
	case KeyNoticePeriod:
		v = c.NoticePeriod
	case KeyJobSearchStatus:
		v = c.JobSearchStatus
	case KeyJobShiftPreferences:
		v = c.JobShiftPreferences
	case KeyTutionPreferences:
		v = c.TutionPreferences
	}
	return v.clean()
}

// Threshold returns the bound for one of ThresholdKeys.
func (c *Criteria) Threshold(key string) int {
	switch key {
	case KeyMinExperience:
		return int(c.MinExperience)
	case KeyTeachingExperience:
		return int(c.TeachingExperience)
	case KeyMinSalary:
		return int(c.MinSalary)
	default:
		return 0
	}
}

// ActiveKeys lists the keys that carry a value, in evaluation order.
func (c *Criteria) ActiveKeys() []string {
	keys := make([]string, 0)
	for _, key := range LocationKeys {
		if c.Location(key) != "" {
			keys = append(keys, key)
		}
	}
	for _, key := range MultiSelectKeys {
		if len(c.Selection(key)) > 0 {
			keys = append(keys, key)
		}
	}
	for _, key := range ThresholdKeys {
		if c.Threshold(key) > 0 {
			keys = append(keys, key)
		}
	}
	return keys
}

// IsEmpty reports whether no filter is active.
func (c *Criteria) IsEmpty() bool {
	return len(c.ActiveKeys()) == 0
}

// HasLocation reports whether any location filter is active.
func (c *Criteria) HasLocation() bool {
	for _, key := range LocationKeys {
		if c.Location(key) != "" {
			return true
		}
	}
	return false
}

// ParseCriteria decodes criteria from JSON, unwrapping UI option objects.
func ParseCriteria(data []byte) (Criteria, error) {
	var c Criteria
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return c, nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Criteria{}, fmt.Errorf("decode criteria: %w", err)
	}
	return c, nil
}

// CriteriaFromMap converts a loosely typed map (config sections, query parameters) into criteria.
// Keys are matched case-insensitively.
func CriteriaFromMap(m map[string]any) (Criteria, error) {
	if len(m) == 0 {
		return Criteria{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return Criteria{}, fmt.Errorf("encode criteria: %w", err)
	}
	return ParseCriteria(data)
}

func (v Values) clean() []string {
	out := make([]string, 0, len(v))
	for _, s := range v {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Choice(optionValue(raw))
	return nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch typed := raw.(type) {
	case nil:
		*v = nil
	case []any:
		out := make(Values, 0, len(typed))
		for _, item := range typed {
			if s := optionValue(item); s != "" {
				out = append(out, s)
			}
		}
		*v = out
	case string:
		// Comma separated shorthand, as typed on the command line.
		out := make(Values, 0)
		for _, part := range strings.Split(typed, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*v = out
	default:
		if s := optionValue(typed); s != "" {
			*v = Values{s}
		} else {
			*v = nil
		}
	}
	return nil
}

func (t *Threshold) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s := optionValue(raw)
	if s == "" {
		*t = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("threshold %q is not a number", s)
	}
	*t = Threshold(int(f))
	return nil
}

// optionValue unwraps {"value": x, "label": y} objects and stringifies scalars.
func optionValue(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case map[string]any:
		if value, ok := typed["value"]; ok {
			return optionValue(value)
		}
		if label, ok := typed["label"]; ok {
			return optionValue(label)
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}
