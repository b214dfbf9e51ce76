package candidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Candidate is a teacher profile as served by the candidates endpoint.
// Raw loosely typed attributes are resolved once by Normalize.
type Candidate struct {
	UID      string `mapstructure:"firebase_uid" json:"firebase_uid"`
	FullName string `mapstructure:"fullName" json:"fullName,omitempty"`
	Email    string `mapstructure:"email" json:"email,omitempty"`
	Phone    string `mapstructure:"callingNumber" json:"callingNumber,omitempty"`

	Country string `mapstructure:"permanent_country_name" json:"permanent_country_name,omitempty"`
	State   string `mapstructure:"permanent_state_name" json:"permanent_state_name,omitempty"`
	City    string `mapstructure:"permanent_city_name" json:"permanent_city_name,omitempty"`

	PresentCountry string `mapstructure:"present_country_name" json:"present_country_name,omitempty"`
	PresentState   string `mapstructure:"present_state_name" json:"present_state_name,omitempty"`
	PresentCity    string `mapstructure:"present_city_name" json:"present_city_name,omitempty"`

	LanguagesRaw any `mapstructure:"languages" json:"-"`
	EducationRaw any `mapstructure:"education_details_json" json:"-"`

	GradesTaught        string `mapstructure:"grades_taught" json:"grades_taught,omitempty"`
	CurriculumTaught    string `mapstructure:"curriculum_taught" json:"curriculum_taught,omitempty"`
	Designation         string `mapstructure:"designation" json:"designation,omitempty"`
	Gender              string `mapstructure:"gender" json:"gender,omitempty"`
	JobType             string `mapstructure:"Job_Type" json:"Job_Type,omitempty"`
	NoticePeriod        string `mapstructure:"notice_period" json:"notice_period,omitempty"`
	JobSearchStatus     string `mapstructure:"job_search_status" json:"job_search_status,omitempty"`
	JobShiftPreferences string `mapstructure:"job_shift_preferences" json:"job_shift_preferences,omitempty"`
	TutionPreferences   string `mapstructure:"tution_preferences" json:"tution_preferences,omitempty"`
	FullTimeOffline     string `mapstructure:"full_time_offline" json:"full_time_offline,omitempty"`
	TeachingExperience  string `mapstructure:"teaching_experience" json:"teaching_experience,omitempty"`
	ExpectedSalary      string `mapstructure:"expected_salary" json:"expected_salary,omitempty"`

	// Resolved by Normalize.
	Languages     []string  `mapstructure:"-" json:"languages"`
	EducationText string    `mapstructure:"-" json:"education_details_json,omitempty"`
	Education     Education `mapstructure:"-" json:"education"`

	// Set from the favorites endpoint for the current user.
	Favourite  bool `mapstructure:"-" json:"favourite"`
	Saved      bool `mapstructure:"-" json:"saved"`
	Downloaded bool `mapstructure:"-" json:"downloaded"`
}

// Candidates is an ordered candidate list.
type Candidates struct {
	Items []*Candidate
}

// Normalize resolves languages and education into their parsed forms.
// Parse problems are reported but the candidate always ends up usable.
func (c *Candidate) Normalize() error {
	var errs []error

	langs, err := ParseLanguages(c.LanguagesRaw)
	if err != nil {
		errs = append(errs, err)
	}
	c.Languages = langs

	c.EducationText = educationText(c.EducationRaw)
	edu, err := ParseEducation(c.EducationText)
	if err != nil {
		errs = append(errs, err)
	}
	c.Education = edu

	return errors.Join(errs...)
}

// Name returns the display name, falling back to the uid.
func (c *Candidate) Name() string {
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	return c.UID
}

// Location formats the permanent location as "city, state, country" skipping empty parts.
func (c *Candidate) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.City, c.State, c.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func educationText(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}

// Decode turns loosely typed API items into normalized candidates.
// Items that cannot be decoded at all are skipped and reported in the returned error,
// so callers get every usable candidate even when err is non-nil.
func Decode(items []any) (*Candidates, error) {
	result := &Candidates{Items: make([]*Candidate, 0, len(items))}
	var errs []error

	for i, item := range items {
		var c Candidate
		cfg := &mapstructure.DecoderConfig{
			Result:           &c,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}

		if err := decoder.Decode(item); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}

		if err := c.Normalize(); err != nil {
			errs = append(errs, fmt.Errorf("candidate %s: %w", c.UID, err))
		}

		result.Items = append(result.Items, &c)
	}

	return result, errors.Join(errs...)
}

func (cs *Candidates) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.Items)
}

func (cs *Candidates) UIDs() []string {
	ids := make([]string, 0, cs.Len())
	for _, c := range cs.Items {
		ids = append(ids, c.UID)
	}
	return ids
}

func (cs *Candidates) FindByUID(uid string) *Candidate {
	for _, c := range cs.Items {
		if c.UID == uid {
			return c
		}
	}
	return nil
}

// Keep drops every candidate whose uid is not in allowed and returns the dropped uids.
func (cs *Candidates) Keep(allowed map[string]struct{}) []string {
	kept := make([]*Candidate, 0, len(cs.Items))
	dropped := make([]string, 0)

	for _, c := range cs.Items {
		if _, ok := allowed[c.UID]; ok {
			kept = append(kept, c)
			continue
		}
		dropped = append(dropped, c.UID)
	}

	cs.Items = kept
	return dropped
}

// DumpToTmpFile writes the list as indented JSON into a new temporary file.
func (cs *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cs.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}
