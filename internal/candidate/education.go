package candidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed marks input that could only be parsed partially or not at all.
var ErrMalformed = errors.New("malformed value")

var (
	typeKeys    = []string{"education_type", "educationType", "type", "degree", "degreeName"}
	subjectKeys = []string{"coreSubjects", "core_subjects", "subjects", "specialization"}

	// Brace delimited objects without nesting. Arrays inside are fine.
	fragmentRe = regexp.MustCompile(`\{[^{}]*\}`)

	quotedArrayRe   = regexp.MustCompile(`"\s*(\[[^\[\]]*\])\s*"`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// Education is the normalized view of education_details_json.
type Education struct {
	Types    []string `json:"types"`
	Subjects []string `json:"subjects"`
}

// ParseEducation extracts education types and subjects from loosely formed JSON-ish text.
// Fragments that cannot be repaired are skipped; their errors are joined into err while the
// returned Education still carries everything that could be read.
func ParseEducation(raw string) (Education, error) {
	edu := Education{Types: []string{}, Subjects: []string{}}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return edu, nil
	}

	var errs []error
	for _, fragment := range fragmentRe.FindAllString(raw, -1) {
		entry, err := decodeFragment(fragment)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if t := firstString(entry, typeKeys); t != "" {
			edu.Types = append(edu.Types, t)
		}
		edu.Subjects = append(edu.Subjects, subjectsOf(entry)...)
	}

	if len(errs) > 0 {
		return edu, fmt.Errorf("parse education: %w", errors.Join(errs...))
	}
	return edu, nil
}

func decodeFragment(fragment string) (map[string]any, error) {
	var entry map[string]any
	if err := json.Unmarshal([]byte(fragment), &entry); err == nil {
		return entry, nil
	}

	repaired := repairJSON(fragment)
	if err := json.Unmarshal([]byte(repaired), &entry); err != nil {
		return nil, fmt.Errorf("%w: fragment %q: %w", ErrMalformed, fragment, err)
	}
	return entry, nil
}

// repairJSON applies the usual fixes for hand written or double encoded objects.
func repairJSON(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `'`, `"`)
	s = quotedArrayRe.ReplaceAllString(s, `$1`)
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingCommaRe.ReplaceAllString(s, `$1`)
	return s
}

func firstString(entry map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := entry[key]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return ""
}

func subjectsOf(entry map[string]any) []string {
	for _, key := range subjectKeys {
		v, ok := entry[key]
		if !ok || v == nil {
			continue
		}
		return subjectValues(v)
	}
	return nil
}

func subjectValues(v any) []string {
	switch typed := v.(type) {
	case []any:
		values := make([]string, 0, len(typed))
		for _, item := range typed {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				values = append(values, s)
			}
		}
		return values
	case string:
		trimmed := strings.TrimSpace(typed)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "\"") {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return subjectValues(decoded)
			}
			if err := json.Unmarshal([]byte(repairJSON(trimmed)), &decoded); err == nil {
				return subjectValues(decoded)
			}
		}
		return splitList(trimmed)
	default:
		if s := strings.TrimSpace(fmt.Sprint(typed)); s != "" {
			return []string{s}
		}
		return nil
	}
}
