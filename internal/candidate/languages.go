package candidate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LanguageField is the resolved shape of the loosely typed "languages" attribute.
// Exactly one of StringList, DelimitedString, JSONEncodedList or SingleValue.
type LanguageField interface {
	Values() ([]string, error)
	isLanguageField()
}

// StringList is an already decoded array. Elements may be strings or objects with a "language" key.
type StringList []any

// DelimitedString is free text separated by commas, e.g. "English, Hindi".
type DelimitedString string

// JSONEncodedList is a string holding JSON, usually an array: `[{"language":"English"}]`.
// A lone object or string is read as one value.
type JSONEncodedList string

// SingleValue wraps anything else (numbers, booleans, lone objects).
type SingleValue struct {
	Value any
}

func (StringList) isLanguageField()      {}
func (DelimitedString) isLanguageField() {}
func (JSONEncodedList) isLanguageField() {}
func (SingleValue) isLanguageField()     {}

// ClassifyLanguages picks the variant for a raw value. A nil value classifies as an empty StringList.
func ClassifyLanguages(raw any) LanguageField {
	switch typed := raw.(type) {
	case nil:
		return StringList(nil)
	case []any:
		return StringList(typed)
	case []string:
		list := make(StringList, 0, len(typed))
		for _, s := range typed {
			list = append(list, s)
		}
		return list
	case string:
		trimmed := strings.TrimSpace(typed)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "\"") {
			return JSONEncodedList(trimmed)
		}
		return DelimitedString(typed)
	default:
		return SingleValue{Value: raw}
	}
}

func (l StringList) Values() ([]string, error) {
	values := make([]string, 0, len(l))
	for _, item := range l {
		if v := languageName(item); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

func (d DelimitedString) Values() ([]string, error) {
	return splitList(string(d)), nil
}

func (j JSONEncodedList) Values() ([]string, error) {
	var decoded any
	if err := json.Unmarshal([]byte(j), &decoded); err != nil {
		// Not JSON after all: fall back to comma separated text.
		return splitList(string(j)), fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	switch typed := decoded.(type) {
	case []any:
		return StringList(typed).Values()
	case nil:
		return []string{}, nil
	default:
		return SingleValue{Value: typed}.Values()
	}
}

func (s SingleValue) Values() ([]string, error) {
	if s.Value == nil {
		return []string{}, nil
	}
	if v := languageName(s.Value); v != "" {
		return []string{v}, nil
	}
	return []string{}, nil
}

// ParseLanguages normalizes any supported shape into trimmed, non-empty language names.
// The returned slice is never nil, even when err is set.
func ParseLanguages(raw any) ([]string, error) {
	langs, err := ClassifyLanguages(raw).Values()
	if langs == nil {
		langs = []string{}
	}
	if err != nil {
		return langs, fmt.Errorf("parse languages: %w", err)
	}
	return langs, nil
}

func languageName(item any) string {
	switch typed := item.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		if name, ok := typed["language"]; ok && name != nil {
			return strings.TrimSpace(fmt.Sprint(name))
		}
		encoded, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(encoded))
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}
