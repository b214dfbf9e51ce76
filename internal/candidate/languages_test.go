package candidate

import (
	"errors"
	"slices"
	"testing"
)

func TestParseLanguages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		expect []string
	}{
		{
			name:   "comma separated text",
			input:  "English, Hindi, Tamil",
			expect: []string{"English", "Hindi", "Tamil"},
		},
		{
			name:   "json array of objects",
			input:  `[{"language":"English"}]`,
			expect: []string{"English"},
		},
		{
			name:   "json object string",
			input:  ` {"language":" English "}`,
			expect: []string{"English"},
		},
		{
			name:   "json array of strings",
			input:  `[" Marathi ","Hindi"]`,
			expect: []string{"Marathi", "Hindi"},
		},
		{
			name:   "nil",
			input:  nil,
			expect: []string{},
		},
		{
			name:   "decoded array with mixed elements",
			input:  []any{" English ", map[string]any{"language": "Kannada"}, 42},
			expect: []string{"English", "Kannada", "42"},
		},
		{
			name:   "string slice",
			input:  []string{"Bengali", " "},
			expect: []string{"Bengali"},
		},
		{
			name:   "single number",
			input:  7,
			expect: []string{"7"},
		},
		{
			name:   "json encoded single string",
			input:  `"Urdu"`,
			expect: []string{"Urdu"},
		},
		{
			name:   "empty entries dropped",
			input:  "English,, ,Hindi",
			expect: []string{"English", "Hindi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLanguages(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.expect) {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestParseLanguagesMalformedJSONFallsBackToSplit(t *testing.T) {
	got, err := ParseLanguages(`[English, Hindi`)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	expect := []string{"[English", "Hindi"}
	if !slices.Equal(got, expect) {
		t.Fatalf("expected %q, got %q", expect, got)
	}
}

func TestClassifyLanguages(t *testing.T) {
	cases := []struct {
		input any
		check func(LanguageField) bool
	}{
		{input: "English", check: func(f LanguageField) bool { _, ok := f.(DelimitedString); return ok }},
		{input: `["English"]`, check: func(f LanguageField) bool { _, ok := f.(JSONEncodedList); return ok }},
		{input: `{"language":"English"}`, check: func(f LanguageField) bool { _, ok := f.(JSONEncodedList); return ok }},
		{input: []any{"English"}, check: func(f LanguageField) bool { _, ok := f.(StringList); return ok }},
		{input: true, check: func(f LanguageField) bool { _, ok := f.(SingleValue); return ok }},
	}

	for _, c := range cases {
		if field := ClassifyLanguages(c.input); !c.check(field) {
			t.Fatalf("unexpected variant %T for %#v", field, c.input)
		}
	}
}
