package normalize

import (
	"reflect"
	"testing"

	"github.com/openhire/brokerd/internal/broker"
)

func TestRecordCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"employer_name":    "  Acme \t Corp \n",
		"description_text": "line one\n\nline   two",
	}
	out, err := Record(in, Options{})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if out["employer_name"] != "Acme Corp" {
		t.Fatalf("employer_name = %q", out["employer_name"])
	}
	if out["description_text"] != "line one line two" {
		t.Fatalf("description_text = %q", out["description_text"])
	}
	if in["employer_name"] != "  Acme \t Corp \n" {
		t.Fatal("input map must not be mutated")
	}
}

func TestRecordFlattensStringLists(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"competitors": []any{" Globex ", "Initech\tLLC"},
		"mixed":       []any{"a", 1},
	}
	out, err := Record(in, Options{})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if out["competitors"] != "Globex Initech LLC" {
		t.Fatalf("competitors = %q", out["competitors"])
	}
	// Heterogeneous lists pass through untouched.
	if !reflect.DeepEqual(out["mixed"], []any{"a", 1}) {
		t.Fatalf("mixed = %v", out["mixed"])
	}
}

func TestRecordKeepsDeclaredLists(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"recommendation_tags": []any{"  recommends ", "positive outlook"},
	}
	out, err := Record(in, Options{KeepLists: []string{"recommendation_tags"}})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	want := []string{"recommends", "positive outlook"}
	if !reflect.DeepEqual(out["recommendation_tags"], want) {
		t.Fatalf("recommendation_tags = %v, want %v", out["recommendation_tags"], want)
	}
}

func TestRecordCoercesFloats(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"overall_rating": "4.5",
		"ceo_rating":     87,
		"recommend":      92.0,
		"empty":          "",
	}
	opts := Options{FloatFields: []string{"overall_rating", "ceo_rating", "recommend", "empty", "absent"}}
	out, err := Record(in, opts)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if out["overall_rating"] != 4.5 || out["ceo_rating"] != 87.0 || out["recommend"] != 92.0 {
		t.Fatalf("coerced values = %v %v %v", out["overall_rating"], out["ceo_rating"], out["recommend"])
	}
	if out["empty"] != "" {
		t.Fatalf("empty value should be skipped, got %v", out["empty"])
	}
}

func TestRecordCoercionFailureIsValidation(t *testing.T) {
	t.Parallel()

	in := map[string]any{"overall_rating": "four and a half"}
	_, err := Record(in, Options{FloatFields: []string{"overall_rating"}})
	if err == nil || !broker.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCollapse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"one", "one"},
		{"  a  b\tc\n", "a b c"},
	}
	for _, tc := range cases {
		if got := Collapse(tc.in); got != tc.want {
			t.Errorf("Collapse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
