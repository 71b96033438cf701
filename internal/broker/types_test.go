package broker

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestCompanyValidateRanges(t *testing.T) {
	t.Parallel()

	c := Company{Name: "Acme", OverallRating: floatPtr(4.2), CEORating: floatPtr(88)}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	c.OverallRating = floatPtr(5.1)
	if err := c.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for overall_rating, got %v", err)
	}

	c.OverallRating = floatPtr(4.2)
	c.Recommend = floatPtr(101)
	if err := c.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for recommend, got %v", err)
	}

	c = Company{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestCompanyPlaceholder(t *testing.T) {
	t.Parallel()

	if !(&Company{Name: "Acme"}).Placeholder() {
		t.Fatal("name-only company should be a placeholder")
	}
	if (&Company{Name: "Acme", ExternalID: "c-1"}).Placeholder() {
		t.Fatal("company with external id is not a placeholder")
	}
}

func TestJobValidateEmbeddingLength(t *testing.T) {
	t.Parallel()

	j := Job{EmployerName: "Acme", DescriptionText: "text"}
	if err := j.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	j.Embedding = make([]float64, EmbeddingDim)
	if err := j.Validate(); err != nil {
		t.Fatalf("Validate() with %d-length embedding error = %v", EmbeddingDim, err)
	}

	j.Embedding = make([]float64, EmbeddingDim-1)
	err := j.Validate()
	if err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for short embedding, got %v", err)
	}
	if !strings.Contains(err.Error(), "299") {
		t.Fatalf("expected error to name the bad length, got %q", err.Error())
	}
}

func TestJobLocationsDistinct(t *testing.T) {
	t.Parallel()

	j := Job{City: "Singapore", State: "Singapore", Country: "Singapore"}
	if got := j.Locations(); len(got) != 1 || got[0] != "Singapore" {
		t.Fatalf("Locations() = %v, want one distinct value", got)
	}

	j = Job{City: "London", Country: "UK"}
	if got := j.Locations(); len(got) != 2 || got[0] != "London" || got[1] != "UK" {
		t.Fatalf("Locations() = %v", got)
	}
}

func TestReviewValidate(t *testing.T) {
	t.Parallel()

	r := Review{EmployerName: "Acme", EmployerExternalID: "c-1", ExternalID: "r-1"}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	r.SentimentScore = floatPtr(1.5)
	if err := r.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for sentiment score, got %v", err)
	}

	r.SentimentScore = nil
	r.OverallRating = floatPtr(-1)
	if err := r.Validate(); err == nil {
		t.Fatal("expected validation error for negative rating")
	}

	if err := (&Review{EmployerName: "Acme"}).Validate(); err == nil {
		t.Fatal("expected validation error for missing ids")
	}
}

func TestRecrawlKeyword(t *testing.T) {
	t.Parallel()

	if got := RecrawlKeyword("Acme", "London"); got != "Acme|||sep|||London" {
		t.Fatalf("RecrawlKeyword() = %q", got)
	}
	if got := RecrawlKeyword("Acme", ""); got != "Acme|||sep|||" {
		t.Fatalf("RecrawlKeyword() with empty location = %q", got)
	}
}
