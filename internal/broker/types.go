// Package broker defines the canonical entities and the interfaces shared
// across the reconciliation subsystems.
package broker

import (
	"fmt"
	"time"
)

// EmbeddingDim is the only accepted length for a job description embedding.
const EmbeddingDim = 300

// Company is the canonical record for an employer. Identity is the external
// id assigned by the crawl source when present; a record carrying only a
// name is a placeholder created while processing a job from an employer we
// have not crawled yet.
type Company struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`

	// Profile fields from company_general_info records.
	Website      string `json:"website,omitempty"`
	Headquarters string `json:"headquarters,omitempty"`
	Size         string `json:"size,omitempty"`
	Founded      string `json:"founded,omitempty"`
	Industry     string `json:"industry,omitempty"`
	Revenue      string `json:"revenue,omitempty"`
	Competitors  string `json:"competitors,omitempty"`

	// Aggregate review scores. The first five range over [0,5], the last
	// four are percentages in [0,100].
	OverallRating       *float64 `json:"overall_rating,omitempty"`
	CultureAndValues    *float64 `json:"culture_and_values,omitempty"`
	CareerOpportunities *float64 `json:"career_opportunities,omitempty"`
	WorkLifeBalance     *float64 `json:"work_life_balance,omitempty"`
	SeniorManagement    *float64 `json:"senior_management,omitempty"`
	CEORating           *float64 `json:"ceo_rating,omitempty"`
	BizOutlook          *float64 `json:"biz_outlook,omitempty"`
	Recommend           *float64 `json:"recommend,omitempty"`
	CompAndBenefits     *float64 `json:"comp_and_benefits,omitempty"`

	LastModified time.Time `json:"last_modified"`
}

// Placeholder reports whether this company is a name-only stand-in.
func (c *Company) Placeholder() bool {
	return c.Name != "" && c.ExternalID == ""
}

// Validate enforces the rating range invariants before persisting.
func (c *Company) Validate() error {
	if c.Name == "" {
		return &ValidationError{Reason: "company name is required"}
	}
	fiveScale := map[string]*float64{
		"overall_rating":       c.OverallRating,
		"culture_and_values":   c.CultureAndValues,
		"career_opportunities": c.CareerOpportunities,
		"work_life_balance":    c.WorkLifeBalance,
		"senior_management":    c.SeniorManagement,
	}
	for name, v := range fiveScale {
		if v != nil && (*v < 0 || *v > 5) {
			return &ValidationError{Reason: fmt.Sprintf("company %s %.2f outside [0,5]", name, *v)}
		}
	}
	percent := map[string]*float64{
		"ceo_rating":        c.CEORating,
		"biz_outlook":       c.BizOutlook,
		"recommend":         c.Recommend,
		"comp_and_benefits": c.CompAndBenefits,
	}
	for name, v := range percent {
		if v != nil && (*v < 0 || *v > 100) {
			return &ValidationError{Reason: fmt.Sprintf("company %s %.2f outside [0,100]", name, *v)}
		}
	}
	return nil
}

// Job is the canonical record for a job posting. Identity is the
// (employer name, description text) pair, or the external job id when the
// source provided one; the two are alternative keys.
type Job struct {
	Key                string `json:"key"`
	Title              string `json:"title,omitempty"`
	JobTitle           string `json:"job_title,omitempty"`
	EmployerName       string `json:"employer_name"`
	EmployerExternalID string `json:"employer_external_id,omitempty"`

	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`

	DescriptionText     string `json:"description_text"`
	DescriptionHTML     string `json:"description_html"`
	DescriptionLanguage string `json:"description_language,omitempty"`

	// Embedding is nil until the embedding service responds; when set its
	// length is exactly EmbeddingDim.
	Embedding []float64 `json:"embedding,omitempty"`

	ExternalID   string    `json:"external_id,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
	LastModified time.Time `json:"last_modified"`
}

// Locations returns the non-empty location values in city, state, country
// order, without duplicates.
func (j *Job) Locations() []string {
	var out []string
	for _, loc := range []string{j.City, j.State, j.Country} {
		if loc == "" {
			continue
		}
		seen := false
		for _, have := range out {
			if have == loc {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, loc)
		}
	}
	return out
}

// Validate enforces required fields and the embedding length invariant.
func (j *Job) Validate() error {
	if j.EmployerName == "" {
		return &ValidationError{Reason: "job employer_name is required"}
	}
	if j.DescriptionText == "" {
		return &ValidationError{Reason: "job description_text is required"}
	}
	if j.Embedding != nil && len(j.Embedding) != EmbeddingDim {
		return &ValidationError{Reason: fmt.Sprintf("job embedding has %d values, want %d", len(j.Embedding), EmbeddingDim)}
	}
	return nil
}

// Review is the canonical record for a single company review. The
// (employer external id, review external id) pair is enforced unique.
type Review struct {
	Key                string `json:"key"`
	EmployerName       string `json:"employer_name"`
	EmployerExternalID string `json:"employer_external_id"`
	ExternalID         string `json:"external_id"`

	Title    string `json:"title,omitempty"`
	JobTitle string `json:"job_title,omitempty"`

	Pros               string `json:"pros,omitempty"`
	Cons               string `json:"cons,omitempty"`
	AdviceToManagement string `json:"advice_to_management,omitempty"`
	Language           string `json:"language,omitempty"`

	WorkLifeBalance          *float64 `json:"work_life_balance,omitempty"`
	CultureAndValues         *float64 `json:"culture_and_values,omitempty"`
	CareerOpportunities      *float64 `json:"career_opportunities,omitempty"`
	SeniorManagement         *float64 `json:"senior_management,omitempty"`
	CompensationAndBenefits  *float64 `json:"compensation_and_benefits,omitempty"`
	OverallRating            *float64 `json:"overall_rating,omitempty"`

	// SentimentScore in [0,1] is populated asynchronously by the sentiment
	// service; nil means no usable response has arrived.
	SentimentScore *float64 `json:"sentiment_score,omitempty"`

	RecommendationTags []string  `json:"recommendation_tags,omitempty"`
	LastModified       time.Time `json:"last_modified"`
}

// Validate enforces required identity fields and score ranges.
func (r *Review) Validate() error {
	if r.EmployerName == "" || r.EmployerExternalID == "" || r.ExternalID == "" {
		return &ValidationError{Reason: "review employer_name, employer_external_id and external_id are required"}
	}
	scores := map[string]*float64{
		"work_life_balance":         r.WorkLifeBalance,
		"culture_and_values":        r.CultureAndValues,
		"career_opportunities":      r.CareerOpportunities,
		"senior_management":         r.SeniorManagement,
		"compensation_and_benefits": r.CompensationAndBenefits,
		"overall_rating":            r.OverallRating,
	}
	for name, v := range scores {
		if v != nil && (*v < 0 || *v > 5) {
			return &ValidationError{Reason: fmt.Sprintf("review %s %.2f outside [0,5]", name, *v)}
		}
	}
	if r.SentimentScore != nil && (*r.SentimentScore < 0 || *r.SentimentScore > 1) {
		return &ValidationError{Reason: fmt.Sprintf("review sentiment_score %.2f outside [0,1]", *r.SentimentScore)}
	}
	return nil
}
