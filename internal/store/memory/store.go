// Package memory provides an in-memory entity store for development and
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openhire/brokerd/internal/broker"
)

// Store implements broker.Store with maps guarded by a single RWMutex.
// Insertion order is tracked so lookups that expect at most one match
// resolve deterministically.
type Store struct {
	mu          sync.RWMutex
	companies   map[string]broker.Company
	companyKeys []string
	jobs        map[string]broker.Job
	jobKeys     []string
	reviews     map[string]broker.Review
	reviewKeys  []string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		companies: make(map[string]broker.Company),
		jobs:      make(map[string]broker.Job),
		reviews:   make(map[string]broker.Review),
	}
}

// CompanyByExternalID returns the first company with the given external id,
// or nil when none exists.
func (s *Store) CompanyByExternalID(_ context.Context, externalID string) (*broker.Company, error) {
	if externalID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.companyKeys {
		if c, ok := s.companies[key]; ok && c.ExternalID == externalID {
			out := copyCompany(c)
			return &out, nil
		}
	}
	return nil, nil
}

// CompanyByName returns the first company with the given name, or nil.
func (s *Store) CompanyByName(_ context.Context, name string) (*broker.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.companyKeys {
		if c, ok := s.companies[key]; ok && c.Name == name {
			out := copyCompany(c)
			return &out, nil
		}
	}
	return nil, nil
}

// PlaceholdersByName returns name-only companies with the given name.
func (s *Store) PlaceholdersByName(_ context.Context, name string) ([]broker.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []broker.Company
	for _, key := range s.companyKeys {
		if c, ok := s.companies[key]; ok && c.Name == name && c.ExternalID == "" {
			out = append(out, copyCompany(c))
		}
	}
	return out, nil
}

// SaveCompany validates and upserts, assigning Key on first save.
func (s *Store) SaveCompany(_ context.Context, c *broker.Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Key == "" {
		c.Key = uuid.NewString()
	}
	if _, exists := s.companies[c.Key]; !exists {
		s.companyKeys = append(s.companyKeys, c.Key)
	}
	s.companies[c.Key] = copyCompany(*c)
	return nil
}

// DeleteCompany removes the company addressed by key. Missing keys are a
// no-op.
func (s *Store) DeleteCompany(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[key]; !ok {
		return nil
	}
	delete(s.companies, key)
	for i, have := range s.companyKeys {
		if have == key {
			s.companyKeys = append(s.companyKeys[:i], s.companyKeys[i+1:]...)
			break
		}
	}
	return nil
}

// FindJob matches (employerName AND descriptionText) OR externalID.
func (s *Store) FindJob(_ context.Context, employerName, descriptionText, externalID string) (*broker.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.jobKeys {
		j, ok := s.jobs[key]
		if !ok {
			continue
		}
		if (j.EmployerName == employerName && j.DescriptionText == descriptionText) ||
			(externalID != "" && j.ExternalID == externalID) {
			out := copyJob(j)
			return &out, nil
		}
	}
	return nil, nil
}

// JobsByEmployerExternalID returns jobs linked to the employer.
func (s *Store) JobsByEmployerExternalID(_ context.Context, externalID string) ([]broker.Job, error) {
	if externalID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []broker.Job
	for _, key := range s.jobKeys {
		if j, ok := s.jobs[key]; ok && j.EmployerExternalID == externalID {
			out = append(out, copyJob(j))
		}
	}
	return out, nil
}

// UnlinkedJobsByEmployerName returns jobs naming the employer but carrying
// no employer external id.
func (s *Store) UnlinkedJobsByEmployerName(_ context.Context, name string) ([]broker.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []broker.Job
	for _, key := range s.jobKeys {
		if j, ok := s.jobs[key]; ok && j.EmployerName == name && j.EmployerExternalID == "" {
			out = append(out, copyJob(j))
		}
	}
	return out, nil
}

// SaveJob validates and upserts, assigning Key on first save.
func (s *Store) SaveJob(_ context.Context, j *broker.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.Key == "" {
		j.Key = uuid.NewString()
	}
	if _, exists := s.jobs[j.Key]; !exists {
		s.jobKeys = append(s.jobKeys, j.Key)
	}
	s.jobs[j.Key] = copyJob(*j)
	return nil
}

// UpdateEmbedding sets only the embedding field; missing keys are a no-op.
func (s *Store) UpdateEmbedding(_ context.Context, key string, embedding []float64) error {
	if embedding != nil && len(embedding) != broker.EmbeddingDim {
		return &broker.ValidationError{Reason: "embedding length mismatch"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	if !ok {
		return nil
	}
	if embedding == nil {
		j.Embedding = nil
	} else {
		j.Embedding = append([]float64(nil), embedding...)
	}
	s.jobs[key] = j
	return nil
}

// ReviewByExternalIDs returns the review with the unique
// (employer external id, review external id) pair, or nil.
func (s *Store) ReviewByExternalIDs(_ context.Context, employerExternalID, reviewExternalID string) (*broker.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.reviewKeys {
		r, ok := s.reviews[key]
		if !ok {
			continue
		}
		if r.EmployerExternalID == employerExternalID && r.ExternalID == reviewExternalID {
			out := copyReview(r)
			return &out, nil
		}
	}
	return nil, nil
}

// SaveReview validates and upserts. The (employer id, review id) pair is
// unique: saving a keyless review that collides with a stored one adopts
// the stored key instead of duplicating.
func (s *Store) SaveReview(_ context.Context, r *broker.Review) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Key == "" {
		for _, key := range s.reviewKeys {
			have := s.reviews[key]
			if have.EmployerExternalID == r.EmployerExternalID && have.ExternalID == r.ExternalID {
				r.Key = key
				break
			}
		}
	}
	if r.Key == "" {
		r.Key = uuid.NewString()
	}
	if _, exists := s.reviews[r.Key]; !exists {
		s.reviewKeys = append(s.reviewKeys, r.Key)
	}
	s.reviews[r.Key] = copyReview(*r)
	return nil
}

// UpdateSentiment sets only the sentiment score; missing keys are a no-op.
func (s *Store) UpdateSentiment(_ context.Context, key string, score *float64) error {
	if score != nil && (*score < 0 || *score > 1) {
		return &broker.ValidationError{Reason: "sentiment score outside [0,1]"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[key]
	if !ok {
		return nil
	}
	r.SentimentScore = copyFloat(score)
	s.reviews[key] = r
	return nil
}

// CompanyCount reports the number of stored companies (test helper).
func (s *Store) CompanyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.companies)
}

// JobCount reports the number of stored jobs (test helper).
func (s *Store) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// ReviewCount reports the number of stored reviews (test helper).
func (s *Store) ReviewCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}

func copyCompany(c broker.Company) broker.Company {
	out := c
	out.OverallRating = copyFloat(c.OverallRating)
	out.CultureAndValues = copyFloat(c.CultureAndValues)
	out.CareerOpportunities = copyFloat(c.CareerOpportunities)
	out.WorkLifeBalance = copyFloat(c.WorkLifeBalance)
	out.SeniorManagement = copyFloat(c.SeniorManagement)
	out.CEORating = copyFloat(c.CEORating)
	out.BizOutlook = copyFloat(c.BizOutlook)
	out.Recommend = copyFloat(c.Recommend)
	out.CompAndBenefits = copyFloat(c.CompAndBenefits)
	return out
}

func copyJob(j broker.Job) broker.Job {
	out := j
	if j.Embedding != nil {
		out.Embedding = append([]float64(nil), j.Embedding...)
	}
	return out
}

func copyReview(r broker.Review) broker.Review {
	out := r
	out.WorkLifeBalance = copyFloat(r.WorkLifeBalance)
	out.CultureAndValues = copyFloat(r.CultureAndValues)
	out.CareerOpportunities = copyFloat(r.CareerOpportunities)
	out.SeniorManagement = copyFloat(r.SeniorManagement)
	out.CompensationAndBenefits = copyFloat(r.CompensationAndBenefits)
	out.OverallRating = copyFloat(r.OverallRating)
	out.SentimentScore = copyFloat(r.SentimentScore)
	if r.RecommendationTags != nil {
		out.RecommendationTags = append([]string(nil), r.RecommendationTags...)
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
