package resolver

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/normalize"
)

// SentimentRequester enqueues a sentiment computation for a persisted
// review.
type SentimentRequester interface {
	RequestReviewSentiment(ctx context.Context, review *broker.Review) error
}

var reviewTextFields = []struct {
	name string
	get  func(*broker.Review) *string
}{
	{"employer_name", func(r *broker.Review) *string { return &r.EmployerName }},
	{"title", func(r *broker.Review) *string { return &r.Title }},
	{"job_title", func(r *broker.Review) *string { return &r.JobTitle }},
	{"pros", func(r *broker.Review) *string { return &r.Pros }},
	{"cons", func(r *broker.Review) *string { return &r.Cons }},
	{"advice_to_management", func(r *broker.Review) *string { return &r.AdviceToManagement }},
}

var reviewScoreFields = []struct {
	name string
	get  func(*broker.Review) **float64
}{
	{"work_life_balance", func(r *broker.Review) **float64 { return &r.WorkLifeBalance }},
	{"culture_and_values", func(r *broker.Review) **float64 { return &r.CultureAndValues }},
	{"career_opportunities", func(r *broker.Review) **float64 { return &r.CareerOpportunities }},
	{"senior_management", func(r *broker.Review) **float64 { return &r.SeniorManagement }},
	{"compensation_and_benefits", func(r *broker.Review) **float64 { return &r.CompensationAndBenefits }},
	{"overall_rating", func(r *broker.Review) **float64 { return &r.OverallRating }},
	{"sentiment_score", func(r *broker.Review) **float64 { return &r.SentimentScore }},
}

var reviewScoreFieldNames = func() []string {
	names := make([]string, len(reviewScoreFields))
	for i, f := range reviewScoreFields {
		names[i] = f.name
	}
	return names
}()

// ReviewResolver upserts reviews keyed by the unique
// (employer external id, review external id) pair.
type ReviewResolver struct {
	store     broker.ReviewStore
	sentiment SentimentRequester
	detector  broker.LanguageDetector
	clock     broker.Clock
	logger    *zap.Logger
}

// NewReviewResolver wires a ReviewResolver.
func NewReviewResolver(store broker.ReviewStore, sentiment SentimentRequester, detector broker.LanguageDetector, clock broker.Clock, logger *zap.Logger) *ReviewResolver {
	return &ReviewResolver{
		store:     store,
		sentiment: sentiment,
		detector:  detector,
		clock:     clock,
		logger:    logger.Named("review"),
	}
}

// UpsertReview applies one review record. The source is authoritative per
// key, so every recognized non-empty field overwrites the stored value; the
// language is re-detected from the joined free-text fields on every
// sighting and the record always persists (the language is set even when
// nothing else changed). A modified English review triggers a sentiment
// request over its non-empty text sub-fields.
func (r *ReviewResolver) UpsertReview(ctx context.Context, record map[string]any) (broker.Outcome, error) {
	rec, err := normalize.Record(record, normalize.Options{
		FloatFields: reviewScoreFieldNames,
		KeepLists:   []string{"recommendation_tags"},
	})
	if err != nil {
		return broker.OutcomeRejected, err
	}
	employerName := stringField(rec, "employer_name")
	employerExternalID := identityField(rec, "employer_external_id")
	reviewExternalID := identityField(rec, "review_external_id")
	if employerName == "" || employerExternalID == "" || reviewExternalID == "" {
		return broker.OutcomeRejected, &broker.ValidationError{
			Reason: "review requires employer_name, employer_external_id and review_external_id",
		}
	}

	review, err := r.store.ReviewByExternalIDs(ctx, employerExternalID, reviewExternalID)
	if err != nil {
		return broker.OutcomeRejected, fmt.Errorf("lookup review: %w", err)
	}
	if review == nil {
		review = &broker.Review{
			EmployerExternalID: employerExternalID,
			ExternalID:         reviewExternalID,
		}
	}

	modified := false
	for _, field := range reviewTextFields {
		value := stringField(rec, field.name)
		target := field.get(review)
		if value != "" && value != *target {
			*target = value
			modified = true
		}
	}
	for _, field := range reviewScoreFields {
		value, ok := rec[field.name].(float64)
		if !ok || value == 0 {
			continue
		}
		target := field.get(review)
		if *target == nil || **target != value {
			v := value
			*target = &v
			modified = true
		}
	}
	if tags := stringList(rec["recommendation_tags"]); len(tags) > 0 && !equalStrings(tags, review.RecommendationTags) {
		review.RecommendationTags = tags
		modified = true
	}

	detected, _ := r.detector.Detect(joinedReviewText(review))
	review.Language = detected

	if modified {
		review.LastModified = r.clock.Now()
	}
	if err := r.store.SaveReview(ctx, review); err != nil {
		return broker.OutcomeRejected, err
	}

	if modified && review.Language == "en" {
		if err := r.sentiment.RequestReviewSentiment(ctx, review); err != nil {
			return broker.OutcomeApplied, err
		}
	}

	if !modified {
		return broker.OutcomeUnchanged, nil
	}
	r.logger.Debug("applied review record",
		zap.String("employer_external_id", employerExternalID),
		zap.String("review_external_id", reviewExternalID))
	return broker.OutcomeApplied, nil
}

// joinedReviewText concatenates the non-empty free-text fields with single
// spaces for language detection.
func joinedReviewText(review *broker.Review) string {
	var parts []string
	for _, part := range []string{review.Pros, review.Cons, review.AdviceToManagement} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
