package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	storememory "github.com/openhire/brokerd/internal/store/memory"
)

type sentimentRecorder struct {
	requested []string
}

func (s *sentimentRecorder) RequestReviewSentiment(_ context.Context, review *broker.Review) error {
	s.requested = append(s.requested, review.Key)
	return nil
}

func newReviewResolver(t *testing.T, detector broker.LanguageDetector) (*ReviewResolver, *storememory.Store, *sentimentRecorder) {
	t.Helper()
	store := storememory.NewStore()
	sentiment := &sentimentRecorder{}
	r := NewReviewResolver(store, sentiment, detector, fakeClock{now: baseTime}, zap.NewNop())
	return r, store, sentiment
}

func reviewRecord(overrides map[string]any) map[string]any {
	record := map[string]any{
		"type":                 broker.RecordTypeReview,
		"employer_name":        "Acme",
		"employer_external_id": "E1",
		"review_external_id":   "R1",
		"title":                "Great place",
		"pros":                 "smart colleagues",
		"cons":                 "long hours",
		"overall_rating":       4.0,
	}
	for key, value := range overrides {
		record[key] = value
	}
	return record
}

func TestUpsertReviewCreatesAndRequestsSentiment(t *testing.T) {
	r, store, sentiment := newReviewResolver(t, detectorStub{code: "en", ok: true})

	outcome, err := r.UpsertReview(context.Background(), reviewRecord(nil))
	require.NoError(t, err)
	assert.Equal(t, broker.OutcomeApplied, outcome)

	review, err := store.ReviewByExternalIDs(context.Background(), "E1", "R1")
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, "en", review.Language)
	assert.Equal(t, 4.0, *review.OverallRating)
	assert.Equal(t, baseTime, review.LastModified)
	assert.Equal(t, []string{review.Key}, sentiment.requested)
}

func TestUpsertReviewUniqueAcrossArrivalOrders(t *testing.T) {
	r, store, _ := newReviewResolver(t, detectorStub{code: "en", ok: true})
	ctx := context.Background()

	first := reviewRecord(map[string]any{"pros": "smart colleagues"})
	second := reviewRecord(map[string]any{"pros": "generous benefits"})

	_, err := r.UpsertReview(ctx, first)
	require.NoError(t, err)
	_, err = r.UpsertReview(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, store.ReviewCount())

	// Same two records in the opposite order on a fresh store still
	// converge to one record.
	r2, store2, _ := newReviewResolver(t, detectorStub{code: "en", ok: true})
	_, err = r2.UpsertReview(ctx, second)
	require.NoError(t, err)
	_, err = r2.UpsertReview(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, store2.ReviewCount())
}

func TestUpsertReviewAlwaysPersistsLanguage(t *testing.T) {
	r, store, sentiment := newReviewResolver(t, detectorStub{code: "en", ok: true})
	ctx := context.Background()

	_, err := r.UpsertReview(ctx, reviewRecord(nil))
	require.NoError(t, err)
	require.Len(t, sentiment.requested, 1)

	outcome, err := r.UpsertReview(ctx, reviewRecord(nil))
	require.NoError(t, err)
	assert.Equal(t, broker.OutcomeUnchanged, outcome)

	review, err := store.ReviewByExternalIDs(ctx, "E1", "R1")
	require.NoError(t, err)
	assert.Equal(t, "en", review.Language)
	// No second sentiment request for an unchanged review.
	assert.Len(t, sentiment.requested, 1)
}

func TestUpsertReviewSkipsSentimentForNonEnglish(t *testing.T) {
	r, _, sentiment := newReviewResolver(t, detectorStub{code: "it", ok: true})

	outcome, err := r.UpsertReview(context.Background(), reviewRecord(nil))
	require.NoError(t, err)
	assert.Equal(t, broker.OutcomeApplied, outcome)
	assert.Empty(t, sentiment.requested)
}

func TestUpsertReviewKeepsRecommendationTags(t *testing.T) {
	r, store, _ := newReviewResolver(t, detectorStub{code: "en", ok: true})

	_, err := r.UpsertReview(context.Background(), reviewRecord(map[string]any{
		"recommendation_tags": []any{"approves  of CEO", "recommends"},
	}))
	require.NoError(t, err)

	review, err := store.ReviewByExternalIDs(context.Background(), "E1", "R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"approves of CEO", "recommends"}, review.RecommendationTags)
}

func TestUpsertReviewAcceptsCrawlerSentimentScore(t *testing.T) {
	r, store, _ := newReviewResolver(t, detectorStub{code: "en", ok: true})

	_, err := r.UpsertReview(context.Background(), reviewRecord(map[string]any{
		"sentiment_score": 0.8,
	}))
	require.NoError(t, err)

	review, err := store.ReviewByExternalIDs(context.Background(), "E1", "R1")
	require.NoError(t, err)
	require.NotNil(t, review.SentimentScore)
	assert.Equal(t, 0.8, *review.SentimentScore)
}

func TestUpsertReviewRejectsOutOfRangeScore(t *testing.T) {
	r, _, _ := newReviewResolver(t, detectorStub{code: "en", ok: true})

	outcome, err := r.UpsertReview(context.Background(), reviewRecord(map[string]any{
		"overall_rating": 9.5,
	}))
	assert.Equal(t, broker.OutcomeRejected, outcome)
	assert.True(t, broker.IsValidation(err))
}

func TestUpsertReviewRequiresIdentity(t *testing.T) {
	r, _, _ := newReviewResolver(t, detectorStub{code: "en", ok: true})

	outcome, err := r.UpsertReview(context.Background(), map[string]any{
		"employer_name": "Acme",
		"pros":          "nice",
	})
	assert.Equal(t, broker.OutcomeRejected, outcome)
	assert.True(t, broker.IsValidation(err))
}
