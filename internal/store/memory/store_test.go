package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhire/brokerd/internal/broker"
)

func floatPtr(v float64) *float64 { return &v }

func TestSaveCompanyAssignsKeyAndCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	c := broker.Company{Name: "Acme", ExternalID: "E100", OverallRating: floatPtr(4.2)}
	require.NoError(t, s.SaveCompany(ctx, &c))
	require.NotEmpty(t, c.Key)

	// Mutating the caller's copy must not leak into the store.
	*c.OverallRating = 1.0
	got, err := s.CompanyByExternalID(ctx, "E100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4.2, *got.OverallRating)
	assert.Equal(t, c.Key, got.Key)
}

func TestCompanyLookupsMiss(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	got, err := s.CompanyByExternalID(ctx, "E404")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.CompanyByName(ctx, "Nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.CompanyByExternalID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlaceholdersByName(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.SaveCompany(ctx, &broker.Company{Name: "Acme"}))
	require.NoError(t, s.SaveCompany(ctx, &broker.Company{Name: "Acme", ExternalID: "E1"}))
	require.NoError(t, s.SaveCompany(ctx, &broker.Company{Name: "Other"}))

	got, err := s.PlaceholdersByName(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Placeholder())
}

func TestDeleteCompany(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	c := broker.Company{Name: "Acme"}
	require.NoError(t, s.SaveCompany(ctx, &c))
	require.NoError(t, s.DeleteCompany(ctx, c.Key))
	assert.Equal(t, 0, s.CompanyCount())

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteCompany(ctx, c.Key))
}

func TestSaveCompanyRejectsInvalid(t *testing.T) {
	s := NewStore()
	err := s.SaveCompany(context.Background(), &broker.Company{Name: "Acme", OverallRating: floatPtr(6)})
	require.Error(t, err)
	assert.True(t, broker.IsValidation(err))
	assert.Equal(t, 0, s.CompanyCount())
}

func TestFindJobMatchesEitherKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a := broker.Job{EmployerName: "Acme", DescriptionText: "build rockets"}
	b := broker.Job{EmployerName: "Acme", DescriptionText: "paint rockets", ExternalID: "J2"}
	require.NoError(t, s.SaveJob(ctx, &a))
	require.NoError(t, s.SaveJob(ctx, &b))

	got, err := s.FindJob(ctx, "Acme", "build rockets", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.Key, got.Key)

	got, err = s.FindJob(ctx, "Acme", "different text", "J2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.Key, got.Key)

	got, err = s.FindJob(ctx, "Acme", "different text", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJobsByEmployerExternalID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.SaveJob(ctx, &broker.Job{EmployerName: "Acme", EmployerExternalID: "E1", DescriptionText: "a"}))
	require.NoError(t, s.SaveJob(ctx, &broker.Job{EmployerName: "Acme", EmployerExternalID: "E1", DescriptionText: "b"}))
	require.NoError(t, s.SaveJob(ctx, &broker.Job{EmployerName: "Acme", DescriptionText: "c"}))

	linked, err := s.JobsByEmployerExternalID(ctx, "E1")
	require.NoError(t, err)
	assert.Len(t, linked, 2)

	unlinked, err := s.UnlinkedJobsByEmployerName(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "c", unlinked[0].DescriptionText)

	none, err := s.JobsByEmployerExternalID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpdateEmbedding(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	j := broker.Job{EmployerName: "Acme", DescriptionText: "build rockets"}
	require.NoError(t, s.SaveJob(ctx, &j))

	emb := make([]float64, broker.EmbeddingDim)
	emb[0] = 0.5
	require.NoError(t, s.UpdateEmbedding(ctx, j.Key, emb))

	got, err := s.FindJob(ctx, "Acme", "build rockets", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Embedding, broker.EmbeddingDim)
	assert.Equal(t, 0.5, got.Embedding[0])

	// Wrong length is rejected, nil clears, missing keys are ignored.
	err = s.UpdateEmbedding(ctx, j.Key, make([]float64, broker.EmbeddingDim-1))
	assert.True(t, broker.IsValidation(err))
	require.NoError(t, s.UpdateEmbedding(ctx, j.Key, nil))
	require.NoError(t, s.UpdateEmbedding(ctx, "no-such-key", emb))

	got, err = s.FindJob(ctx, "Acme", "build rockets", "")
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
}

func TestSaveReviewEnforcesUniquePair(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := broker.Review{EmployerName: "Acme", EmployerExternalID: "E1", ExternalID: "R1", Pros: "good"}
	require.NoError(t, s.SaveReview(ctx, &first))

	// A keyless save for the same pair adopts the stored key.
	second := broker.Review{EmployerName: "Acme", EmployerExternalID: "E1", ExternalID: "R1", Pros: "better"}
	require.NoError(t, s.SaveReview(ctx, &second))
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, 1, s.ReviewCount())

	got, err := s.ReviewByExternalIDs(ctx, "E1", "R1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "better", got.Pros)

	missing, err := s.ReviewByExternalIDs(ctx, "E1", "R2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateSentiment(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	r := broker.Review{EmployerName: "Acme", EmployerExternalID: "E1", ExternalID: "R1"}
	require.NoError(t, s.SaveReview(ctx, &r))

	require.NoError(t, s.UpdateSentiment(ctx, r.Key, floatPtr(0.8)))
	got, err := s.ReviewByExternalIDs(ctx, "E1", "R1")
	require.NoError(t, err)
	require.NotNil(t, got.SentimentScore)
	assert.Equal(t, 0.8, *got.SentimentScore)

	err = s.UpdateSentiment(ctx, r.Key, floatPtr(1.5))
	assert.True(t, broker.IsValidation(err))
	require.NoError(t, s.UpdateSentiment(ctx, "no-such-key", floatPtr(0.5)))
}
