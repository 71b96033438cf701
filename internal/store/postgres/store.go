// Package postgres provides the Postgres-backed entity store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openhire/brokerd/internal/broker"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements broker.Store on a pgx connection pool.
type Store struct {
	pool pool
}

// NewStore connects a pool using the provided config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for
// testing).
func NewStoreWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const companyColumns = `key, name, external_id, website, headquarters, size, founded, industry, revenue, competitors,
	overall_rating, culture_and_values, career_opportunities, work_life_balance, senior_management,
	ceo_rating, biz_outlook, recommend, comp_and_benefits, last_modified`

func scanCompany(row pgx.Row) (*broker.Company, error) {
	var c broker.Company
	err := row.Scan(
		&c.Key, &c.Name, &c.ExternalID, &c.Website, &c.Headquarters, &c.Size, &c.Founded,
		&c.Industry, &c.Revenue, &c.Competitors,
		&c.OverallRating, &c.CultureAndValues, &c.CareerOpportunities, &c.WorkLifeBalance,
		&c.SeniorManagement, &c.CEORating, &c.BizOutlook, &c.Recommend, &c.CompAndBenefits,
		&c.LastModified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan company: %w", err)
	}
	return &c, nil
}

// CompanyByExternalID returns the company with the given external id, or nil.
func (s *Store) CompanyByExternalID(ctx context.Context, externalID string) (*broker.Company, error) {
	if externalID == "" {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE external_id = $1 ORDER BY key LIMIT 1`,
		externalID)
	return scanCompany(row)
}

// CompanyByName returns the company with the given name, or nil.
func (s *Store) CompanyByName(ctx context.Context, name string) (*broker.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE name = $1 ORDER BY key LIMIT 1`,
		name)
	return scanCompany(row)
}

// PlaceholdersByName returns name-only companies with the given name.
func (s *Store) PlaceholdersByName(ctx context.Context, name string) ([]broker.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE name = $1 AND external_id = '' ORDER BY key`,
		name)
	if err != nil {
		return nil, fmt.Errorf("query placeholders: %w", err)
	}
	defer rows.Close()
	var out []broker.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query placeholders: %w", err)
	}
	return out, nil
}

// SaveCompany validates and upserts, assigning Key on first save.
func (s *Store) SaveCompany(ctx context.Context, c *broker.Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Key == "" {
		c.Key = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO companies (`+companyColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
ON CONFLICT (key) DO UPDATE SET
	name = EXCLUDED.name,
	external_id = EXCLUDED.external_id,
	website = EXCLUDED.website,
	headquarters = EXCLUDED.headquarters,
	size = EXCLUDED.size,
	founded = EXCLUDED.founded,
	industry = EXCLUDED.industry,
	revenue = EXCLUDED.revenue,
	competitors = EXCLUDED.competitors,
	overall_rating = EXCLUDED.overall_rating,
	culture_and_values = EXCLUDED.culture_and_values,
	career_opportunities = EXCLUDED.career_opportunities,
	work_life_balance = EXCLUDED.work_life_balance,
	senior_management = EXCLUDED.senior_management,
	ceo_rating = EXCLUDED.ceo_rating,
	biz_outlook = EXCLUDED.biz_outlook,
	recommend = EXCLUDED.recommend,
	comp_and_benefits = EXCLUDED.comp_and_benefits,
	last_modified = EXCLUDED.last_modified`,
		c.Key, c.Name, c.ExternalID, c.Website, c.Headquarters, c.Size, c.Founded,
		c.Industry, c.Revenue, c.Competitors,
		c.OverallRating, c.CultureAndValues, c.CareerOpportunities, c.WorkLifeBalance,
		c.SeniorManagement, c.CEORating, c.BizOutlook, c.Recommend, c.CompAndBenefits,
		c.LastModified,
	)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

// DeleteCompany removes the company addressed by key. Missing keys are a
// no-op.
func (s *Store) DeleteCompany(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

const jobColumns = `key, title, job_title, employer_name, employer_external_id, city, state, country,
	description_text, description_html, description_language, embedding, external_id, posted_at, last_modified`

func scanJob(row pgx.Row) (*broker.Job, error) {
	var j broker.Job
	err := row.Scan(
		&j.Key, &j.Title, &j.JobTitle, &j.EmployerName, &j.EmployerExternalID,
		&j.City, &j.State, &j.Country,
		&j.DescriptionText, &j.DescriptionHTML, &j.DescriptionLanguage,
		&j.Embedding, &j.ExternalID, &j.PostedAt, &j.LastModified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

// FindJob matches (employerName AND descriptionText) OR externalID.
func (s *Store) FindJob(ctx context.Context, employerName, descriptionText, externalID string) (*broker.Job, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+jobColumns+` FROM jobs
WHERE (employer_name = $1 AND description_text = $2) OR ($3 <> '' AND external_id = $3)
ORDER BY key LIMIT 1`,
		employerName, descriptionText, externalID)
	return scanJob(row)
}

// JobsByEmployerExternalID returns jobs linked to the employer.
func (s *Store) JobsByEmployerExternalID(ctx context.Context, externalID string) ([]broker.Job, error) {
	if externalID == "" {
		return nil, nil
	}
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE employer_external_id = $1 ORDER BY key`,
		externalID)
}

// UnlinkedJobsByEmployerName returns jobs naming the employer but carrying
// no employer external id.
func (s *Store) UnlinkedJobsByEmployerName(ctx context.Context, name string) ([]broker.Job, error) {
	return s.queryJobs(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE employer_name = $1 AND employer_external_id = '' ORDER BY key`,
		name)
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]broker.Job, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()
	var out []broker.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	return out, nil
}

// SaveJob validates and upserts, assigning Key on first save.
func (s *Store) SaveJob(ctx context.Context, j *broker.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if j.Key == "" {
		j.Key = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO jobs (`+jobColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (key) DO UPDATE SET
	title = EXCLUDED.title,
	job_title = EXCLUDED.job_title,
	employer_name = EXCLUDED.employer_name,
	employer_external_id = EXCLUDED.employer_external_id,
	city = EXCLUDED.city,
	state = EXCLUDED.state,
	country = EXCLUDED.country,
	description_text = EXCLUDED.description_text,
	description_html = EXCLUDED.description_html,
	description_language = EXCLUDED.description_language,
	embedding = EXCLUDED.embedding,
	external_id = EXCLUDED.external_id,
	posted_at = EXCLUDED.posted_at,
	last_modified = EXCLUDED.last_modified`,
		j.Key, j.Title, j.JobTitle, j.EmployerName, j.EmployerExternalID,
		j.City, j.State, j.Country,
		j.DescriptionText, j.DescriptionHTML, j.DescriptionLanguage,
		j.Embedding, j.ExternalID, j.PostedAt, j.LastModified,
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// UpdateEmbedding sets only the embedding field; missing keys are a no-op.
func (s *Store) UpdateEmbedding(ctx context.Context, key string, embedding []float64) error {
	if embedding != nil && len(embedding) != broker.EmbeddingDim {
		return &broker.ValidationError{Reason: "embedding length mismatch"}
	}
	if _, err := s.pool.Exec(ctx, `UPDATE jobs SET embedding = $2 WHERE key = $1`, key, embedding); err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}
	return nil
}

const reviewColumns = `key, employer_name, employer_external_id, external_id, title, job_title,
	pros, cons, advice_to_management, language,
	work_life_balance, culture_and_values, career_opportunities, senior_management,
	compensation_and_benefits, overall_rating, sentiment_score, recommendation_tags, last_modified`

func scanReview(row pgx.Row) (*broker.Review, error) {
	var r broker.Review
	err := row.Scan(
		&r.Key, &r.EmployerName, &r.EmployerExternalID, &r.ExternalID, &r.Title, &r.JobTitle,
		&r.Pros, &r.Cons, &r.AdviceToManagement, &r.Language,
		&r.WorkLifeBalance, &r.CultureAndValues, &r.CareerOpportunities, &r.SeniorManagement,
		&r.CompensationAndBenefits, &r.OverallRating, &r.SentimentScore, &r.RecommendationTags,
		&r.LastModified,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &r, nil
}

// ReviewByExternalIDs returns the review with the unique
// (employer external id, review external id) pair, or nil.
func (s *Store) ReviewByExternalIDs(ctx context.Context, employerExternalID, reviewExternalID string) (*broker.Review, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE employer_external_id = $1 AND external_id = $2`,
		employerExternalID, reviewExternalID)
	return scanReview(row)
}

// SaveReview validates and upserts. The unique index on
// (employer_external_id, external_id) makes a keyless save of a known pair
// update the stored row instead of duplicating it.
func (s *Store) SaveReview(ctx context.Context, r *broker.Review) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Key == "" {
		r.Key = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO reviews (`+reviewColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (employer_external_id, external_id) DO UPDATE SET
	employer_name = EXCLUDED.employer_name,
	title = EXCLUDED.title,
	job_title = EXCLUDED.job_title,
	pros = EXCLUDED.pros,
	cons = EXCLUDED.cons,
	advice_to_management = EXCLUDED.advice_to_management,
	language = EXCLUDED.language,
	work_life_balance = EXCLUDED.work_life_balance,
	culture_and_values = EXCLUDED.culture_and_values,
	career_opportunities = EXCLUDED.career_opportunities,
	senior_management = EXCLUDED.senior_management,
	compensation_and_benefits = EXCLUDED.compensation_and_benefits,
	overall_rating = EXCLUDED.overall_rating,
	sentiment_score = EXCLUDED.sentiment_score,
	recommendation_tags = EXCLUDED.recommendation_tags,
	last_modified = EXCLUDED.last_modified`,
		r.Key, r.EmployerName, r.EmployerExternalID, r.ExternalID, r.Title, r.JobTitle,
		r.Pros, r.Cons, r.AdviceToManagement, r.Language,
		r.WorkLifeBalance, r.CultureAndValues, r.CareerOpportunities, r.SeniorManagement,
		r.CompensationAndBenefits, r.OverallRating, r.SentimentScore, r.RecommendationTags,
		r.LastModified,
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// UpdateSentiment sets only the sentiment score; missing keys are a no-op.
func (s *Store) UpdateSentiment(ctx context.Context, key string, score *float64) error {
	if score != nil && (*score < 0 || *score > 1) {
		return &broker.ValidationError{Reason: "sentiment score outside [0,1]"}
	}
	if _, err := s.pool.Exec(ctx, `UPDATE reviews SET sentiment_score = $2 WHERE key = $1`, key, score); err != nil {
		return fmt.Errorf("update sentiment: %w", err)
	}
	return nil
}
