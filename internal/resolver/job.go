package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/normalize"
)

// EmbeddingRequester enqueues an embedding computation for a persisted job.
type EmbeddingRequester interface {
	RequestJobEmbedding(ctx context.Context, job *broker.Job) error
}

// jobScalarFields are the non-description fields merged with
// overwrite-if-differs semantics.
var jobScalarFields = []struct {
	name string
	get  func(*broker.Job) *string
}{
	{"title", func(j *broker.Job) *string { return &j.Title }},
	{"job_title", func(j *broker.Job) *string { return &j.JobTitle }},
	{"employer_name", func(j *broker.Job) *string { return &j.EmployerName }},
	{"city", func(j *broker.Job) *string { return &j.City }},
	{"state", func(j *broker.Job) *string { return &j.State }},
	{"country", func(j *broker.Job) *string { return &j.Country }},
	{"job_external_id", func(j *broker.Job) *string { return &j.ExternalID }},
	{"employer_external_id", func(j *broker.Job) *string { return &j.EmployerExternalID }},
}

// JobResolver upserts job postings, applies the description replacement
// policy and delegates company association to the Matcher.
type JobResolver struct {
	store    broker.JobStore
	matcher  *Matcher
	embedder EmbeddingRequester
	detector broker.LanguageDetector
	clock    broker.Clock
	logger   *zap.Logger
}

// NewJobResolver wires a JobResolver.
func NewJobResolver(store broker.JobStore, matcher *Matcher, embedder EmbeddingRequester, detector broker.LanguageDetector, clock broker.Clock, logger *zap.Logger) *JobResolver {
	return &JobResolver{
		store:    store,
		matcher:  matcher,
		embedder: embedder,
		detector: detector,
		clock:    clock,
		logger:   logger.Named("job"),
	}
}

// UpsertJob applies one job record. A brand-new job always takes the
// incoming description; an existing job replaces its description only when
// the text differs, and a stored English description survives an update in
// any other language. Installing a description clears the stale embedding
// and, for English text, requests a fresh one after the job is persisted.
func (r *JobResolver) UpsertJob(ctx context.Context, record map[string]any) (broker.Outcome, error) {
	rec, err := normalize.Record(record, normalize.Options{})
	if err != nil {
		return broker.OutcomeRejected, err
	}
	employerName := stringField(rec, "employer_name")
	descriptionText := stringField(rec, "description_text")
	descriptionHTML := stringField(rec, "description_html")
	if employerName == "" || descriptionText == "" || descriptionHTML == "" {
		return broker.OutcomeRejected, &broker.ValidationError{
			Reason: "job requires employer_name, description_text and description_html",
		}
	}
	externalID := identityField(rec, "job_external_id")

	job, err := r.store.FindJob(ctx, employerName, descriptionText, externalID)
	if err != nil {
		return broker.OutcomeRejected, fmt.Errorf("lookup job: %w", err)
	}
	isNew := job == nil
	if isNew {
		job = &broker.Job{}
	}

	install := isNew
	if !isNew && job.DescriptionText != descriptionText {
		detected, _ := r.detector.Detect(descriptionText)
		// Old English content is authoritative over a hop into another
		// language.
		install = !(job.DescriptionLanguage == "en" && detected != "en")
	}

	modified := false
	if install {
		detected, _ := r.detector.Detect(descriptionText)
		job.DescriptionText = descriptionText
		job.DescriptionHTML = descriptionHTML
		job.DescriptionLanguage = detected
		job.Embedding = nil
		modified = true
	}

	for _, field := range jobScalarFields {
		value := stringField(rec, field.name)
		if field.name == "job_external_id" || field.name == "employer_external_id" {
			value = identityField(rec, field.name)
		}
		target := field.get(job)
		if value != "" && value != *target {
			*target = value
			modified = true
		}
	}

	associated, err := r.matcher.AssociateJob(ctx, job)
	if err != nil {
		return broker.OutcomeRejected, err
	}
	modified = modified || associated

	if modified {
		job.LastModified = r.clock.Now()
		if err := r.store.SaveJob(ctx, job); err != nil {
			return broker.OutcomeRejected, err
		}
	}

	if install && job.DescriptionLanguage == "en" {
		if err := r.embedder.RequestJobEmbedding(ctx, job); err != nil {
			return broker.OutcomeApplied, err
		}
	}

	if !modified {
		return broker.OutcomeUnchanged, nil
	}
	r.logger.Debug("applied job record",
		zap.String("employer_name", job.EmployerName),
		zap.String("job_key", job.Key),
		zap.Bool("new", isNew))
	return broker.OutcomeApplied, nil
}
