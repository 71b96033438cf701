// Package enrich orchestrates the asynchronous embedding and sentiment
// protocol: it publishes computation requests and applies responses back
// onto the owning entity, correlated by persisted store key.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/metrics"
	"github.com/openhire/brokerd/internal/textutil"
)

const (
	kindEmbedding = "embedding"
	kindSentiment = "sentiment"
)

// Channels names the outbound request channels.
type Channels struct {
	EmbeddingInput string
	SentimentInput string
}

// Orchestrator implements both sides of the enrichment protocol. Requests
// never wait for responses; a response that never arrives simply leaves the
// enrichment field null.
type Orchestrator struct {
	publisher broker.Publisher
	jobs      broker.JobStore
	reviews   broker.ReviewStore
	channels  Channels
	logger    *zap.Logger
}

// New wires an Orchestrator.
func New(publisher broker.Publisher, jobs broker.JobStore, reviews broker.ReviewStore, channels Channels, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		publisher: publisher,
		jobs:      jobs,
		reviews:   reviews,
		channels:  channels,
		logger:    logger.Named("enrich"),
	}
}

// RequestJobEmbedding publishes an embedding request over the stop-word
// filtered, lower-cased description, keyed by the job's store key.
func (o *Orchestrator) RequestJobEmbedding(ctx context.Context, job *broker.Job) error {
	payload, err := json.Marshal(broker.EmbeddingRequest{
		ID:   job.Key,
		Text: textutil.FilterStopwords(job.DescriptionText),
	})
	if err != nil {
		return fmt.Errorf("marshal embedding request: %w", err)
	}
	if err := o.publisher.Publish(ctx, o.channels.EmbeddingInput, payload); err != nil {
		return fmt.Errorf("publish embedding request: %w", err)
	}
	metrics.EnrichmentRequested(kindEmbedding)
	o.logger.Debug("requested embedding", zap.String("job_key", job.Key))
	return nil
}

// RequestReviewSentiment publishes a sentiment request carrying the
// non-empty text sub-fields of the review. Nothing is published when every
// sub-field is empty.
func (o *Orchestrator) RequestReviewSentiment(ctx context.Context, review *broker.Review) error {
	inputs := make(map[string]string)
	for name, value := range map[string]string{
		"title":                review.Title,
		"job_title":            review.JobTitle,
		"pros":                 review.Pros,
		"cons":                 review.Cons,
		"advice_to_management": review.AdviceToManagement,
	} {
		if value != "" {
			inputs[name] = value
		}
	}
	if len(inputs) == 0 {
		return nil
	}
	payload, err := json.Marshal(broker.SentimentRequest{ID: review.Key, Inputs: inputs})
	if err != nil {
		return fmt.Errorf("marshal sentiment request: %w", err)
	}
	if err := o.publisher.Publish(ctx, o.channels.SentimentInput, payload); err != nil {
		return fmt.Errorf("publish sentiment request: %w", err)
	}
	metrics.EnrichmentRequested(kindSentiment)
	o.logger.Debug("requested sentiment", zap.String("review_key", review.Key))
	return nil
}

// ApplyEmbedding applies one embedding response: a 300-element vector sets
// the job's embedding, an explicit null clears it. The update touches only
// that field and is a no-op when the job no longer exists.
func (o *Orchestrator) ApplyEmbedding(ctx context.Context, payload []byte) (broker.Outcome, error) {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, &broker.ValidationError{Reason: "embedding response is not an object"}
	}
	id, err := decodeID(msg)
	if err != nil {
		metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, err
	}
	raw, ok := msg["embedding"]
	if !ok {
		metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, &broker.ValidationError{Reason: "embedding response missing embedding field"}
	}

	var embedding []float64
	if string(raw) != "null" {
		if err := json.Unmarshal(raw, &embedding); err != nil {
			metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeRejected))
			return broker.OutcomeRejected, &broker.ValidationError{Reason: "embedding is neither null nor a numeric vector"}
		}
		if len(embedding) != broker.EmbeddingDim {
			metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeRejected))
			return broker.OutcomeRejected, &broker.ValidationError{
				Reason: fmt.Sprintf("embedding has %d values, want %d", len(embedding), broker.EmbeddingDim),
			}
		}
	}

	if err := o.jobs.UpdateEmbedding(ctx, id, embedding); err != nil {
		metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, err
	}
	metrics.EnrichmentResponded(kindEmbedding, string(broker.OutcomeApplied))
	o.logger.Debug("applied embedding response",
		zap.String("job_key", id),
		zap.Bool("cleared", embedding == nil))
	return broker.OutcomeApplied, nil
}

// ApplySentiment applies one sentiment response: the review's score becomes
// the unweighted mean of the supplied sub-scores, or null when the mapping
// is empty or absent. No-op when the review no longer exists.
func (o *Orchestrator) ApplySentiment(ctx context.Context, payload []byte) (broker.Outcome, error) {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, &broker.ValidationError{Reason: "sentiment response is not an object"}
	}
	id, err := decodeID(msg)
	if err != nil {
		metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, err
	}
	raw, ok := msg["sentiments"]
	if !ok {
		metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, &broker.ValidationError{Reason: "sentiment response missing sentiments field"}
	}

	var score *float64
	if string(raw) != "null" {
		var sentiments map[string]float64
		if err := json.Unmarshal(raw, &sentiments); err != nil {
			metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeRejected))
			return broker.OutcomeRejected, &broker.ValidationError{Reason: "sentiments is neither null nor a score mapping"}
		}
		if len(sentiments) > 0 {
			var sum float64
			for name, value := range sentiments {
				if value < 0 || value > 1 {
					metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeRejected))
					return broker.OutcomeRejected, &broker.ValidationError{
						Reason: fmt.Sprintf("sentiment %s %.2f outside [0,1]", name, value),
					}
				}
				sum += value
			}
			mean := sum / float64(len(sentiments))
			score = &mean
		}
	}

	if err := o.reviews.UpdateSentiment(ctx, id, score); err != nil {
		metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeRejected))
		return broker.OutcomeRejected, err
	}
	metrics.EnrichmentResponded(kindSentiment, string(broker.OutcomeApplied))
	o.logger.Debug("applied sentiment response",
		zap.String("review_key", id),
		zap.Bool("cleared", score == nil))
	return broker.OutcomeApplied, nil
}

func decodeID(msg map[string]json.RawMessage) (string, error) {
	raw, ok := msg["id"]
	if !ok {
		return "", &broker.ValidationError{Reason: "enrichment response missing id"}
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil || id == "" {
		return "", &broker.ValidationError{Reason: "enrichment response id is not a non-empty string"}
	}
	return id, nil
}
