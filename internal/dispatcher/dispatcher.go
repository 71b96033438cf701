// Package dispatcher runs the top-level ingestion loop: it pops messages
// from the inbound channels, classifies them and routes them to the
// resolvers and the enrichment orchestrator.
package dispatcher

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/metrics"
)

// CompanyResolver handles company records from the crawler channel.
type CompanyResolver interface {
	UpsertGeneralInfo(ctx context.Context, record map[string]any) (broker.Outcome, error)
	UpsertAggregateRatings(ctx context.Context, record map[string]any) (broker.Outcome, error)
}

// JobResolver handles job records from the crawler channel.
type JobResolver interface {
	UpsertJob(ctx context.Context, record map[string]any) (broker.Outcome, error)
}

// ReviewResolver handles review records from the crawler channel.
type ReviewResolver interface {
	UpsertReview(ctx context.Context, record map[string]any) (broker.Outcome, error)
}

// EnrichmentApplier handles embedding and sentiment responses.
type EnrichmentApplier interface {
	ApplyEmbedding(ctx context.Context, payload []byte) (broker.Outcome, error)
	ApplySentiment(ctx context.Context, payload []byte) (broker.Outcome, error)
}

// Channels names the inbound channels the dispatcher consumes.
type Channels struct {
	CrawlerOutput   string
	EmbeddingOutput string
	SentimentOutput string
}

// Dispatcher is the single logical worker of the broker. Each message is
// processed to completion before the next pop; per-message failures are
// logged and dropped, and the loop only stops when its context is
// cancelled.
type Dispatcher struct {
	consumer broker.Consumer
	channels Channels
	company  CompanyResolver
	jobs     JobResolver
	reviews  ReviewResolver
	enrich   EnrichmentApplier
	logger   *zap.Logger
}

// New wires a Dispatcher.
func New(consumer broker.Consumer, channels Channels, company CompanyResolver, jobs JobResolver, reviews ReviewResolver, enrich EnrichmentApplier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		consumer: consumer,
		channels: channels,
		company:  company,
		jobs:     jobs,
		reviews:  reviews,
		enrich:   enrich,
		logger:   logger.Named("dispatcher"),
	}
}

// Run consumes messages until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started",
		zap.String("crawler_output", d.channels.CrawlerOutput),
		zap.String("embedding_output", d.channels.EmbeddingOutput),
		zap.String("sentiment_output", d.channels.SentimentOutput))
	for {
		msg, err := d.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Info("dispatcher stopped")
				return ctx.Err()
			}
			d.logger.Error("receive failed", zap.Error(err))
			continue
		}
		metrics.MessageReceived(msg.Channel)
		d.dispatch(ctx, msg)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg broker.Message) {
	switch msg.Channel {
	case d.channels.CrawlerOutput:
		d.dispatchCrawlerRecord(ctx, msg)
	case d.channels.EmbeddingOutput:
		d.report("embedding_response")(d.enrich.ApplyEmbedding(ctx, msg.Body))
	case d.channels.SentimentOutput:
		d.report("sentiment_response")(d.enrich.ApplySentiment(ctx, msg.Body))
	default:
		d.logger.Warn("message from unknown channel", zap.String("channel", msg.Channel))
	}
}

func (d *Dispatcher) dispatchCrawlerRecord(ctx context.Context, msg broker.Message) {
	var record map[string]any
	if err := json.Unmarshal(msg.Body, &record); err != nil {
		metrics.DecodeFailure(msg.Channel)
		d.logger.Warn("discarding undecodable message",
			zap.String("channel", msg.Channel),
			zap.Error(err))
		return
	}
	recordType, _ := record["type"].(string)
	switch recordType {
	case broker.RecordTypeJob:
		d.report(recordType)(d.jobs.UpsertJob(ctx, record))
	case broker.RecordTypeReview:
		d.report(recordType)(d.reviews.UpsertReview(ctx, record))
	case broker.RecordTypeCompanyGeneral:
		d.report(recordType)(d.company.UpsertGeneralInfo(ctx, record))
	case broker.RecordTypeCompanyAggregate:
		d.report(recordType)(d.company.UpsertAggregateRatings(ctx, record))
	default:
		metrics.DecodeFailure(msg.Channel)
		d.logger.Warn("discarding record with unknown type",
			zap.String("channel", msg.Channel),
			zap.String("type", recordType))
	}
}

// report logs and counts one resolve result. Validation failures are
// expected per-message noise and log at warn; anything else is an
// infrastructure problem and logs at error. Neither stops the loop.
func (d *Dispatcher) report(recordType string) func(broker.Outcome, error) {
	return func(outcome broker.Outcome, err error) {
		metrics.RecordResolved(recordType, string(outcome))
		if err == nil {
			return
		}
		if broker.IsValidation(err) {
			d.logger.Warn("dropping invalid record",
				zap.String("type", recordType),
				zap.Error(err))
			return
		}
		d.logger.Error("record processing failed",
			zap.String("type", recordType),
			zap.Error(err))
	}
}
