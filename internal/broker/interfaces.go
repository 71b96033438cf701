package broker

import (
	"context"
	"time"
)

// CompanyStore persists companies. Lookups return (nil, nil) when no record
// matches.
type CompanyStore interface {
	CompanyByExternalID(ctx context.Context, externalID string) (*Company, error)
	CompanyByName(ctx context.Context, name string) (*Company, error)
	// PlaceholdersByName returns name-only companies with the given name.
	PlaceholdersByName(ctx context.Context, name string) ([]Company, error)
	// SaveCompany validates and upserts, assigning Key on first save.
	SaveCompany(ctx context.Context, c *Company) error
	DeleteCompany(ctx context.Context, key string) error
}

// JobStore persists job postings.
type JobStore interface {
	// FindJob matches (employerName AND descriptionText) OR externalID; the
	// external id clause is skipped when externalID is empty. At most one
	// match is expected; implementations return the first deterministically.
	FindJob(ctx context.Context, employerName, descriptionText, externalID string) (*Job, error)
	// JobsByEmployerExternalID returns jobs confirmed to belong to the
	// employer with the given external id.
	JobsByEmployerExternalID(ctx context.Context, externalID string) ([]Job, error)
	// UnlinkedJobsByEmployerName returns jobs naming the employer but
	// carrying no employer external id.
	UnlinkedJobsByEmployerName(ctx context.Context, name string) ([]Job, error)
	// SaveJob validates and upserts, assigning Key on first save.
	SaveJob(ctx context.Context, j *Job) error
	// UpdateEmbedding sets only the embedding field of the job addressed by
	// key. A missing key is a no-op, not an error.
	UpdateEmbedding(ctx context.Context, key string, embedding []float64) error
}

// ReviewStore persists reviews.
type ReviewStore interface {
	ReviewByExternalIDs(ctx context.Context, employerExternalID, reviewExternalID string) (*Review, error)
	// SaveReview validates and upserts, assigning Key on first save.
	SaveReview(ctx context.Context, r *Review) error
	// UpdateSentiment sets only the sentiment score of the review addressed
	// by key. A missing key is a no-op, not an error.
	UpdateSentiment(ctx context.Context, key string, score *float64) error
}

// Store combines the three entity stores behind one connection.
type Store interface {
	CompanyStore
	JobStore
	ReviewStore
}

// Message is one unit received from an inbound channel.
type Message struct {
	Channel string
	Body    []byte
}

// Consumer blocks on a fixed set of inbound channels and returns the first
// available message from any of them. FIFO order holds within one channel;
// there is no ordering guarantee across channels.
type Consumer interface {
	Receive(ctx context.Context) (Message, error)
}

// Publisher sends a raw payload to a named outbound channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte) error
}

// LanguageDetector predicts the ISO 639-1 code of a text. ok is false when
// no confident prediction exists.
type LanguageDetector interface {
	Detect(text string) (code string, ok bool)
}

// Clock returns the current time (injectable for staleness tests).
type Clock interface {
	Now() time.Time
}
