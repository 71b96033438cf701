package broker

// Record types tagged on crawler-output messages.
const (
	RecordTypeJob              = "job"
	RecordTypeReview           = "review"
	RecordTypeCompanyGeneral   = "company_general_info"
	RecordTypeCompanyAggregate = "company_aggregate_reviews_info"
)

// EmbeddingRequest asks the embedding service for a vector over the
// stop-word-filtered description of one job.
type EmbeddingRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SentimentRequest asks the sentiment service to score the non-empty text
// sub-fields of one review.
type SentimentRequest struct {
	ID     string            `json:"id"`
	Inputs map[string]string `json:"inputs"`
}

// recrawlSeparator delimits keyword and location in a company recrawl
// request, matching what the crawling subsystem parses.
const recrawlSeparator = "|||sep|||"

// RecrawlKeyword builds the payload of one company recrawl request.
func RecrawlKeyword(name, location string) string {
	return name + recrawlSeparator + location
}
