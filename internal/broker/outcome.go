package broker

import "errors"

// Outcome tags the result of resolving one inbound record.
type Outcome string

// Resolve outcomes reported by the resolvers and the enrichment side.
const (
	// OutcomeApplied means the store was modified.
	OutcomeApplied Outcome = "applied"
	// OutcomeUnchanged means the record was a no-op duplicate.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRejected means the record failed validation and was dropped.
	OutcomeRejected Outcome = "rejected"
)

// ValidationError marks a per-message failure: missing required fields,
// wrong types or out-of-range scores. The dispatcher logs these and drops
// the message; they are never retried and never stop the loop.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
