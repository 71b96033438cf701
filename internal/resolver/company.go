package resolver

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/normalize"
)

// profileFields maps crawler field names of company_general_info records to
// setters on the entity.
var profileFields = []struct {
	name string
	get  func(*broker.Company) *string
}{
	{"website", func(c *broker.Company) *string { return &c.Website }},
	{"headquarters", func(c *broker.Company) *string { return &c.Headquarters }},
	{"size", func(c *broker.Company) *string { return &c.Size }},
	{"founded", func(c *broker.Company) *string { return &c.Founded }},
	{"industry", func(c *broker.Company) *string { return &c.Industry }},
	{"revenue", func(c *broker.Company) *string { return &c.Revenue }},
	{"competitors", func(c *broker.Company) *string { return &c.Competitors }},
}

// ratingFields maps the crawler's aggregate-rating vocabulary to the entity
// fields.
var ratingFields = []struct {
	name string
	get  func(*broker.Company) **float64
}{
	{"overallRating", func(c *broker.Company) **float64 { return &c.OverallRating }},
	{"ceoRating", func(c *broker.Company) **float64 { return &c.CEORating }},
	{"bizOutlook", func(c *broker.Company) **float64 { return &c.BizOutlook }},
	{"recommend", func(c *broker.Company) **float64 { return &c.Recommend }},
	{"compAndBenefits", func(c *broker.Company) **float64 { return &c.CompAndBenefits }},
	{"cultureAndValues", func(c *broker.Company) **float64 { return &c.CultureAndValues }},
	{"careerOpportunities", func(c *broker.Company) **float64 { return &c.CareerOpportunities }},
	{"workLife", func(c *broker.Company) **float64 { return &c.WorkLifeBalance }},
	{"seniorManagement", func(c *broker.Company) **float64 { return &c.SeniorManagement }},
}

var ratingFieldNames = func() []string {
	names := make([]string, len(ratingFields))
	for i, f := range ratingFields {
		names[i] = f.name
	}
	return names
}()

// CompanyResolver upserts company profile and aggregate-rating records.
type CompanyResolver struct {
	store   broker.CompanyStore
	matcher *Matcher
	clock   broker.Clock
	logger  *zap.Logger
}

// NewCompanyResolver wires a CompanyResolver.
func NewCompanyResolver(store broker.CompanyStore, matcher *Matcher, clock broker.Clock, logger *zap.Logger) *CompanyResolver {
	return &CompanyResolver{
		store:   store,
		matcher: matcher,
		clock:   clock,
		logger:  logger.Named("company"),
	}
}

// UpsertGeneralInfo applies a company_general_info record: profile fields
// overwrite stored values only when non-empty and different, and the record
// persists only when something changed.
func (r *CompanyResolver) UpsertGeneralInfo(ctx context.Context, record map[string]any) (broker.Outcome, error) {
	rec, err := normalize.Record(record, normalize.Options{})
	if err != nil {
		return broker.OutcomeRejected, err
	}
	name := stringField(rec, "employer_name")
	externalID := identityField(rec, "employer_external_id")
	if name == "" || externalID == "" {
		return broker.OutcomeRejected, &broker.ValidationError{
			Reason: "company general info requires employer_name and employer_external_id",
		}
	}

	company, err := r.store.CompanyByExternalID(ctx, externalID)
	if err != nil {
		return broker.OutcomeRejected, fmt.Errorf("lookup company: %w", err)
	}
	if company == nil {
		company = &broker.Company{}
	}

	modified := false
	for _, field := range profileFields {
		value := stringField(rec, field.name)
		target := field.get(company)
		if value != "" && value != *target {
			*target = value
			modified = true
		}
	}
	if !modified {
		return broker.OutcomeUnchanged, nil
	}

	// Name and id must be asserted here so a freshly constructed record
	// carries its identity.
	company.Name = name
	company.ExternalID = externalID
	company.LastModified = r.clock.Now()
	if err := r.store.SaveCompany(ctx, company); err != nil {
		return broker.OutcomeRejected, err
	}
	r.logger.Debug("applied company general info",
		zap.String("external_id", externalID))
	return broker.OutcomeApplied, nil
}

// UpsertAggregateRatings applies a company_aggregate_reviews_info record.
// On any modification it additionally runs the company reconciliation pass,
// since fresh aggregate data confirms the company and may resolve
// placeholder records and unlinked jobs.
func (r *CompanyResolver) UpsertAggregateRatings(ctx context.Context, record map[string]any) (broker.Outcome, error) {
	rec, err := normalize.Record(record, normalize.Options{FloatFields: ratingFieldNames})
	if err != nil {
		return broker.OutcomeRejected, err
	}
	name := stringField(rec, "employer_name")
	externalID := identityField(rec, "employer_external_id")
	if name == "" || externalID == "" {
		return broker.OutcomeRejected, &broker.ValidationError{
			Reason: "company aggregate ratings require employer_name and employer_external_id",
		}
	}

	company, err := r.store.CompanyByExternalID(ctx, externalID)
	if err != nil {
		return broker.OutcomeRejected, fmt.Errorf("lookup company: %w", err)
	}
	if company == nil {
		company = &broker.Company{}
	}

	modified := false
	if name != company.Name {
		company.Name = name
		modified = true
	}
	if externalID != company.ExternalID {
		company.ExternalID = externalID
		modified = true
	}
	for _, field := range ratingFields {
		value, ok := rec[field.name].(float64)
		if !ok || value == 0 {
			continue
		}
		target := field.get(company)
		if *target == nil || **target != value {
			v := value
			*target = &v
			modified = true
		}
	}

	if modified {
		company.LastModified = r.clock.Now()
		if err := r.store.SaveCompany(ctx, company); err != nil {
			return broker.OutcomeRejected, err
		}
		if err := r.matcher.ReconcileCompany(ctx, company); err != nil {
			return broker.OutcomeApplied, err
		}
		r.logger.Debug("applied company aggregate ratings",
			zap.String("external_id", externalID))
		return broker.OutcomeApplied, nil
	}
	return broker.OutcomeUnchanged, nil
}

// stringField returns the named value when it is a non-empty string.
func stringField(rec map[string]any, name string) string {
	s, _ := rec[name].(string)
	return s
}

// identityField tolerates sources that serialize ids as numbers.
func identityField(rec map[string]any, name string) string {
	switch v := rec[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
