// Package resolver reconciles incoming crawl records into the canonical
// entity store and decides which company a job belongs to.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openhire/brokerd/internal/broker"
	"github.com/openhire/brokerd/internal/metrics"
	"github.com/openhire/brokerd/internal/textutil"
)

const (
	// companyStaleness is the age beyond which a referenced company's
	// profile triggers a recrawl request.
	companyStaleness = 48 * time.Hour

	// peerLocationMinimum is the number of peer jobs that must share full
	// location agreement before the location step matches (strictly more
	// than this many).
	peerLocationMinimum = 2

	// jaccardThreshold is the inclusive upper bound on the mean Jaccard
	// distance between the candidate description and peer descriptions.
	jaccardThreshold = 0.70

	// unknownIndustry is the crawl source's placeholder industry value and
	// never participates in matching.
	unknownIndustry = "Unknown"
)

// Matcher associates jobs with companies and keeps placeholder companies
// reconciled. Thresholds encode tuning inherited from production data; do
// not adjust them without evidence.
type Matcher struct {
	store          broker.Store
	publisher      broker.Publisher
	recrawlChannel string
	clock          broker.Clock
	logger         *zap.Logger
}

// NewMatcher wires a Matcher. recrawlChannel receives company crawl
// requests.
func NewMatcher(store broker.Store, publisher broker.Publisher, recrawlChannel string, clock broker.Clock, logger *zap.Logger) *Matcher {
	return &Matcher{
		store:          store,
		publisher:      publisher,
		recrawlChannel: recrawlChannel,
		clock:          clock,
		logger:         logger.Named("matcher"),
	}
}

// AssociateJob links the job to a company, creating a placeholder or stub
// company when the employer is unknown. It reports whether the job's
// employer fields changed. Recrawl requests for fresh or stale companies
// are emitted as a side effect regardless of the return value.
func (m *Matcher) AssociateJob(ctx context.Context, job *broker.Job) (bool, error) {
	now := m.clock.Now()

	if job.EmployerExternalID != "" {
		company, err := m.store.CompanyByExternalID(ctx, job.EmployerExternalID)
		if err != nil {
			return false, fmt.Errorf("lookup company by external id: %w", err)
		}
		if company == nil {
			stub := broker.Company{
				Name:         job.EmployerName,
				ExternalID:   job.EmployerExternalID,
				LastModified: now,
			}
			if err := m.store.SaveCompany(ctx, &stub); err != nil {
				return false, fmt.Errorf("create company stub: %w", err)
			}
			m.logger.Info("created company stub for unseen employer",
				zap.String("employer_name", job.EmployerName),
				zap.String("employer_external_id", job.EmployerExternalID))
			return false, m.requestRecrawl(ctx, job)
		}
		if now.Sub(company.LastModified) > companyStaleness {
			if err := m.requestRecrawl(ctx, job); err != nil {
				return false, err
			}
		}
		// The stored name is canonical once the employer is linked by id.
		if company.Name != job.EmployerName {
			job.EmployerName = company.Name
			return true, nil
		}
		return false, nil
	}

	company, err := m.store.CompanyByName(ctx, job.EmployerName)
	if err != nil {
		return false, fmt.Errorf("lookup company by name: %w", err)
	}
	if company == nil {
		placeholder := broker.Company{
			Name:         job.EmployerName,
			LastModified: now,
		}
		if err := m.store.SaveCompany(ctx, &placeholder); err != nil {
			return false, fmt.Errorf("create placeholder company: %w", err)
		}
		m.logger.Info("created placeholder company for unseen employer",
			zap.String("employer_name", job.EmployerName))
		return false, m.requestRecrawl(ctx, job)
	}
	if now.Sub(company.LastModified) > companyStaleness {
		if err := m.requestRecrawl(ctx, job); err != nil {
			return false, err
		}
	}
	if company.ExternalID != "" {
		match, err := m.IsMatch(ctx, job, company)
		if err != nil {
			return false, err
		}
		if match {
			job.EmployerExternalID = company.ExternalID
			return true, nil
		}
	}
	return false, nil
}

// ReconcileCompany runs after a confirmed company is created or updated:
// placeholder companies sharing its name are deleted, and jobs naming it
// without an employer external id are re-tested against the heuristic and
// linked on a positive match.
func (m *Matcher) ReconcileCompany(ctx context.Context, company *broker.Company) error {
	placeholders, err := m.store.PlaceholdersByName(ctx, company.Name)
	if err != nil {
		return fmt.Errorf("scan placeholders: %w", err)
	}
	for i := range placeholders {
		if err := m.store.DeleteCompany(ctx, placeholders[i].Key); err != nil {
			return fmt.Errorf("delete placeholder: %w", err)
		}
		m.logger.Info("deleted placeholder company",
			zap.String("name", company.Name),
			zap.String("key", placeholders[i].Key))
	}

	unlinked, err := m.store.UnlinkedJobsByEmployerName(ctx, company.Name)
	if err != nil {
		return fmt.Errorf("scan unlinked jobs: %w", err)
	}
	for i := range unlinked {
		job := unlinked[i]
		match, err := m.IsMatch(ctx, &job, company)
		if err != nil {
			return err
		}
		if !match {
			continue
		}
		job.EmployerExternalID = company.ExternalID
		job.LastModified = m.clock.Now()
		if err := m.store.SaveJob(ctx, &job); err != nil {
			return fmt.Errorf("link job to company: %w", err)
		}
		m.logger.Info("linked job to company",
			zap.String("job_key", job.Key),
			zap.String("company_external_id", company.ExternalID))
	}
	return nil
}

// IsMatch decides whether a job lacking an employer external id belongs to
// the company. The four steps run in strict precedence and short-circuit on
// the first positive.
func (m *Matcher) IsMatch(ctx context.Context, job *broker.Job, company *broker.Company) (bool, error) {
	// Step 1: any job location inside the headquarters string, or the
	// headquarters inside the description.
	if company.Headquarters != "" {
		for _, loc := range []string{job.City, job.State, job.Country} {
			if loc != "" && strings.Contains(company.Headquarters, loc) {
				return true, nil
			}
		}
		if strings.Contains(job.DescriptionText, company.Headquarters) {
			return true, nil
		}
	}

	// Step 2: the industry named in the description.
	if company.Industry != "" && company.Industry != unknownIndustry {
		if strings.Contains(job.DescriptionText, company.Industry) {
			return true, nil
		}
	}

	peers, err := m.store.JobsByEmployerExternalID(ctx, company.ExternalID)
	if err != nil {
		return false, fmt.Errorf("scan peer jobs: %w", err)
	}

	// Step 3: strictly more than peerLocationMinimum peers agreeing on
	// every location field the candidate carries. A candidate with no
	// location fields agrees with every peer.
	agreeing := 0
	for i := range peers {
		if sharesLocations(job, &peers[i]) {
			agreeing++
		}
	}
	if agreeing > peerLocationMinimum {
		return true, nil
	}

	// Step 4: mean Jaccard distance over peers with usable text.
	candidate := textutil.TokenSet(job.DescriptionText)
	if len(candidate) == 0 {
		return false, nil
	}
	var sum float64
	compared := 0
	for i := range peers {
		peerSet := textutil.TokenSet(peers[i].DescriptionText)
		if len(peerSet) == 0 {
			continue
		}
		sum += textutil.JaccardDistance(candidate, peerSet)
		compared++
	}
	if compared == 0 {
		return false, nil
	}
	return sum/float64(compared) <= jaccardThreshold, nil
}

func sharesLocations(job, peer *broker.Job) bool {
	type pair struct{ want, have string }
	for _, p := range []pair{
		{job.City, peer.City},
		{job.State, peer.State},
		{job.Country, peer.Country},
	} {
		if p.want != "" && p.want != p.have {
			return false
		}
	}
	return true
}

// requestRecrawl publishes one crawl request per distinct non-empty job
// location plus one with an empty location.
func (m *Matcher) requestRecrawl(ctx context.Context, job *broker.Job) error {
	locations := append(job.Locations(), "")
	for _, loc := range locations {
		payload := broker.RecrawlKeyword(job.EmployerName, loc)
		if err := m.publisher.Publish(ctx, m.recrawlChannel, []byte(payload)); err != nil {
			return fmt.Errorf("publish recrawl request: %w", err)
		}
		metrics.RecrawlRequested()
	}
	m.logger.Debug("requested company recrawl",
		zap.String("employer_name", job.EmployerName),
		zap.Int("requests", len(locations)))
	return nil
}
