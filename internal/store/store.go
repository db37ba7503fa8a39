package store

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status        model.LeadStatus `json:"status,omitempty"`
	CompanyDomain string           `json:"company_domain,omitempty"`
	Limit         int              `json:"limit,omitempty"`
	Offset        int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the outreach pipeline.
type Store interface {
	// Newsletters
	MarkNewsletterProcessed(ctx context.Context, newsletterID string, eventCount int) error
	NewsletterProcessed(ctx context.Context, newsletterID string) (bool, error)

	// Funding events
	SaveFundingEvent(ctx context.Context, newsletterID string, event model.FundingEvent) (string, error)

	// Leads
	SaveLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus) error
	HasLeadForEmail(ctx context.Context, email string) (bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
