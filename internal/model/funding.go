// Package model holds the shared domain types for the outreach pipeline.
package model

import (
	"strings"
	"time"
)

// FundingEvent is a single funding announcement extracted from a newsletter.
type FundingEvent struct {
	CompanyName   string   `json:"company_name"`
	FundingAmount string   `json:"funding_amount"`
	Investors     []string `json:"investors,omitempty"`
	FounderNames  []string `json:"founder_names"`
	CompanyDomain string   `json:"company_domain,omitempty"`
	Description   string   `json:"description,omitempty"`
	RawText       string   `json:"raw_text,omitempty"`
}

// FounderFirstName returns the first name of the first listed founder,
// or "" when no founders are known.
func (e FundingEvent) FounderFirstName() string {
	if len(e.FounderNames) == 0 {
		return ""
	}
	parts := strings.Fields(e.FounderNames[0])
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Newsletter is a raw newsletter message pulled from a source.
type Newsletter struct {
	ID       string    `json:"id"`
	Subject  string    `json:"subject"`
	Date     time.Time `json:"date"`
	BodyHTML string    `json:"body_html,omitempty"`
	BodyText string    `json:"body_text,omitempty"`
}

// Content returns the richest available body for parsing.
func (n Newsletter) Content() string {
	if n.BodyHTML != "" {
		return n.BodyHTML
	}
	return n.BodyText
}

// LeadStatus tracks how far a lead has progressed.
type LeadStatus string

const (
	LeadStatusFound    LeadStatus = "found"
	LeadStatusDrafted  LeadStatus = "drafted"
	LeadStatusExported LeadStatus = "exported"
)

// Lead is a founder with a verified (or best-guess) email and an optional
// prepared draft.
type Lead struct {
	ID            string     `json:"id"`
	FounderName   string     `json:"founder_name"`
	Email         string     `json:"email"`
	CompanyName   string     `json:"company_name"`
	CompanyDomain string     `json:"company_domain"`
	FundingAmount string     `json:"funding_amount"`
	CatchAll      bool       `json:"catch_all"`
	Score         *int       `json:"score,omitempty"`
	DraftSubject  string     `json:"draft_subject,omitempty"`
	DraftBody     string     `json:"draft_body,omitempty"`
	Status        LeadStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}
