// Package pipeline orchestrates the newsletter-to-lead flow: fetch, parse,
// backfill founders, find emails, draft, persist.
package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/emailfinder"
	"github.com/sells-group/outreach-cli/internal/founders"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/newsletter"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/store"
)

// VerifierFactory builds a fresh verification backend. Each pipeline worker
// gets its own verifier so rate limiters are not shared across goroutines.
type VerifierFactory func() (emailfinder.Verifier, error)

// Config wires the pipeline's collaborators.
type Config struct {
	Store       store.Store
	Source      newsletter.Source
	Parser      *newsletter.Parser
	Founders    *founders.Finder
	Drafter     *outreach.Drafter
	NewVerifier VerifierFactory
	Concurrency int
	DryRun      bool
}

// Summary reports what a pipeline run accomplished.
type Summary struct {
	Newsletters int `json:"newsletters"`
	Skipped     int `json:"skipped"`
	Events      int `json:"events"`
	Leads       int `json:"leads"`
}

// Pipeline processes newsletters into stored, drafted leads.
type Pipeline struct {
	cfg Config

	mu      sync.Mutex
	summary Summary
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	return &Pipeline{cfg: cfg}
}

// Run fetches up to maxNewsletters newsletters and processes each one.
// Already-processed newsletters are skipped. Funding events within a
// newsletter are handled concurrently.
func (p *Pipeline) Run(ctx context.Context, maxNewsletters int) (Summary, error) {
	p.summary = Summary{}

	newsletters, err := p.cfg.Source.Fetch(ctx, maxNewsletters)
	if err != nil {
		return Summary{}, eris.Wrap(err, "fetch newsletters")
	}

	for _, n := range newsletters {
		if err := ctx.Err(); err != nil {
			return p.summary, err
		}

		processed, err := p.cfg.Store.NewsletterProcessed(ctx, n.ID)
		if err != nil {
			return p.summary, err
		}
		if processed {
			zap.L().Debug("newsletter already processed", zap.String("id", n.ID))
			p.summary.Skipped++
			continue
		}

		if err := p.processNewsletter(ctx, n); err != nil {
			return p.summary, err
		}
		p.summary.Newsletters++
	}

	return p.summary, nil
}

func (p *Pipeline) processNewsletter(ctx context.Context, n model.Newsletter) error {
	events, err := p.cfg.Parser.Parse(ctx, n)
	if err != nil {
		return eris.Wrapf(err, "parse newsletter %s", n.ID)
	}

	zap.L().Info("newsletter parsed",
		zap.String("id", n.ID),
		zap.Int("events", len(events)),
	)

	articleURLs := founders.ArticleURLs(n.BodyHTML, "")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, event := range events {
		g.Go(func() error {
			return p.processEvent(gctx, n.ID, event, articleURLs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.mu.Lock()
	p.summary.Events += len(events)
	p.mu.Unlock()

	if p.cfg.DryRun {
		return nil
	}
	return p.cfg.Store.MarkNewsletterProcessed(ctx, n.ID, len(events))
}

func (p *Pipeline) processEvent(ctx context.Context, newsletterID string, event model.FundingEvent, articleURLs []string) error {
	if event.CompanyDomain == "" {
		zap.L().Warn("event has no company domain, skipping",
			zap.String("company", event.CompanyName))
		return nil
	}

	if !p.cfg.DryRun {
		if _, err := p.cfg.Store.SaveFundingEvent(ctx, newsletterID, event); err != nil {
			return err
		}
	}

	names := event.FounderNames
	if len(names) == 0 && p.cfg.Founders != nil {
		res := p.cfg.Founders.Find(ctx, event.CompanyName, event.CompanyDomain, articleURLs)
		names = res.FounderNames
		if len(names) > 0 {
			zap.L().Info("founders backfilled",
				zap.String("company", event.CompanyName),
				zap.Strings("names", names),
				zap.String("confidence", string(res.Confidence)),
			)
		}
	}
	if len(names) == 0 {
		zap.L().Warn("no founders known for company, skipping",
			zap.String("company", event.CompanyName))
		return nil
	}

	verifier, err := p.cfg.NewVerifier()
	if err != nil {
		return err
	}
	finder := emailfinder.NewFinder(verifier)

	for _, name := range names {
		if err := p.processFounder(ctx, finder, event, name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) processFounder(ctx context.Context, finder *emailfinder.Finder, event model.FundingEvent, name string) error {
	result := finder.FindEmailFromFullName(ctx, name, event.CompanyDomain)
	if result == nil {
		zap.L().Info("no email found",
			zap.String("founder", name),
			zap.String("domain", event.CompanyDomain),
		)
		return nil
	}

	exists, err := p.cfg.Store.HasLeadForEmail(ctx, result.Email)
	if err != nil {
		return err
	}
	if exists {
		zap.L().Debug("lead already known", zap.String("email", result.Email))
		return nil
	}

	lead := &model.Lead{
		FounderName:   name,
		Email:         result.Email,
		CompanyName:   event.CompanyName,
		CompanyDomain: event.CompanyDomain,
		FundingAmount: event.FundingAmount,
		CatchAll:      result.CatchAll,
		Score:         result.Score,
		Status:        model.LeadStatusFound,
	}

	if p.cfg.Drafter != nil {
		draft, err := p.cfg.Drafter.Draft(ctx, event, name)
		if err != nil {
			zap.L().Error("draft failed, saving lead without one",
				zap.String("email", result.Email), zap.Error(err))
		} else {
			lead.DraftSubject = draft.Subject
			lead.DraftBody = draft.Body
			lead.Status = model.LeadStatusDrafted
		}
	}

	if p.cfg.DryRun {
		zap.L().Info("dry run: would save lead",
			zap.String("email", lead.Email),
			zap.String("company", lead.CompanyName),
		)
	} else if err := p.cfg.Store.SaveLead(ctx, lead); err != nil {
		return err
	}

	p.mu.Lock()
	p.summary.Leads++
	p.mu.Unlock()
	return nil
}
