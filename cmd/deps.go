package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/emailfinder"
	"github.com/sells-group/outreach-cli/internal/mx"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/bounceban"
	"github.com/sells-group/outreach-cli/pkg/llm"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "outreach.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// newVerifier builds a verification backend. Each call returns a fresh
// instance with its own rate limiter, so concurrent pipeline workers do
// not serialize on a shared one.
func newVerifier(backend string) (emailfinder.Verifier, error) {
	switch backend {
	case "api":
		if cfg.BounceBan.Key == "" {
			return nil, eris.New("bounceban API key is required (OUTREACH_BOUNCEBAN_KEY)")
		}
		client := bounceban.NewClient(cfg.BounceBan.Key,
			bounceban.WithBaseURL(cfg.BounceBan.BaseURL),
			bounceban.WithTimeout(time.Duration(cfg.BounceBan.TimeoutSecs)*time.Second),
		)
		return emailfinder.NewAPIVerifier(client,
			emailfinder.WithAPIProbeGap(secs(cfg.BounceBan.DelaySecs)),
			emailfinder.WithPollOptions(bounceban.WithPollAttempts(cfg.BounceBan.PollAttempts)),
		), nil
	case "smtp":
		return emailfinder.NewSMTPVerifier(mx.NewResolver(),
			emailfinder.WithSMTPProbeGap(secs(cfg.SMTP.DelaySecs)),
			emailfinder.WithSMTPTimeout(time.Duration(cfg.SMTP.TimeoutSecs)*time.Second),
			emailfinder.WithHelloDomain(cfg.SMTP.HelloDomain),
			emailfinder.WithSender(cfg.SMTP.Sender),
		), nil
	default:
		return nil, eris.Errorf("unsupported verification backend: %s (want api or smtp)", backend)
	}
}

func newLLM() (llm.Client, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (OUTREACH_ANTHROPIC_KEY)")
	}
	return llm.NewClient(cfg.Anthropic.Key, llm.WithModel(cfg.Anthropic.Model)), nil
}

func newDrafter(client llm.Client) (*outreach.Drafter, error) {
	opts := []outreach.Option{outreach.WithSenderName(cfg.Drafter.SenderName)}
	if cfg.Drafter.TemplateFile != "" {
		tpl, err := outreach.LoadTemplates(cfg.Drafter.TemplateFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, outreach.WithTemplates(tpl))
	}
	return outreach.New(client, opts...), nil
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
