package bounceban

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 10
)

// ErrPollTimeout is returned when a verification task never leaves the
// pending state within the attempt budget.
var ErrPollTimeout = eris.New("bounceban: verification timed out")

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	attempts int
}

// WithPollInterval overrides the fixed wait between status checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithPollAttempts overrides the maximum number of status checks.
func WithPollAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.attempts = n
	}
}

// PollVerification checks a pending verification task until it resolves,
// the attempt budget runs out, or ctx expires. The interval is fixed: the
// remote task either finishes within a few checks or not at all, so backoff
// buys nothing here. Individual status-check errors are logged and skipped;
// only exhaustion or cancellation ends the loop early.
func PollVerification(ctx context.Context, client Client, id string, opts ...PollOption) (*VerifyResponse, error) {
	cfg := pollConfig{interval: defaultPollInterval, attempts: defaultPollAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 1; attempt <= cfg.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "bounceban: poll verification")
		case <-time.After(cfg.interval):
		}

		resp, err := client.VerifyStatus(ctx, id)
		if err != nil {
			zap.L().Debug("bounceban: poll attempt failed",
				zap.String("task_id", id),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		if !resp.Pending() {
			return resp, nil
		}
	}

	return nil, ErrPollTimeout
}
