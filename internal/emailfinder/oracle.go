package emailfinder

import "context"

// Verifier probes a single address for deliverability. Implementations own
// their rate limiter and network client; a Verifier instance must not be
// shared across concurrent finders without external coordination, because
// probes are throttled against a single per-instance clock.
type Verifier interface {
	Verify(ctx context.Context, email string) Verification
}

// CatchAllProber is an optional Verifier capability: an explicit probe that
// decides whether a domain accepts mail for any local part. The SMTP backend
// implements it by verifying a deliberately nonexistent mailbox. The API
// backend does not: the remote service self-reports an accept-all flag on
// every response instead, so the two backends surface catch-all information
// through different paths.
type CatchAllProber interface {
	ProbeCatchAll(ctx context.Context, domain string) bool
}
