package emailfinder

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// catchAllScore is the synthetic confidence attached to a catch-all
// short-circuit result, where no individual probe ran.
const catchAllScore = 100

// Finder iterates candidate addresses against a Verifier, first valid match
// wins. One Finder call is fully self-contained: no state persists between
// lookups beyond the verifier's rate-limiter clock, and candidates are
// probed strictly sequentially. For parallel lookups, give each goroutine
// its own Finder and Verifier.
type Finder struct {
	verifier Verifier
}

// NewFinder creates a Finder over the given verification backend.
func NewFinder(v Verifier) *Finder {
	return &Finder{verifier: v}
}

// FindValidEmail returns the first candidate address that verifies as
// deliverable, or nil when no candidate does. When the backend supports an
// explicit catch-all probe and the domain accepts everything, the
// first-priority candidate is returned immediately, flagged CatchAll, with
// a synthetic maximum score; probing individual candidates there would
// prove nothing.
func (f *Finder) FindValidEmail(ctx context.Context, first, last, domain string) *Verification {
	candidates := Permutations(first, last, domain)
	if len(candidates) == 0 {
		zap.L().Warn("no candidates generated",
			zap.String("first", first),
			zap.String("last", last),
			zap.String("domain", domain),
		)
		return nil
	}

	if prober, ok := f.verifier.(CatchAllProber); ok {
		if prober.ProbeCatchAll(ctx, domain) {
			zap.L().Info("catch-all domain, returning best-guess candidate",
				zap.String("domain", domain),
				zap.String("email", candidates[0]),
			)
			score := catchAllScore
			return &Verification{
				Email:    candidates[0],
				Valid:    true,
				CatchAll: true,
				Score:    &score,
				Message:  "catch-all domain, best-guess candidate",
			}
		}
	}

	zap.L().Info("probing candidates",
		zap.Int("count", len(candidates)),
		zap.String("first", first),
		zap.String("last", last),
		zap.String("domain", domain),
	)

	for _, email := range candidates {
		zap.L().Debug("verifying candidate", zap.String("email", email))
		result := f.verifier.Verify(ctx, email)
		if result.Valid {
			zap.L().Info("found valid email", zap.String("email", email))
			return &result
		}
	}

	zap.L().Warn("no valid email found",
		zap.String("first", first),
		zap.String("last", last),
		zap.String("domain", domain),
		zap.Int("attempted", len(candidates)),
	)
	return nil
}

// FindEmailFromFullName splits a full name on whitespace (first token =
// first name, last token = last name) and looks up a valid address. A
// single-token name cannot produce permutations; it is logged and yields
// nil rather than an error.
func (f *Finder) FindEmailFromFullName(ctx context.Context, fullName, domain string) *Verification {
	parts := strings.Fields(strings.TrimSpace(fullName))

	var first, last string
	switch len(parts) {
	case 0:
		zap.L().Warn("cannot parse full name", zap.String("name", fullName))
	case 1:
		zap.L().Warn("cannot parse full name", zap.String("name", fullName))
		first = parts[0]
	default:
		first = parts[0]
		last = parts[len(parts)-1]
	}

	return f.FindValidEmail(ctx, first, last, domain)
}
