package emailfinder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/pkg/bounceban"
)

const defaultAPIProbeGap = 1 * time.Second

// APIOption configures the API verifier.
type APIOption func(*APIVerifier)

// WithAPIProbeGap overrides the minimum wall-clock gap between probes.
func WithAPIProbeGap(d time.Duration) APIOption {
	return func(v *APIVerifier) {
		if d > 0 {
			v.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithPollOptions forwards options to the pending-state poll loop.
func WithPollOptions(opts ...bounceban.PollOption) APIOption {
	return func(v *APIVerifier) {
		v.pollOpts = opts
	}
}

// APIVerifier verifies addresses through the BounceBan API. It performs no
// explicit catch-all probe; the service reports its own accept-all flag on
// every response, which is surfaced on each Verification instead.
type APIVerifier struct {
	client   bounceban.Client
	limiter  *rate.Limiter
	pollOpts []bounceban.PollOption
}

// NewAPIVerifier creates an API-backed verifier. The limiter is owned by
// this instance; create one verifier per concurrent flow.
func NewAPIVerifier(client bounceban.Client, opts ...APIOption) *APIVerifier {
	v := &APIVerifier{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(defaultAPIProbeGap), 1),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify probes a single address. All expected failure modes come back as a
// populated Verification, never as a panic or error.
func (v *APIVerifier) Verify(ctx context.Context, email string) Verification {
	if err := v.limiter.Wait(ctx); err != nil {
		return Verification{
			Email:   email,
			Failure: FailureTransport,
			Message: fmt.Sprintf("rate limit wait: %v", err),
		}
	}

	resp, err := v.client.Verify(ctx, email)
	if err != nil {
		return apiFailure(email, err)
	}

	if resp.Pending() {
		resp, err = bounceban.PollVerification(ctx, v.client, resp.ID, v.pollOpts...)
		if err != nil {
			if errors.Is(err, bounceban.ErrPollTimeout) {
				return Verification{
					Email:   email,
					Failure: FailureTimeout,
					Message: "verification timed out",
				}
			}
			return apiFailure(email, err)
		}
	}

	return fromAPIResponse(email, resp)
}

func apiFailure(email string, err error) Verification {
	var apiErr *bounceban.APIError
	if errors.As(err, &apiErr) {
		zap.L().Error("bounceban api error",
			zap.String("email", email),
			zap.Int("status", apiErr.StatusCode),
		)
		return Verification{
			Email:   email,
			Failure: FailureAPIStatus,
			Message: fmt.Sprintf("API error: %d", apiErr.StatusCode),
		}
	}

	zap.L().Error("bounceban request error", zap.String("email", email), zap.Error(err))
	return Verification{
		Email:   email,
		Failure: FailureTransport,
		Message: fmt.Sprintf("request error: %v", err),
	}
}

func fromAPIResponse(email string, resp *bounceban.VerifyResponse) Verification {
	msg := "result: " + resp.Result
	if resp.Score != nil {
		msg = fmt.Sprintf("%s (score: %d)", msg, *resp.Score)
	}
	return Verification{
		Email:    email,
		Valid:    resp.Deliverable(),
		CatchAll: resp.IsAcceptAll,
		Score:    resp.Score,
		Message:  msg,
	}
}
