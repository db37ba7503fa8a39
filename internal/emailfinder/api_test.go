package emailfinder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/pkg/bounceban"
)

func newAPIVerifier(t *testing.T, handler http.Handler) (*APIVerifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := bounceban.NewClient("test-key", bounceban.WithBaseURL(srv.URL))
	v := NewAPIVerifier(client,
		WithAPIProbeGap(time.Millisecond),
		WithPollOptions(bounceban.WithPollInterval(time.Millisecond), bounceban.WithPollAttempts(3)),
	)
	return v, srv
}

func TestAPIVerify_Deliverable(t *testing.T) {
	t.Parallel()

	score := 97
	v, _ := newAPIVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/verify/single", r.URL.Path)
		assert.Equal(t, "john@acme.com", r.URL.Query().Get("email"))
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(bounceban.VerifyResponse{
			Status: "finished",
			Result: "deliverable",
			Score:  &score,
		})
	}))

	got := v.Verify(context.Background(), "john@acme.com")

	assert.True(t, got.Valid)
	assert.Equal(t, FailureNone, got.Failure)
	require.NotNil(t, got.Score)
	assert.Equal(t, 97, *got.Score)
	assert.Contains(t, got.Message, "deliverable")
}

func TestAPIVerify_RiskyCountsAsValid(t *testing.T) {
	t.Parallel()

	v, _ := newAPIVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(bounceban.VerifyResponse{Status: "finished", Result: "risky"})
	}))

	got := v.Verify(context.Background(), "john@acme.com")
	assert.True(t, got.Valid)
}

func TestAPIVerify_UndeliverableSurfacesAcceptAll(t *testing.T) {
	t.Parallel()

	v, _ := newAPIVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(bounceban.VerifyResponse{
			Status:      "finished",
			Result:      "undeliverable",
			IsAcceptAll: true,
		})
	}))

	got := v.Verify(context.Background(), "john@acme.com")

	assert.False(t, got.Valid)
	assert.True(t, got.CatchAll)
}

func TestAPIVerify_PendingThenResolved(t *testing.T) {
	t.Parallel()

	var statusCalls atomic.Int64
	v, _ := newAPIVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/verify/single":
			json.NewEncoder(w).Encode(bounceban.VerifyResponse{Status: "pending", ID: "task-1"})
		case "/v1/verify/single/status":
			assert.Equal(t, "task-1", r.URL.Query().Get("id"))
			if statusCalls.Add(1) < 2 {
				json.NewEncoder(w).Encode(bounceban.VerifyResponse{Status: "pending", ID: "task-1"})
				return
			}
			json.NewEncoder(w).Encode(bounceban.VerifyResponse{Status: "finished", Result: "deliverable"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	got := v.Verify(context.Background(), "john@acme.com")

	assert.True(t, got.Valid)
	assert.EqualValues(t, 2, statusCalls.Load())
}

func TestAPIVerify_PendingForeverTimesOut(t *testing.T) {
	t.Parallel()

	v, _ := newAPIVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(bounceban.VerifyResponse{Status: "pending", ID: "task-1"})
	}))

	got := v.Verify(context.Background(), "john@acme.com")

	assert.False(t, got.Valid)
	assert.Equal(t, FailureTimeout, got.Failure)
	assert.Contains(t, got.Message, "timed out")
}

func TestAPIVerify_HTTPStatusError(t *testing.T) {
	t.Parallel()

	v, _ := newAPIVerifier(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))

	got := v.Verify(context.Background(), "john@acme.com")

	assert.False(t, got.Valid)
	assert.Equal(t, FailureAPIStatus, got.Failure)
	assert.Contains(t, got.Message, "429")
}

func TestAPIVerify_ConnectionError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := bounceban.NewClient("test-key", bounceban.WithBaseURL(srv.URL))
	v := NewAPIVerifier(client, WithAPIProbeGap(time.Millisecond))

	got := v.Verify(context.Background(), "john@acme.com")

	assert.False(t, got.Valid)
	assert.Equal(t, FailureTransport, got.Failure)
}

func TestAPIVerify_RateLimiterSpacing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(bounceban.VerifyResponse{Status: "finished", Result: "undeliverable"})
	}))
	t.Cleanup(srv.Close)

	const gap = 60 * time.Millisecond
	client := bounceban.NewClient("test-key", bounceban.WithBaseURL(srv.URL))
	v := NewAPIVerifier(client, WithAPIProbeGap(gap))

	start := time.Now()
	v.Verify(context.Background(), "a@acme.com")
	v.Verify(context.Background(), "b@acme.com")
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, gap)
}
