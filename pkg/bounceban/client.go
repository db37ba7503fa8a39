// Package bounceban provides a client for the BounceBan email verification API.
package bounceban

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.bounceban.com"

// Client defines the BounceBan verification operations.
type Client interface {
	// Verify starts (and possibly completes) a single-address verification.
	Verify(ctx context.Context, email string) (*VerifyResponse, error)
	// VerifyStatus fetches the state of an asynchronous verification task.
	VerifyStatus(ctx context.Context, id string) (*VerifyResponse, error)
}

// VerifyResponse is the response from both verification endpoints. While a
// verification is still running, Status is "pending" and ID names the task
// to poll; once finished, Result carries the categorical outcome.
type VerifyResponse struct {
	Status      string `json:"status"`
	ID          string `json:"id"`
	Result      string `json:"result"`
	Score       *int   `json:"score"`
	IsAcceptAll bool   `json:"is_accept_all"`
}

// Pending reports whether the verification is still running server-side.
func (r *VerifyResponse) Pending() bool {
	return r.Status == "pending"
}

// Deliverable reports whether the categorical result maps to a usable
// address. "risky" counts: it usually means greylisting or a full mailbox,
// not a nonexistent one.
func (r *VerifyResponse) Deliverable() bool {
	return r.Result == "deliverable" || r.Result == "risky"
}

// APIError is returned when BounceBan responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bounceban: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a BounceBan client. The connection is reused across
// probes for the lifetime of the client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Verify(ctx context.Context, email string) (*VerifyResponse, error) {
	return c.get(ctx, "/v1/verify/single", url.Values{"email": {email}})
}

func (c *httpClient) VerifyStatus(ctx context.Context, id string) (*VerifyResponse, error) {
	return c.get(ctx, "/v1/verify/single/status", url.Values{"id": {id}})
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values) (*VerifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "bounceban: create request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "bounceban: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "bounceban: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result VerifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "bounceban: unmarshal response")
	}
	return &result, nil
}
