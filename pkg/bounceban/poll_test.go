package bounceban

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns pre-seeded responses in order for VerifyStatus.
type scriptedClient struct {
	responses []*VerifyResponse
	errs      []error
	calls     int
}

func (s *scriptedClient) Verify(context.Context, string) (*VerifyResponse, error) {
	panic("not used")
}

func (s *scriptedClient) VerifyStatus(context.Context, string) (*VerifyResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func TestPollVerification_ResolvesAfterPending(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []*VerifyResponse{
		{Status: "pending", ID: "t1"},
		{Status: "pending", ID: "t1"},
		{Status: "finished", Result: "deliverable"},
	}}

	got, err := PollVerification(context.Background(), client, "t1",
		WithPollInterval(time.Millisecond))

	require.NoError(t, err)
	assert.True(t, got.Deliverable())
	assert.Equal(t, 3, client.calls)
}

func TestPollVerification_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	responses := make([]*VerifyResponse, 10)
	for i := range responses {
		responses[i] = &VerifyResponse{Status: "pending", ID: "t1"}
	}
	client := &scriptedClient{responses: responses}

	_, err := PollVerification(context.Background(), client, "t1",
		WithPollInterval(time.Millisecond))

	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 10, client.calls)
}

func TestPollVerification_SkipsTransientErrors(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		responses: []*VerifyResponse{nil, {Status: "finished", Result: "undeliverable"}},
		errs:      []error{eris.New("connection reset"), nil},
	}

	got, err := PollVerification(context.Background(), client, "t1",
		WithPollInterval(time.Millisecond))

	require.NoError(t, err)
	assert.False(t, got.Deliverable())
	assert.Equal(t, 2, client.calls)
}

func TestPollVerification_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{}
	_, err := PollVerification(ctx, client, "t1", WithPollInterval(time.Hour))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.calls)
}
