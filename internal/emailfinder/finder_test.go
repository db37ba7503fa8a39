package emailfinder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVerifier validates only the addresses in valid, recording probe order.
type fakeVerifier struct {
	valid  map[string]bool
	probed []string
}

func (f *fakeVerifier) Verify(_ context.Context, email string) Verification {
	f.probed = append(f.probed, email)
	if f.valid[email] {
		return Verification{Email: email, Valid: true, Message: "result: deliverable"}
	}
	return Verification{Email: email, Failure: FailureSMTPRejected, Message: "rejected"}
}

// catchAllVerifier wraps fakeVerifier with an explicit catch-all probe.
type catchAllVerifier struct {
	fakeVerifier
	catchAll      bool
	probedDomains []string
}

func (c *catchAllVerifier) ProbeCatchAll(_ context.Context, domain string) bool {
	c.probedDomains = append(c.probedDomains, domain)
	return c.catchAll
}

func TestFindEmailFromFullName_ReturnsOnlyValidCandidate(t *testing.T) {
	t.Parallel()

	fake := &fakeVerifier{valid: map[string]bool{"john.smith@acme.com": true}}
	finder := NewFinder(fake)

	got := finder.FindEmailFromFullName(context.Background(), "John Smith", "acme.com")

	require.NotNil(t, got)
	assert.Equal(t, "john.smith@acme.com", got.Email)
	assert.True(t, got.Valid)
	// john@acme.com was probed first and rejected; iteration stopped at the match.
	assert.Equal(t, []string{"john@acme.com", "john.smith@acme.com"}, fake.probed)
}

func TestFindValidEmail_FirstInOrderWins(t *testing.T) {
	t.Parallel()

	fake := &fakeVerifier{valid: map[string]bool{
		"jsmith@acme.com":     true,
		"john.smith@acme.com": true,
	}}
	finder := NewFinder(fake)

	got := finder.FindValidEmail(context.Background(), "john", "smith", "acme.com")

	require.NotNil(t, got)
	// john.smith precedes jsmith in the fixed order.
	assert.Equal(t, "john.smith@acme.com", got.Email)
}

func TestFindValidEmail_AllInvalidReturnsNil(t *testing.T) {
	t.Parallel()

	fake := &fakeVerifier{valid: map[string]bool{}}
	finder := NewFinder(fake)

	got := finder.FindValidEmail(context.Background(), "john", "smith", "acme.com")

	assert.Nil(t, got)
	assert.Len(t, fake.probed, 10)
}

func TestFindValidEmail_EmptyInputsReturnNil(t *testing.T) {
	t.Parallel()

	fake := &fakeVerifier{}
	finder := NewFinder(fake)

	assert.Nil(t, finder.FindValidEmail(context.Background(), "", "smith", "acme.com"))
	assert.Nil(t, finder.FindValidEmail(context.Background(), "john", "smith", ""))
	assert.Empty(t, fake.probed)
}

func TestFindValidEmail_CatchAllShortCircuits(t *testing.T) {
	t.Parallel()

	fake := &catchAllVerifier{catchAll: true}
	finder := NewFinder(fake)

	got := finder.FindValidEmail(context.Background(), "john", "smith", "acme.com")

	require.NotNil(t, got)
	assert.Equal(t, "john@acme.com", got.Email)
	assert.True(t, got.Valid)
	assert.True(t, got.CatchAll)
	require.NotNil(t, got.Score)
	assert.Equal(t, catchAllScore, *got.Score)
	// No individual candidate was probed.
	assert.Empty(t, fake.probed)
	assert.Equal(t, []string{"acme.com"}, fake.probedDomains)
}

func TestFindValidEmail_NotCatchAllFallsThrough(t *testing.T) {
	t.Parallel()

	fake := &catchAllVerifier{
		fakeVerifier: fakeVerifier{valid: map[string]bool{"smith@acme.com": true}},
		catchAll:     false,
	}
	finder := NewFinder(fake)

	got := finder.FindValidEmail(context.Background(), "john", "smith", "acme.com")

	require.NotNil(t, got)
	assert.Equal(t, "smith@acme.com", got.Email)
	assert.False(t, got.CatchAll)
}

func TestFindEmailFromFullName_SingleToken(t *testing.T) {
	t.Parallel()

	fake := &fakeVerifier{}
	finder := NewFinder(fake)

	// A lone token yields an empty last name, hence no candidates.
	assert.Nil(t, finder.FindEmailFromFullName(context.Background(), "Cher", "acme.com"))
	assert.Empty(t, fake.probed)
}

func TestFindEmailFromFullName_MiddleNamesDropped(t *testing.T) {
	t.Parallel()

	fake := &fakeVerifier{valid: map[string]bool{"mary@acme.com": true}}
	finder := NewFinder(fake)

	got := finder.FindEmailFromFullName(context.Background(), "Mary Jane van Houten", "acme.com")

	require.NotNil(t, got)
	assert.Equal(t, "mary@acme.com", got.Email)
}
