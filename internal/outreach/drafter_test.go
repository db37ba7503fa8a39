package outreach

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var acmeEvent = model.FundingEvent{
	CompanyName:   "Acme",
	FundingAmount: "$10M",
	Description:   "Builds widgets for enterprises.",
}

func TestDraftWithModelOpening(t *testing.T) {
	t.Parallel()

	mock := &fakeLLM{response: `"Huge congrats on Acme's $10M Series A!"`}
	d := New(mock, WithSenderName("Pat"))

	draft, err := d.Draft(context.Background(), acmeEvent, "Jane Smith")
	require.NoError(t, err)

	assert.Equal(t, "Congrats on the $10M raise, Jane!", draft.Subject)
	assert.Contains(t, draft.Body, "Hi Jane,")
	assert.Contains(t, draft.Body, "Huge congrats on Acme's $10M Series A!")
	assert.NotContains(t, draft.Body, `"`)
	assert.Contains(t, draft.Body, "Pat")

	require.Len(t, mock.prompts, 1)
	assert.Contains(t, mock.prompts[0], "Jane Smith")
	assert.Contains(t, mock.prompts[0], "Builds widgets")
}

func TestDraftFallbackOnModelError(t *testing.T) {
	t.Parallel()

	d := New(&fakeLLM{err: errors.New("overloaded")})

	draft, err := d.Draft(context.Background(), acmeEvent, "Jane Smith")
	require.NoError(t, err)
	assert.Contains(t, draft.Body, "Congratulations on raising $10M!")
}

func TestDraftNilClient(t *testing.T) {
	t.Parallel()

	d := New(nil)

	draft, err := d.Draft(context.Background(), model.FundingEvent{CompanyName: "Acme"}, "Jane Smith")
	require.NoError(t, err)
	assert.Contains(t, draft.Body, "Congratulations on raising your latest round!")
	assert.Contains(t, draft.Subject, "your recent raise")
}

func TestDraftMultilineOpeningRejected(t *testing.T) {
	t.Parallel()

	d := New(&fakeLLM{response: "Congrats!\n\nAlso here is a second paragraph you did not ask for."})

	draft, err := d.Draft(context.Background(), acmeEvent, "Jane Smith")
	require.NoError(t, err)
	assert.Contains(t, draft.Body, "Congratulations on raising $10M!")
}

func TestDraftEmptyFounderName(t *testing.T) {
	t.Parallel()

	d := New(nil)

	draft, err := d.Draft(context.Background(), acmeEvent, "")
	require.NoError(t, err)
	assert.Contains(t, draft.Subject, "there")
}

func TestLoadTemplates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subject: \"Quick note, {{.FirstName}}\"\n"), 0o600))

	tpl, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, "Quick note, {{.FirstName}}", tpl.Subject)
	assert.Equal(t, DefaultTemplates.Body, tpl.Body, "missing body falls back to default")

	d := New(nil, WithTemplates(tpl))
	draft, err := d.Draft(context.Background(), acmeEvent, "Jane Smith")
	require.NoError(t, err)
	assert.Equal(t, "Quick note, Jane", draft.Subject)
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplates(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDraftBadTemplate(t *testing.T) {
	t.Parallel()

	d := New(nil, WithTemplates(Templates{Subject: "{{.Broken", Body: "x"}))
	_, err := d.Draft(context.Background(), acmeEvent, "Jane Smith")
	assert.Error(t, err)
}
