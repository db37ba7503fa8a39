// Package outreach turns funding events into short congratulatory drafts.
package outreach

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/llm"
)

// Templates holds the subject and body skeletons. The body template
// receives an {{.Opening}} line written per-company by the model.
type Templates struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// DefaultTemplates is used when no template file is configured.
var DefaultTemplates = Templates{
	Subject: "Congrats on the {{.FundingAmount}} raise, {{.FirstName}}!",
	Body: `Hi {{.FirstName}},

{{.Opening}}

We work with founders at your stage to take recruiting, payroll, and back-office operations off your plate so the new capital goes toward building, not admin.

Would you be open to a quick 15-minute call next week?

Best,
{{.SenderName}}`,
}

// LoadTemplates reads a YAML template file. Missing fields fall back to
// the defaults.
func LoadTemplates(path string) (Templates, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, eris.Wrapf(err, "reading template file %s", path)
	}

	tpl := DefaultTemplates
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return Templates{}, eris.Wrapf(err, "parsing template file %s", path)
	}
	if tpl.Subject == "" {
		tpl.Subject = DefaultTemplates.Subject
	}
	if tpl.Body == "" {
		tpl.Body = DefaultTemplates.Body
	}
	return tpl, nil
}

// Option configures a Drafter.
type Option func(*Drafter)

// WithTemplates overrides the default subject/body templates.
func WithTemplates(tpl Templates) Option {
	return func(d *Drafter) {
		d.templates = tpl
	}
}

// WithSenderName sets the signature name used in drafts.
func WithSenderName(name string) Option {
	return func(d *Drafter) {
		d.senderName = name
	}
}

// Drafter renders outreach drafts.
type Drafter struct {
	llm        llm.Client
	templates  Templates
	senderName string
}

// New creates a drafter. The llm client may be nil, in which case every
// draft uses the static opening line.
func New(client llm.Client, opts ...Option) *Drafter {
	d := &Drafter{
		llm:        client,
		templates:  DefaultTemplates,
		senderName: "The Sells Group",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Draft is a rendered outreach email.
type Draft struct {
	Subject string
	Body    string
}

type templateData struct {
	FirstName     string
	FounderName   string
	CompanyName   string
	FundingAmount string
	Opening       string
	SenderName    string
}

const openingSystem = "You write one-sentence openers for congratulatory emails to startup founders. Warm, specific, no flattery overload. Return only the sentence."

const openingPrompt = `Write a single congratulatory opening sentence for an email to %s, founder of %s, which just raised %s.%s

Return ONLY the sentence, no quotes, no preamble.`

// Draft renders a draft for a funding event addressed to founderName.
func (d *Drafter) Draft(ctx context.Context, event model.FundingEvent, founderName string) (Draft, error) {
	data := templateData{
		FirstName:     firstName(founderName),
		FounderName:   founderName,
		CompanyName:   event.CompanyName,
		FundingAmount: orUnknown(event.FundingAmount, "your recent"),
		SenderName:    d.senderName,
	}
	data.Opening = d.opening(ctx, event, founderName)

	subject, err := render("subject", d.templates.Subject, data)
	if err != nil {
		return Draft{}, err
	}
	body, err := render("body", d.templates.Body, data)
	if err != nil {
		return Draft{}, err
	}
	return Draft{Subject: subject, Body: body}, nil
}

// opening asks the model for a tailored first line, falling back to a
// static one when the model is unavailable or errors.
func (d *Drafter) opening(ctx context.Context, event model.FundingEvent, founderName string) string {
	fallback := "Congratulations on raising " + orUnknown(event.FundingAmount, "your latest round") + "!"

	if d.llm == nil {
		return fallback
	}

	var extra string
	if event.Description != "" {
		extra = "\n\nWhat the company does: " + event.Description
	}

	temp := 0.7
	line, err := d.llm.Complete(ctx, llm.CompletionRequest{
		System: openingSystem,
		Prompt: fmt.Sprintf(openingPrompt, founderName, event.CompanyName,
			orUnknown(event.FundingAmount, "a new round"), extra),
		MaxTokens:   200,
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("opening line generation failed, using fallback",
			zap.String("company", event.CompanyName), zap.Error(err))
		return fallback
	}

	line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), `"`))
	if line == "" || strings.Count(line, "\n") > 0 {
		return fallback
	}
	return line
}

func render(name, text string, data templateData) (string, error) {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", eris.Wrapf(err, "parsing %s template", name)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", eris.Wrapf(err, "rendering %s template", name)
	}
	return sb.String(), nil
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "there"
	}
	return parts[0]
}

func orUnknown(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
