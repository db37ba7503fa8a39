package newsletter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/llm"
)

const extractionSystem = "You are a precise data extraction assistant. Extract structured information from newsletters and return valid JSON only."

const extractionPrompt = `Analyze this funding newsletter and extract ALL funding announcements.

For each company that raised funding, extract:
1. company_name: The company's name
2. funding_amount: The funding amount (e.g., "$50 million", "$10M Series A")
3. investors: List of investor names
4. founder_names: List of founder/CEO names mentioned
5. company_domain: The company's website domain (infer from company name if not explicit)
6. description: Brief description of what the company does

Return a JSON array of objects. If no funding announcements found, return an empty array [].

Newsletter content:
%s

Return ONLY the JSON array, no other text.`

// Parser extracts funding events from newsletter content via a language
// model.
type Parser struct {
	llm llm.Client
}

// NewParser creates a newsletter parser.
func NewParser(client llm.Client) *Parser {
	return &Parser{llm: client}
}

// Parse extracts funding announcements from a newsletter. Items missing a
// company name or founders are skipped, not errors: newsletters routinely
// mention rounds without naming anyone reachable.
func (p *Parser) Parse(ctx context.Context, n model.Newsletter) ([]model.FundingEvent, error) {
	content := StripHTML(n.Content())
	if content == "" {
		zap.L().Warn("newsletter has no content", zap.String("id", n.ID))
		return nil, nil
	}
	content = truncate(content, maxParseContent)

	temp := 0.1
	raw, err := p.llm.Complete(ctx, llm.CompletionRequest{
		System:      extractionSystem,
		Prompt:      fmt.Sprintf(extractionPrompt, content),
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "newsletter: parse %s", n.ID)
	}

	var items []model.FundingEvent
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &items); err != nil {
		return nil, eris.Wrapf(err, "newsletter: decode extraction for %s", n.ID)
	}

	events := make([]model.FundingEvent, 0, len(items))
	for _, item := range items {
		if item.CompanyName == "" || len(item.FounderNames) == 0 {
			zap.L().Warn("skipping incomplete funding event",
				zap.String("newsletter", n.ID),
				zap.String("company", item.CompanyName),
			)
			continue
		}
		item.RawText = truncate(content, 500)
		events = append(events, item)
	}

	zap.L().Info("extracted funding events",
		zap.String("newsletter", n.ID),
		zap.Int("count", len(events)),
	)
	return events, nil
}
