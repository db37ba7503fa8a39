package notion

import (
	"context"
	"strconv"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Exporter pushes leads into a Notion database. Pages are keyed by email;
// leads already present in the database are skipped.
type Exporter struct {
	client Client
	dbID   string
}

// NewExporter creates a lead exporter for the given database.
func NewExporter(client Client, dbID string) *Exporter {
	return &Exporter{client: client, dbID: dbID}
}

// Export creates one page per lead and returns the number created.
// Duplicates and per-lead API failures are logged and skipped so one bad
// lead does not abort the batch.
func (e *Exporter) Export(ctx context.Context, leads []model.Lead) (int, error) {
	existing, err := e.existingEmails(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, lead := range leads {
		if existing[lead.Email] {
			zap.L().Debug("lead already in notion", zap.String("email", lead.Email))
			continue
		}
		if _, err := e.client.CreatePage(ctx, e.pageRequest(lead)); err != nil {
			zap.L().Error("notion page create failed",
				zap.String("email", lead.Email), zap.Error(err))
			continue
		}
		created++
	}
	return created, nil
}

// existingEmails collects the Email property of every page in the database,
// following pagination.
func (e *Exporter) existingEmails(ctx context.Context) (map[string]bool, error) {
	emails := make(map[string]bool)
	req := &notionapi.DatabaseQueryRequest{}

	for {
		resp, err := e.client.QueryDatabase(ctx, e.dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: list existing leads")
		}
		for _, page := range resp.Results {
			if prop, ok := page.Properties["Email"].(*notionapi.EmailProperty); ok && prop.Email != "" {
				emails[prop.Email] = true
			}
		}
		if !resp.HasMore {
			break
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
	}
	return emails, nil
}

func (e *Exporter) pageRequest(lead model.Lead) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(lead.FounderName),
		},
		"Email": notionapi.EmailProperty{
			Email: lead.Email,
		},
		"Company": notionapi.RichTextProperty{
			RichText: richText(lead.CompanyName),
		},
		"Domain": notionapi.RichTextProperty{
			RichText: richText(lead.CompanyDomain),
		},
		"Funding": notionapi.RichTextProperty{
			RichText: richText(lead.FundingAmount),
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(lead.Status)},
		},
		"Catch-All": notionapi.CheckboxProperty{
			Checkbox: lead.CatchAll,
		},
	}
	if lead.Score != nil {
		props["Score"] = notionapi.RichTextProperty{
			RichText: richText(strconv.Itoa(*lead.Score)),
		}
	}
	if lead.DraftSubject != "" {
		props["Draft Subject"] = notionapi.RichTextProperty{
			RichText: richText(lead.DraftSubject),
		}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.dbID),
		},
		Properties: props,
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: s}},
	}
}
