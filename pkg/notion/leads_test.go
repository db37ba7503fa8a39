package notion

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

type fakeClient struct {
	pages     []*notionapi.DatabaseQueryResponse
	queryErr  error
	createErr map[string]error
	created   []*notionapi.PageCreateRequest
	queryIdx  int
}

func (f *fakeClient) QueryDatabase(_ context.Context, _ string, _ *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryIdx >= len(f.pages) {
		return &notionapi.DatabaseQueryResponse{}, nil
	}
	resp := f.pages[f.queryIdx]
	f.queryIdx++
	return resp, nil
}

func (f *fakeClient) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	title := req.Properties["Name"].(notionapi.TitleProperty).Title[0].Text.Content
	if err := f.createErr[title]; err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	return &notionapi.Page{}, nil
}

func pageWithEmail(email string) notionapi.Page {
	return notionapi.Page{
		Properties: notionapi.Properties{
			"Email": &notionapi.EmailProperty{Email: email},
		},
	}
}

func testLead(name, email string) model.Lead {
	return model.Lead{
		FounderName:   name,
		Email:         email,
		CompanyName:   "Acme",
		CompanyDomain: "acme.example",
		FundingAmount: "$10M",
		Status:        model.LeadStatusDrafted,
	}
}

func TestExportCreatesPages(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	exp := NewExporter(client, "db-1")

	created, err := exp.Export(context.Background(), []model.Lead{
		testLead("Jane Smith", "jane@acme.example"),
		testLead("John Doe", "john@acme.example"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	require.Len(t, client.created, 2)

	props := client.created[0].Properties
	assert.Equal(t, "jane@acme.example", props["Email"].(notionapi.EmailProperty).Email)
	assert.Equal(t, "drafted", props["Status"].(notionapi.SelectProperty).Select.Name)
}

func TestExportSkipsExisting(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		pages: []*notionapi.DatabaseQueryResponse{
			{Results: []notionapi.Page{pageWithEmail("jane@acme.example")}},
		},
	}
	exp := NewExporter(client, "db-1")

	created, err := exp.Export(context.Background(), []model.Lead{
		testLead("Jane Smith", "jane@acme.example"),
		testLead("John Doe", "john@acme.example"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, client.created, 1)
	assert.Equal(t, "john@acme.example",
		client.created[0].Properties["Email"].(notionapi.EmailProperty).Email)
}

func TestExportFollowsPagination(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		pages: []*notionapi.DatabaseQueryResponse{
			{
				Results:    []notionapi.Page{pageWithEmail("a@x.example")},
				HasMore:    true,
				NextCursor: "cursor-1",
			},
			{Results: []notionapi.Page{pageWithEmail("b@x.example")}},
		},
	}
	exp := NewExporter(client, "db-1")

	created, err := exp.Export(context.Background(), []model.Lead{
		testLead("A", "a@x.example"),
		testLead("B", "b@x.example"),
		testLead("C", "c@x.example"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestExportQueryError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{queryErr: errors.New("unauthorized")}
	exp := NewExporter(client, "db-1")

	_, err := exp.Export(context.Background(), []model.Lead{testLead("Jane Smith", "jane@acme.example")})
	assert.Error(t, err)
}

func TestExportSkipsFailedCreates(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		createErr: map[string]error{"Jane Smith": errors.New("validation")},
	}
	exp := NewExporter(client, "db-1")

	created, err := exp.Export(context.Background(), []model.Lead{
		testLead("Jane Smith", "jane@acme.example"),
		testLead("John Doe", "john@acme.example"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestExportScoreAndDraftProperties(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	exp := NewExporter(client, "db-1")

	score := 95
	lead := testLead("Jane Smith", "jane@acme.example")
	lead.Score = &score
	lead.DraftSubject = "Congrats!"

	_, err := exp.Export(context.Background(), []model.Lead{lead})
	require.NoError(t, err)
	require.Len(t, client.created, 1)

	props := client.created[0].Properties
	assert.Equal(t, "95", props["Score"].(notionapi.RichTextProperty).RichText[0].Text.Content)
	assert.Equal(t, "Congrats!", props["Draft Subject"].(notionapi.RichTextProperty).RichText[0].Text.Content)
}
