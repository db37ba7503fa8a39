package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

func TestWriteLeadsXLSX(t *testing.T) {
	t.Parallel()

	score := 85
	leads := []model.Lead{
		{
			FounderName:   "Jane Smith",
			Email:         "jane@acme.example",
			CompanyName:   "Acme",
			CompanyDomain: "acme.example",
			FundingAmount: "$10M",
			Score:         &score,
			Status:        model.LeadStatusDrafted,
			DraftSubject:  "Congrats on the $10M raise, Jane!",
			CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			FounderName:   "John Doe",
			Email:         "john@other.example",
			CompanyName:   "Other",
			CompanyDomain: "other.example",
			CatchAll:      true,
			Status:        model.LeadStatusFound,
		},
	}

	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, WriteLeadsXLSX(path, leads))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Founder", sheet.Rows[0].Cells[0].String())

	first := sheet.Rows[1]
	assert.Equal(t, "Jane Smith", first.Cells[0].String())
	assert.Equal(t, "jane@acme.example", first.Cells[1].String())
	assert.Equal(t, "false", first.Cells[5].String())
	assert.Equal(t, "85", first.Cells[6].String())
	assert.Equal(t, "drafted", first.Cells[7].String())
	assert.Equal(t, "2026-03-01 12:00:00", first.Cells[10].String())

	second := sheet.Rows[2]
	assert.Equal(t, "true", second.Cells[5].String())
	assert.Equal(t, "", second.Cells[6].String())
}

func TestWriteLeadsXLSX_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteLeadsXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1, "header only")
}
