// Package export writes leads to files for handoff outside the pipeline.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/outreach-cli/internal/model"
)

var xlsxHeader = []string{
	"Founder", "Email", "Company", "Domain", "Funding",
	"Catch-All", "Score", "Status", "Draft Subject", "Draft Body", "Created",
}

// WriteLeadsXLSX writes leads to an XLSX workbook with a single Leads sheet.
func WriteLeadsXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxHeader {
		header.AddCell().Value = col
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		row.AddCell().Value = lead.FounderName
		row.AddCell().Value = lead.Email
		row.AddCell().Value = lead.CompanyName
		row.AddCell().Value = lead.CompanyDomain
		row.AddCell().Value = lead.FundingAmount
		row.AddCell().Value = strconv.FormatBool(lead.CatchAll)
		score := row.AddCell()
		if lead.Score != nil {
			score.SetInt(*lead.Score)
		}
		row.AddCell().Value = string(lead.Status)
		row.AddCell().Value = lead.DraftSubject
		row.AddCell().Value = lead.DraftBody
		if !lead.CreatedAt.IsZero() {
			row.AddCell().Value = lead.CreatedAt.UTC().Format("2006-01-02 15:04:05")
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
