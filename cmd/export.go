package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/notion"
)

var (
	exportOut    string
	exportTarget string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export drafted leads to XLSX or Notion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		filter := store.LeadFilter{Limit: 1000}
		if exportStatus != "" {
			filter.Status = model.LeadStatus(exportStatus)
		}

		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "list leads")
		}
		if len(leads) == 0 {
			zap.L().Warn("no leads to export")
			return nil
		}

		switch exportTarget {
		case "xlsx":
			if err := export.WriteLeadsXLSX(exportOut, leads); err != nil {
				return err
			}
			zap.L().Info("leads exported",
				zap.String("path", exportOut),
				zap.Int("count", len(leads)),
			)
		case "notion":
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return eris.New("notion token and lead_db are required for notion export")
			}
			exporter := notion.NewExporter(notion.NewClient(cfg.Notion.Token), cfg.Notion.LeadDB)
			created, err := exporter.Export(ctx, leads)
			if err != nil {
				return err
			}
			zap.L().Info("leads exported to notion",
				zap.Int("created", created),
				zap.Int("total", len(leads)),
			)
		default:
			return eris.Errorf("unsupported export target: %s (want xlsx or notion)", exportTarget)
		}

		for _, lead := range leads {
			if lead.Status == model.LeadStatusExported {
				continue
			}
			if err := st.UpdateLeadStatus(ctx, lead.ID, model.LeadStatusExported); err != nil {
				zap.L().Error("status update failed",
					zap.String("lead", lead.ID), zap.Error(err))
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTarget, "to", "xlsx", "export target: xlsx or notion")
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output path for xlsx export")
	exportCmd.Flags().StringVar(&exportStatus, "status", "drafted", "only export leads with this status (empty for all)")
	rootCmd.AddCommand(exportCmd)
}
