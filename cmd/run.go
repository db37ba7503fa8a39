package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/emailfinder"
	"github.com/sells-group/outreach-cli/internal/founders"
	"github.com/sells-group/outreach-cli/internal/newsletter"
	"github.com/sells-group/outreach-cli/internal/pipeline"
)

var (
	runDir     string
	runMax     int
	runBackend string
	runDryRun  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process newsletters into drafted leads",
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

		llmClient, err := newLLM()
		if err != nil {
			return err
		}

		drafter, err := newDrafter(llmClient)
		if err != nil {
			return err
		}

		backend := runBackend
		if backend == "" {
			backend = cfg.Run.Backend
		}
		// Fail fast on a misconfigured backend before fetching anything.
		if _, err := newVerifier(backend); err != nil {
			return err
		}

		dir := runDir
		if dir == "" {
			dir = cfg.Run.NewsletterDir
		}

		founderFinder := founders.New(llmClient,
			founders.WithRateLimit(cfg.Scrape.RateLimit),
			founders.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			}),
		)

		p := pipeline.New(pipeline.Config{
			Store:    st,
			Source:   newsletter.DirSource{Dir: dir},
			Parser:   newsletter.NewParser(llmClient),
			Founders: founderFinder,
			Drafter:  drafter,
			NewVerifier: func() (emailfinder.Verifier, error) {
				return newVerifier(backend)
			},
			Concurrency: cfg.Run.Concurrency,
			DryRun:      runDryRun,
		})

		max := runMax
		if max <= 0 {
			max = cfg.Run.MaxNewsletters
		}

		summary, err := p.Run(ctx, max)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.Int("newsletters", summary.Newsletters),
			zap.Int("skipped", summary.Skipped),
			zap.Int("events", summary.Events),
			zap.Int("leads", summary.Leads),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runDir, "newsletters", "", "directory of newsletter files (default from config)")
	runCmd.Flags().IntVar(&runMax, "max-newsletters", 0, "max newsletters to process (default from config)")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "verification backend: api or smtp (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "process without persisting leads")
	rootCmd.AddCommand(runCmd)
}
