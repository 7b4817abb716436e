package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxindex/internal/batch"
	"github.com/Aman-CERP/ctxindex/internal/output"
)

// batchFailure is the JSON form of a failed or unresolved item.
type batchFailure struct {
	Path    string `json:"path"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// batchSummary is the JSON form of a batch report.
type batchSummary struct {
	RunID      string         `json:"run_id"`
	Database   string         `json:"database"`
	Items      int            `json:"items"`
	Counts     map[string]int `json:"counts"`
	DurationMS int64          `json:"duration_ms"`
	Problems   []batchFailure `json:"problems,omitempty"`
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		database   string
		workers    int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Add every item of a database to its index",
		Long: `Resolve every item of a content database and add it to the index that
owns it. Items that no index covers are reported and skipped.

Work is spread over --workers goroutines (default: performance.workers).`,
		Example: `  # Index the master database
  ctxindex index

  # Index the web database with 8 workers
  ctxindex index --db web --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			items, err := a.store.Items(ctx, database)
			if err != nil {
				return fmt.Errorf("failed to list items of %s: %w", database, err)
			}

			if workers <= 0 {
				workers = a.cfg.Performance.Workers
			}
			runner := batch.New(a.resolver, a.registry,
				batch.WithWorkers(workers),
				batch.WithLogger(a.logger),
				batch.WithObserver(a.metrics))

			report, err := runner.Index(ctx, items)
			if err != nil {
				return err
			}

			summary := summarize(database, report)
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(output.New(cmd.OutOrStdout()), summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", "master", "Content database")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent workers (0 uses the configured value)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func summarize(database string, report *batch.Report) batchSummary {
	s := batchSummary{
		RunID:      report.RunID,
		Database:   database,
		Items:      len(report.Results),
		Counts:     report.Counts,
		DurationMS: report.Duration.Milliseconds(),
	}
	for _, r := range report.Results {
		if r.Outcome != batch.OutcomeFailed && r.Outcome != batch.OutcomeUnresolved {
			continue
		}
		f := batchFailure{Path: r.Item.Path, Outcome: r.Outcome}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		s.Problems = append(s.Problems, f)
	}
	return s
}

func printSummary(out *output.Writer, s batchSummary) {
	if s.Items == 0 {
		out.Warningf("No items in database %s", s.Database)
		return
	}

	out.Successf("Indexed %d of %d items from %s in %s",
		s.Counts[batch.OutcomeIndexed], s.Items, s.Database,
		(time.Duration(s.DurationMS) * time.Millisecond).String())
	out.Statusf("", "Run: %s", s.RunID)

	if n := s.Counts[batch.OutcomeUnresolved]; n > 0 {
		out.Warningf("%d items have no index", n)
	}
	if n := s.Counts[batch.OutcomeFailed]; n > 0 {
		out.Errorf("%d items failed", n)
	}
	if len(s.Problems) == 0 {
		return
	}

	rows := make([][]string, 0, len(s.Problems))
	for _, p := range s.Problems {
		rows = append(rows, []string{p.Path, p.Outcome, p.Error})
	}
	out.Newline()
	out.Table([]string{"PATH", "OUTCOME", "ERROR"}, rows)
}
