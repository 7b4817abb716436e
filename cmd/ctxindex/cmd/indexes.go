package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxindex/internal/output"
)

// indexRow is the JSON form of a configured index.
type indexRow struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Crawlers  []string `json:"crawlers"`
	Documents int      `json:"documents"`
}

func newIndexesCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "List configured indexes",
		Long:  `List the configured search indexes with their type, crawlers and document count.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rows := make([]indexRow, 0)
			for _, idx := range a.registry.List() {
				n, err := idx.Count(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to count %s: %w", idx.Name(), err)
				}
				row := indexRow{Name: idx.Name(), Type: string(idx.Type()), Crawlers: []string{}, Documents: n}
				for _, c := range idx.Crawlers() {
					row.Crawlers = append(row.Crawlers, fmt.Sprint(c))
				}
				rows = append(rows, row)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			out := output.New(cmd.OutOrStdout())
			if len(rows) == 0 {
				out.Warning("No indexes configured")
				out.Status("💡", "Run 'ctxindex config init --project' to create a starting configuration")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.Name, r.Type, strconv.Itoa(r.Documents), strings.Join(r.Crawlers, ", ")})
			}
			out.Table([]string{"NAME", "TYPE", "DOCS", "CRAWLERS"}, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
