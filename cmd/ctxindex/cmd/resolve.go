package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxindex/internal/content"
	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/output"
	"github.com/Aman-CERP/ctxindex/pkg/resolver"
)

// resolution is the JSON form of one resolved path.
type resolution struct {
	Path       string          `json:"path"`
	ID         string          `json:"id,omitempty"`
	Index      string          `json:"index,omitempty"`
	Reason     resolver.Reason `json:"reason,omitempty"`
	Fallback   bool            `json:"fallback,omitempty"`
	Candidates []candidate     `json:"candidates,omitempty"`
	Error      string          `json:"error,omitempty"`
	Problem    *cerrors.Report `json:"problem,omitempty"`
}

type candidate struct {
	Index string `json:"index"`
	Type  string `json:"type"`
	Rank  *int   `json:"rank"`
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var (
		database   string
		explain    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Show which index owns each item",
		Long: `Resolve content item paths to the search index responsible for them.

With --explain every candidate index is listed with its rank. A rank is the
distance between the item and the closest crawler root of the index.`,
		Example: `  # Resolve one item
  ctxindex resolve /sitecore/content/home

  # Show candidates and ranks
  ctxindex resolve --explain /sitecore/content/home/about

  # Resolve items of the web database as JSON
  ctxindex resolve --db web --json /sitecore/content/home`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			results := a.resolvePaths(cmd.Context(), database, args, explain)
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResolutions(output.New(cmd.OutOrStdout()), results, explain)
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d paths could not be read", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", "master", "Content database")
	cmd.Flags().BoolVar(&explain, "explain", false, "List every candidate index with its rank")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func (a *app) resolvePaths(ctx context.Context, database string, paths []string, explain bool) []resolution {
	results := make([]resolution, 0, len(paths))
	for _, p := range paths {
		item, err := a.store.GetByPath(ctx, database, p)
		if err != nil {
			results = append(results, resolution{Path: p, Error: describeError(err), Problem: cerrors.Describe(err)})
			continue
		}

		exp := a.resolver.Explain(ctx, content.NewIndexable(item))
		r := resolution{
			Path:     item.Path,
			ID:       item.ID,
			Index:    exp.IndexName,
			Reason:   exp.Reason,
			Fallback: exp.Fallback,
		}
		if explain {
			for _, c := range exp.Candidates {
				cand := candidate{Index: c.Index.Name(), Type: string(c.Index.Type())}
				if c.Rank != resolver.Unranked {
					rank := c.Rank
					cand.Rank = &rank
				}
				r.Candidates = append(r.Candidates, cand)
			}
		}
		results = append(results, r)
	}
	return results
}

func describeError(err error) string {
	if ce, ok := cerrors.As(err); ok {
		return fmt.Sprintf("%s: %s", ce.Code, ce.Message)
	}
	return err.Error()
}

func printResolutions(out *output.Writer, results []resolution, explain bool) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		switch {
		case r.Error != "":
			rows = append(rows, []string{r.Path, "-", r.Error})
		case r.Reason == resolver.ReasonNone:
			rows = append(rows, []string{r.Path, "-", "no index covers this item"})
		default:
			reason := string(r.Reason)
			if r.Fallback {
				reason += " (fallback)"
			}
			rows = append(rows, []string{r.Path, r.Index, reason})
		}
	}
	out.Table([]string{"PATH", "INDEX", "REASON"}, rows)

	if !explain {
		return
	}
	for _, r := range results {
		if len(r.Candidates) == 0 {
			continue
		}
		out.Newline()
		out.Header(r.Path)
		crows := make([][]string, 0, len(r.Candidates))
		for i, c := range r.Candidates {
			rank := "unranked"
			if c.Rank != nil {
				rank = strconv.Itoa(*c.Rank)
			}
			crows = append(crows, []string{strconv.Itoa(i + 1), c.Index, c.Type, rank})
		}
		out.Table([]string{"#", "INDEX", "TYPE", "RANK"}, crows)
	}
}
