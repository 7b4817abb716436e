package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxindex/internal/content"
	"github.com/Aman-CERP/ctxindex/internal/output"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "import <tree.yaml>",
		Short: "Load a content tree into the content store",
		Long: `Load a YAML content tree into the content store.

The file names a database and a nested list of items:

  database: master
  items:
    - name: sitecore
      id: "{ROOT}"
      children:
        - name: content

Items without an id get a generated one. Re-importing an item with the same
id replaces it. Only one import runs against a store at a time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			st, err := content.NewSQLiteStore(cfg.Content.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open content store: %w", err)
			}
			defer func() { _ = st.Close() }()

			n, err := content.Import(cmd.Context(), st, f, content.ImportOptions{
				LockPath: cfg.Content.DBPath,
				Database: database,
			})
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Imported %d items", n)
			out.Statusf("📁", "Store: %s", cfg.Content.DBPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "Override the database named in the file")
	return cmd
}
