// Package cmd provides the CLI commands for ctxindex.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/ctxindex/internal/errors"
	"github.com/Aman-CERP/ctxindex/internal/logging"
	"github.com/Aman-CERP/ctxindex/pkg/version"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	debug      bool
	configPath string

	loggingCleanup func()
}

// NewRootCmd creates the root command for the ctxindex CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ctxindex",
		Short: "Decide which search index owns a content item",
		Long: `ctxindex routes content items to search indexes.

Each index has crawlers rooted somewhere in a content tree. For an item,
ctxindex collects the indexes whose crawlers accept it, ranks them by how
close the crawler root is to the item, and picks the closest one. Ties are
broken by the ContentSearch.DefaultIndexType setting.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ctxindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.ctxindex/logs/")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Project config file (default: .ctxindex.yaml in the current directory)")

	cmd.PersistentPreRunE = opts.startLogging
	cmd.PersistentPostRunE = opts.stopLogging

	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newIndexesCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the debug file logger when --debug is set. Without it
// only warnings and errors reach stderr.
func (o *rootOptions) startLogging(cmd *cobra.Command, _ []string) error {
	if !o.debug {
		slog.SetDefault(logging.Console(cmd.ErrOrStderr(), "warn"))
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func (o *rootOptions) stopLogging(_ *cobra.Command, _ []string) error {
	if o.loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command. Coded errors are printed with their hint
// and code, plus cause and details under --debug.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return nil
	}
	debug, _ := root.PersistentFlags().GetBool("debug")
	printError(root.ErrOrStderr(), err, debug)
	return err
}

func printError(w io.Writer, err error, debug bool) {
	if _, ok := cerrors.As(err); ok {
		fmt.Fprint(w, cerrors.FormatForCLI(err, debug))
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
