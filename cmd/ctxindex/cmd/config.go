package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/ctxindex/configs"
	"github.com/Aman-CERP/ctxindex/internal/config"
	"github.com/Aman-CERP/ctxindex/internal/output"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage ctxindex configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/ctxindex/config.yaml)
  3. Project config (.ctxindex.yaml)
  4. Environment variables (CTXINDEX_*)`,
		Example: `  # Create user config from template
  ctxindex config init

  # Create .ctxindex.yaml in the current directory
  ctxindex config init --project

  # Show effective configuration
  ctxindex config show`,
	}

	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigPathCmd(opts))

	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create a configuration file from the built-in template.

Without --project the user config is written. With --force an existing file
is backed up (keeping the last 3 backups) and replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if project {
				p, err := opts.resolveConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			return runConfigInit(output.New(cmd.OutOrStdout()), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and overwrite an existing file")
	cmd.Flags().BoolVar(&project, "project", false, "Write the project config instead of the user config")

	return cmd
}

func runConfigInit(out *output.Writer, path string, force bool) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if exists && !force {
		out.Warning("Configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Status("💡", "Use --force to replace it (a backup is kept)")
		return nil
	}

	var backupPath string
	if exists {
		p, err := config.Backup(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		backupPath = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	if backupPath != "" {
		out.Statusf("💾", "Backup: %s", backupPath)
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Edit indexes and crawler roots")
	out.Status("", "  2. Run 'ctxindex config show' to verify")
	return nil
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg *config.Config
			switch source {
			case "merged":
				c, _, err := opts.loadConfig()
				if err != nil {
					return err
				}
				cfg = c
			case "defaults":
				cfg = config.NewConfig()
			default:
				return fmt.Errorf("unknown source %q (valid: merged, defaults)", source)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			out := output.New(cmd.OutOrStdout())
			out.Header(fmt.Sprintf("Configuration (%s)", source))
			out.Code(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults")

	return cmd
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := opts.resolveConfigPath()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			out.KeyValue("user", config.GetUserConfigPath())
			out.KeyValue("project", project)
			return nil
		},
	}
}
