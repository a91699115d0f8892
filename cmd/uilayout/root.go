package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/uilayout/layout"
	mcpserver "github.com/tsawler/uilayout/mcp"
	"github.com/tsawler/uilayout/observability"
	"github.com/tsawler/uilayout/store"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath  string
	archivePath string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "uilayout",
		Short: "Reconstruct GUI layouts from element detections",
		Long: "uilayout merges text and non-text detections of a screenshot into components, " +
			"clusters them into groups and lists, and slices the screen into a block tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("UILAYOUT_CONFIG"), "JSON configuration file (env UILAYOUT_CONFIG)")
	flags.StringVar(&opts.archivePath, "archive", os.Getenv("UILAYOUT_ARCHIVE"), "SQLite archive of analysed layouts (env UILAYOUT_ARCHIVE)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug messages")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newWatchCmd(opts),
		newMCPCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (layout.AnalyzerConfig, error) {
	if o.configPath == "" {
		return layout.DefaultAnalyzerConfig(), nil
	}
	return layout.LoadConfig(o.configPath)
}

// openArchive returns nil when no archive is configured
func (o *rootOptions) openArchive() (*store.Archive, error) {
	if o.archivePath == "" {
		return nil, nil
	}
	return store.Open(o.archivePath)
}

// logger writes to w, never stdout, which carries results
func (o *rootOptions) logger(w io.Writer, level observability.Level) observability.Logger {
	if o.verbose {
		level = observability.LevelDebug
	}
	return observability.NewStdLogger(log.New(w, "uilayout: ", log.LstdFlags), level)
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analyzer over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr(), observability.LevelWarn)

			archive, err := opts.openArchive()
			if err != nil {
				return err
			}
			deps := mcpserver.Deps{
				Analyzer: layout.NewAnalyzerWithConfig(config).WithLogger(logger),
				Logger:   logger,
			}
			if archive != nil {
				defer archive.Close()
				deps.Archive = archive
			}
			return mcpserver.New(deps).ServeStdio()
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the analyzer configuration",
		Long:  "Print the effective analyzer configuration: the defaults, overlaid with --config when given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), config)
		},
	}
}

func writeConfig(w io.Writer, config layout.AnalyzerConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
