package main

import (
	"github.com/spf13/cobra"

	"HNDigest/internal/app"
	"HNDigest/internal/config"
	"HNDigest/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hndigest",
		Short: "Publish an Atom digest of stories crossing a score threshold",
		Long: `hndigest scans the Hacker News top stories, remembers the last score of
every story, and adds a summarized entry to an archive-paginated Atom feed the
first time a story crosses the configured threshold.

Without a subcommand a single run is performed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newApplication(opts).Run(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default $HN_DIGEST_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug|info|warn|error)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "run",
		Short:         "Run every configured source once and exit",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newApplication(opts).Run(cmd.Context())
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run on the configured cron schedule until interrupted",
		Long: `Runs every configured source on scheduler.cronExpression in
scheduler.timezone. Overlapping runs are skipped.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newApplication(opts).Serve(cmd.Context())
		},
	}
}

func loadConfig(opts *rootOptions) config.Config {
	cfg := config.Load(opts.configPath)
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg
}

func newApplication(opts *rootOptions) *app.Application {
	cfg := loadConfig(opts)
	return app.New(cfg, logging.New(cfg.Logging.Level))
}
