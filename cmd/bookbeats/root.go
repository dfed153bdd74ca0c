package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/bookbeats/internal/config"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

// cli carries state shared by subcommands of one invocation.
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "bookbeats",
		Short:         "Generate music playlists that fit the mood of a book",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default config.yaml, or $"+config.ConfigPathEnvVar+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		c.cmdGenerate(),
		c.cmdAnalyze(),
		c.cmdHistory(),
	)
	return root
}

func (c *cli) loadConfig(cmd *cobra.Command) error {
	if c.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// CLI output owns stdout; logs go to stderr at warn unless asked otherwise.
	cfg.Logging.Output = cmd.ErrOrStderr()
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "warn"
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	logging.Init(cfg.Logging)

	c.cfg = cfg
	return nil
}
