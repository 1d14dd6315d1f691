// Package cli holds the taskmanager command tree.
package cli

import (
	"taskmanager/internal/config"
	"taskmanager/internal/logger"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "taskmanager",
	Short: "Work groups, projects and tasks over a REST API",
	Long: `taskmanager serves the work group, project and task API.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var envFound bool
		cfg, envFound = config.Load()
		logger.Init(cfg.LogLevel)
		if !envFound {
			logger.Debug().Msg("no .env file found, using environment")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
