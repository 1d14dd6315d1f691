package cli

import (
	"taskmanager/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := server.Init(cfg)
		if err != nil {
			return err
		}
		return s.Run()
	},
}
