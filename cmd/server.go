package cmd

import (
	"github.com/ch1tg/GameTrackr-api/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the GameTrackr HTTP API",
	Long:  `Start the GameTrackr HTTP server, serving the auth, wishlist, catalog and search endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
