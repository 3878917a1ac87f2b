package cmd

import (
	"fmt"
	"os"

	"github.com/ch1tg/GameTrackr-api/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gametrackr_api",
	Short: "GameTrackr is a game tracking backend.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
