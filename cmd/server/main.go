package main

import (
	"fmt"
	"log"
	"os"

	"github.com/SachinRathod0101/Time-left-backend/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timeleft",
	Short: "TimeLeft event meetup backend",
	Long: `TimeLeft backend: events, rosters, icebreakers and payments.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), config.Load())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
