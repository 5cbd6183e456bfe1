// Command api serves the itinerary activity HTTP API.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/config"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/logging"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "itinerary-api",
	Short:             "Itinerary activity service",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, destinationCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
