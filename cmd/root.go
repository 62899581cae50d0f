// Package cmd holds the command-line entry points of the server binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homecare-app-server/internal/config"
	"homecare-app-server/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "homecare",
	Short: "Home-care portal API server",
	Long: `Backend for the home-care portal: service requests, caregiver visits,
in-app notifications and the admin console.

Configuration comes from the environment; a .env file in the working
directory is loaded first when present.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newCreateAdminCommand())
}

// bootstrap loads config and builds the logger every command starts from.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(cfg.Logging, cfg.IsDevelopment()), nil
}
