package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/config"
	"github.com/jobtrack-dev/jobtrack/internal/logger"
	"github.com/jobtrack-dev/jobtrack/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "jobtrack-server",
		Short:   "Run the Jobtrack API server",
		Long:    "Run the Jobtrack API server. Settings come from the environment and an optional .env file.",
		Version: version,
		Args:    cobra.NoArgs,
		// Runtime failures are logged; usage only helps with flag mistakes
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create server")
		return err
	}

	log.Info().
		Str("version", version).
		Str("port", cfg.HTTP.Port).
		Str("database", cfg.Database.Driver()).
		Str("revocation", cfg.Auth.RevocationBackend).
		Dur("token_ttl", cfg.Auth.TokenTTL).
		Str("cors_origins", strings.Join(cfg.HTTP.CORSOrigins, ",")).
		Str("maintenance", cfg.Maintenance.Schedule).
		Msg("Starting Jobtrack server...")

	// Blocks until SIGINT/SIGTERM
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server failed")
		return err
	}
	return nil
}
