package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/commands"
	"github.com/jobtrack-dev/jobtrack/internal/cli/userconfig"
	"github.com/jobtrack-dev/jobtrack/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around app
func NewRootCmd(app *commands.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jobtrack",
		Short: "jobtrack - track your job applications",
		Long: `jobtrack CLI - Keep track of companies, job applications and contacts.

Log in once with 'jobtrack login'; the session is kept until you log out
or the server rejects it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSession(cmd) {
				return nil
			}

			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			storage, err := cfg.OpenSessionStorage()
			if err != nil {
				return err
			}
			return app.Setup(cfg, storage)
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.Out, "jobtrack version %s\n", version)
		},
	})

	commands.AddCommands(rootCmd, app)
	return rootCmd
}

// needsSession reports whether cmd renders a view. Local-only commands skip session setup.
func needsSession(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "config", "help", "completion":
			return false
		}
	}
	return true
}

// Execute runs the root command
func Execute() error {
	level := os.Getenv("JOBTRACK_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	app := commands.NewApp(logger.NewCLI(level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd(app).ExecuteContext(ctx)
	// Let a pending logout notification reach the server before exiting
	app.Wait()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
