package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/userconfig"
)

// NewConfigCmd creates the config command group. It works without a session.
func NewConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change local CLI settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			path, err := userconfig.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s: %s\n", userconfig.KeyServerURL, cfg.ServerURL)
			fmt.Fprintf(app.Out, "%s: %s\n", userconfig.KeySessionStorage, cfg.SessionStorage)
			fmt.Fprintf(app.Out, "\nConfig file: %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting (server_url, session_storage)",
		Long: `Change a setting.

Each server keeps its own session. Switching session storage does not
move an existing session; log in again afterwards.

Examples:
  $ jobtrack config set server_url https://jobs.example.com
  $ jobtrack config set session_storage keyring`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := userconfig.Set(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "✓ %s set to %s\n", args[0], valueOf(cfg, args[0]))
			return nil
		},
	})

	return cmd
}

func valueOf(cfg *userconfig.UserConfig, key string) string {
	if key == userconfig.KeyServerURL {
		return cfg.ServerURL
	}
	return cfg.SessionStorage
}
