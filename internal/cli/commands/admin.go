package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
)

// NewAdminCmd creates the admin command group. Every subcommand is a privileged view.
func NewAdminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer accounts and review the audit log",
	}

	cmd.AddCommand(
		newAdminUsersCmd(app),
		newAdminStatusCmd(app, "enable", "active"),
		newAdminStatusCmd(app, "disable", "disabled"),
		newAdminRemoveUserCmd(app),
		newAdminLogsCmd(app),
		newAdminExportCmd(app),
	)
	return cmd
}

func newAdminUsersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "admin users", guard.Privileged, func(ctx context.Context) error {
				users, err := app.Client.ListUsers(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS\tJOINED")
				fmt.Fprintln(w, "──\t────────\t─────\t────\t──────\t──────")
				for _, user := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						user.ID,
						user.Username,
						user.Email,
						role(user.IsAdmin),
						user.Status,
						user.CreatedAt.Format(dateLayout),
					)
				}
				return w.Flush()
			})
		},
	}
}

func newAdminStatusCmd(app *App, verb, status string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <user-id>",
		Short: fmt.Sprintf("Set an account's status to %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "admin "+verb, guard.Privileged, func(ctx context.Context) error {
				user, err := app.Client.SetUserStatus(ctx, args[0], status)
				if err != nil {
					return fmt.Errorf("failed to %s user: %w", verb, err)
				}
				fmt.Fprintf(app.Out, "✓ %s is now %s\n", user.Username, user.Status)
				return nil
			})
		},
	}
}

func newAdminRemoveUserCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <user-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an account and everything it owns",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "admin rm", guard.Privileged, func(ctx context.Context) error {
				if err := confirm(app.Prompt, yes, fmt.Sprintf("Delete user %s and all their data", args[0])); err != nil {
					return err
				}
				if err := app.Client.DeleteUser(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete user: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Deleted user %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newAdminLogsCmd(app *App) *cobra.Command {
	var (
		eventType     string
		limit, offset int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the audit log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "admin logs", guard.Privileged, func(ctx context.Context) error {
				page, err := app.Client.ListAuditLogs(ctx, eventType, limit, offset)
				if err != nil {
					return err
				}
				if len(page.Entries) == 0 {
					fmt.Fprintln(app.Out, "No audit events.")
					return nil
				}

				w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tEVENT\tUSER\tIP\tOK\tDETAIL")
				for _, entry := range page.Entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
						entry.CreatedAt.Format("2006-01-02 15:04:05"),
						entry.EventType,
						entry.Username,
						entry.IP,
						entry.Success,
						entry.Detail,
					)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "\nShowing %d-%d of %d\n", offset+1, offset+len(page.Entries), page.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "Only show this event type, e.g. auth.login")
	cmd.Flags().IntVar(&limit, "limit", 50, "Entries per page")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")

	return cmd
}

func newAdminExportCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit log as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "admin export", guard.Privileged, func(ctx context.Context) error {
				if output == "" || output == "-" {
					return app.Client.ExportAuditLogs(ctx, app.Out)
				}
				return exportToFile(ctx, app, output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func exportToFile(ctx context.Context, app *App, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to write %s: %w", path, closeErr)
		}
	}()

	if err := app.Client.ExportAuditLogs(ctx, io.Writer(f)); err != nil {
		// Leave no partial export behind
		_ = os.Remove(path)
		return err
	}
	fmt.Fprintf(app.Err, "✓ Audit log written to %s\n", path)
	return nil
}
