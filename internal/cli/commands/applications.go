package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/client"
	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
)

// Application statuses offered by the interactive picker
var applicationStatuses = []string{"To Apply", "Applied", "Interviewing", "Offer", "Rejected"}

// NewApplicationCmd creates the application command group
func NewApplicationCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "app",
		Aliases: []string{"application"},
		Short:   "Manage job applications",
	}

	cmd.AddCommand(
		newApplicationShowCmd(app),
		newApplicationAddCmd(app),
		newApplicationEditCmd(app),
		newApplicationRemoveCmd(app),
	)
	return cmd
}

func newApplicationShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show a job application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "app show", guard.Standard, func(ctx context.Context) error {
				application, err := app.Client.GetApplication(ctx, args[0])
				if err != nil {
					return err
				}
				printApplication(app, application)
				return nil
			})
		},
	}
}

func printApplication(app *App, application *client.Application) {
	fmt.Fprintf(app.Out, "%s (%s)\n", application.JobTitle, application.ID)
	fmt.Fprintf(app.Out, "  Company: %s\n", application.CompanyID)
	fmt.Fprintf(app.Out, "  Status:  %s\n", application.Status)
	fmt.Fprintf(app.Out, "  Applied: %s\n", formatDate(application.ApplicationDate))
	if application.JobURL != "" {
		fmt.Fprintf(app.Out, "  URL:     %s\n", application.JobURL)
	}
	if application.Notes != "" {
		fmt.Fprintf(app.Out, "\n%s\n", application.Notes)
	}
}

func newApplicationAddCmd(app *App) *cobra.Command {
	var (
		input client.ApplicationInput
		date  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a job application to a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				parsed, err := parseDate(date)
				if err != nil {
					return err
				}
				input.ApplicationDate = parsed
			}

			return app.view(cmd, "app add", guard.Standard, func(ctx context.Context) error {
				if input.CompanyID == "" {
					companyID, err := app.pickCompany(ctx)
					if err != nil {
						return err
					}
					input.CompanyID = companyID
				}
				if input.JobTitle == "" {
					title, err := app.Prompt.Input("Job title", "")
					if err != nil {
						return requiredFlag("title", err)
					}
					input.JobTitle = title
				}

				application, err := app.Client.CreateApplication(ctx, input)
				if err != nil {
					return fmt.Errorf("failed to add application: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Added %s (%s), status %s\n", application.JobTitle, application.ID, application.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.CompanyID, "company", "", "Company ID (will prompt if not provided)")
	cmd.Flags().StringVar(&input.JobTitle, "title", "", "Job title")
	cmd.Flags().StringVar(&input.Status, "status", "", "Status (default \"To Apply\")")
	cmd.Flags().StringVar(&date, "date", "", "Application date, YYYY-MM-DD")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&input.JobURL, "url", "", "Job posting URL")

	return cmd
}

// pickCompany asks the user to choose one of their companies
func (a *App) pickCompany(ctx context.Context) (string, error) {
	companies, err := a.Client.ListCompanies(ctx)
	if err != nil {
		return "", err
	}
	if len(companies) == 0 {
		return "", fmt.Errorf("no companies yet, add one with: jobtrack company add --name <name>")
	}

	labels := make([]string, len(companies))
	for i, company := range companies {
		labels[i] = fmt.Sprintf("%s (%s)", company.Name, company.ID)
	}
	index, err := a.Prompt.Select("Select a company", labels)
	if err != nil {
		return "", requiredFlag("company", err)
	}
	return companies[index].ID, nil
}

func newApplicationEditCmd(app *App) *cobra.Command {
	var title, status, date, notes, jobURL string

	cmd := &cobra.Command{
		Use:   "edit <application-id>",
		Short: "Change a job application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update client.ApplicationUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.JobTitle = &title
			}
			if flags.Changed("status") {
				update.Status = &status
			}
			if flags.Changed("notes") {
				update.Notes = &notes
			}
			if flags.Changed("url") {
				update.JobURL = &jobURL
			}
			if flags.Changed("date") {
				parsed, err := parseDate(date)
				if err != nil {
					return err
				}
				update.ApplicationDate = parsed
			}
			if update == (client.ApplicationUpdate{}) {
				return errNothingToUpdate
			}

			return app.view(cmd, "app edit", guard.Standard, func(ctx context.Context) error {
				application, err := app.Client.UpdateApplication(ctx, args[0], update)
				if err != nil {
					return fmt.Errorf("failed to update application: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Updated %s (%s), status %s\n", application.JobTitle, application.ID, application.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Job title")
	cmd.Flags().StringVar(&status, "status", "", fmt.Sprintf("Status, e.g. %q", applicationStatuses))
	cmd.Flags().StringVar(&date, "date", "", "Application date, YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&jobURL, "url", "", "Job posting URL")

	return cmd
}

func newApplicationRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <application-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a job application",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "app rm", guard.Standard, func(ctx context.Context) error {
				if err := confirm(app.Prompt, yes, fmt.Sprintf("Delete application %s", args[0])); err != nil {
					return err
				}
				if err := app.Client.DeleteApplication(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete application: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Deleted application %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func parseDate(value string) (*time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return &parsed, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
