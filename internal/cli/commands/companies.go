package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jobtrack-dev/jobtrack/internal/cli/client"
	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
	"github.com/jobtrack-dev/jobtrack/internal/cli/router"
)

const dateLayout = "2006-01-02"

// NewHomeCmd creates the home command, the landing view listing companies
func NewHomeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "home",
		Aliases: []string{"companies"},
		Short:   "List your companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Router.Navigate(cmd.Context(), router.HomeView)
		},
	}
}

func (a *App) home(ctx context.Context) error {
	companies, err := a.Client.ListCompanies(ctx)
	if err != nil {
		return err
	}

	if len(companies) == 0 {
		fmt.Fprintln(a.Out, "No companies yet.")
		fmt.Fprintln(a.Out, "\nAdd one with: jobtrack company add --name <name>")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tWEBSITE\tADDED")
	fmt.Fprintln(w, "──\t────\t───────\t─────")
	for _, company := range companies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			company.ID,
			company.Name,
			company.WebsiteURL,
			company.CreatedAt.Format(dateLayout),
		)
	}
	return w.Flush()
}

// NewCompanyCmd creates the company command group
func NewCompanyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies",
	}

	cmd.AddCommand(
		newCompanyShowCmd(app),
		newCompanyAddCmd(app),
		newCompanyEditCmd(app),
		newCompanyRemoveCmd(app),
	)
	return cmd
}

func newCompanyShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <company-id>",
		Short: "Show a company with its applications and contacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "company show", guard.Standard, func(ctx context.Context) error {
				return app.showCompany(ctx, args[0])
			})
		},
	}
}

func (a *App) showCompany(ctx context.Context, id string) error {
	var (
		company      *client.Company
		applications []client.Application
		contacts     []client.Contact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		company, err = a.Client.GetCompany(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		applications, err = a.Client.ListCompanyApplications(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = a.Client.ListCompanyContacts(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "%s (%s)\n", company.Name, company.ID)
	if company.Address != "" {
		fmt.Fprintf(a.Out, "  Address: %s\n", company.Address)
	}
	if company.WebsiteURL != "" {
		fmt.Fprintf(a.Out, "  Website: %s\n", company.WebsiteURL)
	}

	fmt.Fprintln(a.Out, "\nApplications:")
	if len(applications) == 0 {
		fmt.Fprintln(a.Out, "  none")
	} else {
		w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tTITLE\tSTATUS\tAPPLIED")
		for _, application := range applications {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", application.ID, application.JobTitle, application.Status, formatDate(application.ApplicationDate))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.Out, "\nContacts:")
	if len(contacts) == 0 {
		fmt.Fprintln(a.Out, "  none")
		return nil
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tEMAIL\tPHONE")
	for _, contact := range contacts {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", contact.ID, contact.Name, contact.Email, contact.Phone)
	}
	return w.Flush()
}

func newCompanyAddCmd(app *App) *cobra.Command {
	var input client.CompanyInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "company add", guard.Standard, func(ctx context.Context) error {
				if input.Name == "" {
					name, err := app.Prompt.Input("Company name", "")
					if err != nil {
						return requiredFlag("name", err)
					}
					input.Name = name
				}

				company, err := app.Client.CreateCompany(ctx, input)
				if err != nil {
					return fmt.Errorf("failed to add company: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Added %s (%s)\n", company.Name, company.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Company name")
	cmd.Flags().StringVar(&input.Address, "address", "", "Address")
	cmd.Flags().StringVar(&input.WebsiteURL, "website", "", "Website URL")

	return cmd
}

func newCompanyEditCmd(app *App) *cobra.Command {
	var name, address, website string

	cmd := &cobra.Command{
		Use:   "edit <company-id>",
		Short: "Change a company's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update client.CompanyUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("address") {
				update.Address = &address
			}
			if flags.Changed("website") {
				update.WebsiteURL = &website
			}
			if update == (client.CompanyUpdate{}) {
				return errNothingToUpdate
			}

			return app.view(cmd, "company edit", guard.Standard, func(ctx context.Context) error {
				company, err := app.Client.UpdateCompany(ctx, args[0], update)
				if err != nil {
					return fmt.Errorf("failed to update company: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Updated %s (%s)\n", company.Name, company.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Company name")
	cmd.Flags().StringVar(&address, "address", "", "Address")
	cmd.Flags().StringVar(&website, "website", "", "Website URL")

	return cmd
}

func newCompanyRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <company-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a company with its applications and contacts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "company rm", guard.Standard, func(ctx context.Context) error {
				if err := confirm(app.Prompt, yes, fmt.Sprintf("Delete company %s and everything attached to it", args[0])); err != nil {
					return err
				}
				if err := app.Client.DeleteCompany(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete company: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Deleted company %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

var errNothingToUpdate = errors.New("nothing to update: pass at least one field flag")
