package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/client"
	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
)

// NewContactCmd creates the contact command group
func NewContactCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage company contacts",
	}

	cmd.AddCommand(
		newContactAddCmd(app),
		newContactEditCmd(app),
		newContactRemoveCmd(app),
	)
	return cmd
}

func newContactAddCmd(app *App) *cobra.Command {
	var input client.ContactInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact to a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "contact add", guard.Standard, func(ctx context.Context) error {
				if input.CompanyID == "" {
					companyID, err := app.pickCompany(ctx)
					if err != nil {
						return err
					}
					input.CompanyID = companyID
				}
				if input.Name == "" {
					name, err := app.Prompt.Input("Contact name", "")
					if err != nil {
						return requiredFlag("name", err)
					}
					input.Name = name
				}

				contact, err := app.Client.CreateContact(ctx, input)
				if err != nil {
					return fmt.Errorf("failed to add contact: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Added %s (%s)\n", contact.Name, contact.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.CompanyID, "company", "", "Company ID (will prompt if not provided)")
	cmd.Flags().StringVar(&input.Name, "name", "", "Contact name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "Phone number")

	return cmd
}

func newContactEditCmd(app *App) *cobra.Command {
	var name, email, phone string

	cmd := &cobra.Command{
		Use:   "edit <contact-id>",
		Short: "Change a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update client.ContactUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("phone") {
				update.Phone = &phone
			}
			if update == (client.ContactUpdate{}) {
				return errNothingToUpdate
			}

			return app.view(cmd, "contact edit", guard.Standard, func(ctx context.Context) error {
				contact, err := app.Client.UpdateContact(ctx, args[0], update)
				if err != nil {
					return fmt.Errorf("failed to update contact: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Updated %s (%s)\n", contact.Name, contact.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Contact name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")

	return cmd
}

func newContactRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <contact-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "contact rm", guard.Standard, func(ctx context.Context) error {
				if err := confirm(app.Prompt, yes, fmt.Sprintf("Delete contact %s", args[0])); err != nil {
					return err
				}
				if err := app.Client.DeleteContact(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete contact: %w", err)
				}
				fmt.Fprintf(app.Out, "✓ Deleted contact %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}
