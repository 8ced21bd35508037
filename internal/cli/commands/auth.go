package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/client"
	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
	"github.com/jobtrack-dev/jobtrack/internal/cli/router"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the jobtrack server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, router.LoginView, guard.Public, func(ctx context.Context) error {
				return app.login(ctx, username, password)
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set JOBTRACK_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set JOBTRACK_PASSWORD, will prompt if not provided)")

	return cmd
}

func (a *App) login(ctx context.Context, username, password string) error {
	if username == "" {
		username = os.Getenv("JOBTRACK_USERNAME")
	}
	if password == "" {
		password = os.Getenv("JOBTRACK_PASSWORD")
	}

	var err error
	if username == "" {
		username, err = a.Prompt.Input("Username", "")
		if errors.Is(err, ErrNonInteractive) {
			return errors.New("username is required (use 'jobtrack login --username' or JOBTRACK_USERNAME)")
		}
		if err != nil {
			return err
		}
	}
	if password == "" {
		password, err = a.Prompt.Password("Password")
		if errors.Is(err, ErrNonInteractive) {
			return errors.New("password is required in non-interactive mode (use --password or JOBTRACK_PASSWORD)")
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(a.Out, "Logging in to %s...\n", a.Client.BaseURL())

	loginResp, err := a.Client.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := a.Store.Login(loginResp.Token, loginResp.Username, loginResp.IsAdmin); err != nil {
		fmt.Fprintf(a.Err, "Warning: session could not be saved and ends with this command: %v\n", err)
	}

	fmt.Fprintln(a.Out, "✓ Login successful!")
	fmt.Fprintf(a.Out, "  User: %s\n", loginResp.Username)
	if loginResp.IsAdmin {
		fmt.Fprintln(a.Out, "  Role: Admin")
	}
	return nil
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(app *App) *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "register", guard.Public, func(ctx context.Context) error {
				return app.register(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (will prompt if not provided)")

	return cmd
}

func (a *App) register(ctx context.Context, req client.RegisterRequest) error {
	var err error
	if req.Username == "" {
		if req.Username, err = a.Prompt.Input("Username", ""); err != nil {
			return requiredFlag("username", err)
		}
	}
	if req.Email == "" {
		if req.Email, err = a.Prompt.Input("Email", ""); err != nil {
			return requiredFlag("email", err)
		}
	}
	if req.Password == "" {
		if req.Password, err = a.Prompt.Password("Password"); err != nil {
			return requiredFlag("password", err)
		}
	}

	user, err := a.Client.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ Account %s created.\n", user.Username)
	if user.IsAdmin {
		fmt.Fprintln(a.Out, "  Role: Admin")
	}
	fmt.Fprintln(a.Out, "\nLog in with: jobtrack login --username", user.Username)
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "logout", guard.Public, func(ctx context.Context) error {
				wasLoggedIn := app.Store.Current().LoggedIn()
				if err := app.Store.Logout(ctx); err != nil {
					fmt.Fprintf(app.Err, "Warning: failed to remove saved session: %v\n", err)
				}
				if wasLoggedIn {
					fmt.Fprintln(app.Out, "✓ Logged out.")
				} else {
					fmt.Fprintln(app.Out, "Not logged in.")
				}
				return nil
			})
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(app *App) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.view(cmd, "whoami", guard.Public, func(ctx context.Context) error {
				return app.whoami(ctx, verify)
			})
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check the session with the server")

	return cmd
}

func (a *App) whoami(ctx context.Context, verify bool) error {
	current := a.Store.Current()
	if !current.LoggedIn() {
		fmt.Fprintln(a.Out, "Not logged in.")
		return nil
	}

	if verify {
		user, err := a.Client.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s <%s>\n", user.Username, user.Email)
		fmt.Fprintf(a.Out, "  Role: %s\n", role(user.IsAdmin))
		fmt.Fprintf(a.Out, "  Server: %s\n", a.Client.BaseURL())
		return nil
	}

	fmt.Fprintln(a.Out, current.Username)
	fmt.Fprintf(a.Out, "  Role: %s\n", role(current.IsAdmin))
	fmt.Fprintf(a.Out, "  Server: %s\n", a.Client.BaseURL())
	return nil
}

func role(isAdmin bool) string {
	if isAdmin {
		return "Admin"
	}
	return "User"
}

func requiredFlag(name string, err error) error {
	if errors.Is(err, ErrNonInteractive) {
		return fmt.Errorf("%s is required (use --%s)", name, name)
	}
	return err
}
