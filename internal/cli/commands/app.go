package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jobtrack-dev/jobtrack/internal/cli/client"
	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
	"github.com/jobtrack-dev/jobtrack/internal/cli/router"
	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
	"github.com/jobtrack-dev/jobtrack/internal/cli/userconfig"
)

// App is the state shared by every command for one CLI invocation
type App struct {
	Out    io.Writer
	Err    io.Writer
	Prompt Prompter
	Logger zerolog.Logger

	Config *userconfig.UserConfig
	Store  *session.Store
	Client *client.Client
	Router *router.Router
}

// NewApp returns an App writing to stdout/stderr with interactive prompts.
// Call Setup before running views.
func NewApp(logger zerolog.Logger) *App {
	return &App{
		Out:    os.Stdout,
		Err:    os.Stderr,
		Prompt: NewTerminalPrompter(),
		Logger: logger,
	}
}

// Setup rehydrates the session from storage and wires the client and router
func (a *App) Setup(cfg *userconfig.UserConfig, storage session.Storage) error {
	a.Config = cfg
	a.Store = session.NewStore(storage, a.Logger)
	if err := a.Store.Initialize(); err != nil {
		// Unreadable storage means logged out, not a failed command
		a.Logger.Warn().Err(err).Msg("Failed to restore session")
	}

	a.Client = client.New(cfg.ServerURL, a.Store, a.Logger)
	a.Store.SetNotifier(a.Client)

	a.Router = router.New(a.Store, a.Logger)
	a.Router.OnRedirect(a.explainRedirect)
	if err := a.Router.Register(router.Route{Name: router.LoginView, Level: guard.Public, View: func(ctx context.Context) error {
		return a.login(ctx, "", "")
	}}); err != nil {
		return err
	}
	return a.Router.Register(router.Route{Name: router.HomeView, Level: guard.Standard, View: a.home})
}

// Wait blocks until background work such as logout notification has finished
func (a *App) Wait() {
	if a.Store != nil {
		a.Store.Wait()
	}
}

func (a *App) explainRedirect(from, to string, outcome guard.Outcome) {
	switch outcome {
	case guard.RedirectToLogin:
		fmt.Fprintf(a.Err, "You need to log in to use '%s'.\n", from)
	case guard.RedirectToHome:
		fmt.Fprintf(a.Err, "'%s' requires an admin account. Showing home instead.\n", from)
	}
}

// view renders fn through the router under the given access level
func (a *App) view(cmd *cobra.Command, name string, level guard.Level, fn router.View) error {
	return a.Router.Visit(cmd.Context(), router.Route{Name: name, Level: level, View: fn})
}

// AddCommands attaches every view command to root
func AddCommands(root *cobra.Command, app *App) {
	root.AddCommand(NewLoginCmd(app))
	root.AddCommand(NewRegisterCmd(app))
	root.AddCommand(NewLogoutCmd(app))
	root.AddCommand(NewWhoamiCmd(app))
	root.AddCommand(NewHomeCmd(app))
	root.AddCommand(NewCompanyCmd(app))
	root.AddCommand(NewApplicationCmd(app))
	root.AddCommand(NewContactCmd(app))
	root.AddCommand(NewAdminCmd(app))
	root.AddCommand(NewConfigCmd(app))
}
