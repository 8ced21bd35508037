// Package router dispatches CLI views through the access guard.
//
// Every navigation re-reads the current session, so a login or logout that
// happened in between is always observed. A redirect replaces the requested
// view: history only records views that actually rendered.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jobtrack-dev/jobtrack/internal/cli/guard"
	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

const (
	LoginView = "login"
	HomeView  = "home"

	defaultMaxRedirects = 4
)

var (
	ErrUnknownView   = errors.New("unknown view")
	ErrRedirectLoop  = errors.New("too many redirects")
	ErrNilView       = errors.New("view has no handler")
	ErrDuplicateView = errors.New("view already registered")
)

// SessionSource supplies the session snapshot the guard is evaluated against.
type SessionSource interface {
	Current() session.Session
}

// View renders one screen of the CLI.
type View func(ctx context.Context) error

// Route binds a view to its access level.
type Route struct {
	Name  string
	Level guard.Level
	View  View
}

// RedirectFunc observes redirects, e.g. to explain them to the user.
type RedirectFunc func(from, to string, outcome guard.Outcome)

type Router struct {
	source       SessionSource
	logger       zerolog.Logger
	maxRedirects int

	mu         sync.Mutex
	routes     map[string]Route
	history    []string
	onRedirect RedirectFunc
}

func New(source SessionSource, logger zerolog.Logger) *Router {
	return &Router{
		source:       source,
		logger:       logger,
		maxRedirects: defaultMaxRedirects,
		routes:       make(map[string]Route),
	}
}

// Register adds a named view. The login and home views must be registered
// for redirects to resolve.
func (r *Router) Register(route Route) error {
	if route.View == nil {
		return fmt.Errorf("%w: %s", ErrNilView, route.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[route.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateView, route.Name)
	}
	r.routes[route.Name] = route
	return nil
}

func (r *Router) OnRedirect(fn RedirectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRedirect = fn
}

// History returns the names of rendered views, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Navigate renders the registered view called name.
func (r *Router) Navigate(ctx context.Context, name string) error {
	route, ok := r.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return r.Visit(ctx, route)
}

// Visit renders an unregistered route, for commands that carry their own
// arguments. Redirects still resolve to registered views.
func (r *Router) Visit(ctx context.Context, route Route) error {
	if route.View == nil {
		return fmt.Errorf("%w: %s", ErrNilView, route.Name)
	}

	target, err := r.resolve(route)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.history = append(r.history, target.Name)
	r.mu.Unlock()

	viewErr := target.View(ctx)
	if viewErr == nil {
		return nil
	}

	// A view can lose its session mid-flight when the server rejects the token.
	if guard.Evaluate(target.Level, r.source.Current()) != guard.RedirectToLogin {
		return viewErr
	}
	login, ok := r.lookup(LoginView)
	if !ok || target.Name == LoginView {
		return viewErr
	}

	r.replaceLast(LoginView)
	r.redirected(target.Name, LoginView, guard.RedirectToLogin)
	if err := login.View(ctx); err != nil {
		return errors.Join(viewErr, err)
	}
	return viewErr
}

// resolve follows guard redirects until a view may render.
func (r *Router) resolve(route Route) (Route, error) {
	target := route
	for redirects := 0; ; redirects++ {
		outcome := guard.Evaluate(target.Level, r.source.Current())
		if outcome == guard.Render {
			return target, nil
		}
		if redirects >= r.maxRedirects {
			return Route{}, fmt.Errorf("%w: from %s", ErrRedirectLoop, route.Name)
		}

		next := LoginView
		if outcome == guard.RedirectToHome {
			next = HomeView
		}
		nextRoute, ok := r.lookup(next)
		if !ok {
			return Route{}, fmt.Errorf("%w: %s", ErrUnknownView, next)
		}

		r.logger.Debug().
			Str("from", target.Name).
			Str("to", next).
			Stringer("outcome", outcome).
			Msg("Redirecting")
		r.redirected(target.Name, next, outcome)
		target = nextRoute
	}
}

func (r *Router) lookup(name string) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[name]
	return route, ok
}

func (r *Router) replaceLast(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		r.history = append(r.history, name)
		return
	}
	r.history[len(r.history)-1] = name
}

func (r *Router) redirected(from, to string, outcome guard.Outcome) {
	r.mu.Lock()
	fn := r.onRedirect
	r.mu.Unlock()
	if fn != nil {
		fn(from, to, outcome)
	}
}
