// Package guard decides whether a view may be shown for a session.
package guard

import "github.com/jobtrack-dev/jobtrack/internal/cli/session"

// Outcome is the result of evaluating a guard.
type Outcome int

const (
	Render Outcome = iota
	RedirectToLogin
	RedirectToHome
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// State classifies a session for access decisions.
type State int

const (
	Unauthenticated State = iota
	Authenticated
	AuthenticatedAdmin
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case AuthenticatedAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Level is the access requirement attached to a view.
type Level int

const (
	Public Level = iota
	Standard
	Privileged
)

func (l Level) String() string {
	switch l {
	case Public:
		return "public"
	case Standard:
		return "standard"
	case Privileged:
		return "privileged"
	default:
		return "unknown"
	}
}

// Classify reports the access state of s. The admin flag is ignored without a token.
func Classify(s session.Session) State {
	switch {
	case !s.LoggedIn():
		return Unauthenticated
	case s.IsAdmin:
		return AuthenticatedAdmin
	default:
		return Authenticated
	}
}

// StandardGuard renders for any logged-in session.
func StandardGuard(s session.Session) Outcome {
	if Classify(s) == Unauthenticated {
		return RedirectToLogin
	}
	return Render
}

// PrivilegedGuard renders only for admins. Logged-in non-admins are sent home.
func PrivilegedGuard(s session.Session) Outcome {
	switch Classify(s) {
	case AuthenticatedAdmin:
		return Render
	case Authenticated:
		return RedirectToHome
	default:
		return RedirectToLogin
	}
}

// Evaluate applies the guard for level. Unknown levels are treated as Privileged.
func Evaluate(level Level, s session.Session) Outcome {
	switch level {
	case Public:
		return Render
	case Standard:
		return StandardGuard(s)
	default:
		return PrivilegedGuard(s)
	}
}
