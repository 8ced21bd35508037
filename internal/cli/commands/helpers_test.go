package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
	"github.com/jobtrack-dev/jobtrack/internal/cli/userconfig"
	"github.com/jobtrack-dev/jobtrack/internal/config"
	"github.com/jobtrack-dev/jobtrack/internal/revocation"
	"github.com/jobtrack-dev/jobtrack/internal/server"
)

// fakePrompter answers from queues and behaves like a closed stdin when a queue is empty
type fakePrompter struct {
	inputs    []string
	passwords []string
	selects   []int
	confirms  []bool
}

func (p *fakePrompter) Input(label, defaultValue string) (string, error) {
	if len(p.inputs) == 0 {
		return "", ErrNonInteractive
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	return v, nil
}

func (p *fakePrompter) Password(label string) (string, error) {
	if len(p.passwords) == 0 {
		return "", ErrNonInteractive
	}
	v := p.passwords[0]
	p.passwords = p.passwords[1:]
	return v, nil
}

func (p *fakePrompter) Select(label string, items []string) (int, error) {
	if len(p.selects) == 0 {
		return 0, ErrNonInteractive
	}
	v := p.selects[0]
	p.selects = p.selects[1:]
	return v, nil
}

func (p *fakePrompter) Confirm(label string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, ErrNonInteractive
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

type harness struct {
	t       *testing.T
	app     *App
	prompt  *fakePrompter
	storage *session.MemoryStorage
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	url     string
}

// startServer runs the API against an in-memory database
func startServer(t *testing.T) string {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := &config.Config{Auth: config.AuthConfig{TokenTTL: time.Hour}}
	srv, err := server.NewWithDeps(cfg, zerolog.Nop(), "test", db, revocation.NewGormStore(db))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessFor(t, startServer(t))
}

// newHarnessFor creates a CLI user against an existing server
func newHarnessFor(t *testing.T, url string) *harness {
	t.Helper()
	t.Setenv("JOBTRACK_USERNAME", "")
	t.Setenv("JOBTRACK_PASSWORD", "")

	h := &harness{
		t:       t,
		prompt:  &fakePrompter{},
		storage: session.NewMemoryStorage(),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		url:     url,
	}
	h.app = &App{Out: h.out, Err: h.errOut, Prompt: h.prompt, Logger: zerolog.Nop()}

	cfg := &userconfig.UserConfig{ServerURL: url, SessionStorage: userconfig.StorageFile}
	require.NoError(t, h.app.Setup(cfg, h.storage))
	return h
}

// run executes one CLI invocation and returns its stdout
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()

	root := &cobra.Command{Use: "jobtrack", SilenceUsage: true, SilenceErrors: true}
	AddCommands(root, h.app)
	root.SetArgs(args)
	root.SetOut(h.out)
	root.SetErr(h.errOut)

	err := root.ExecuteContext(context.Background())
	h.app.Wait()
	return h.out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "stderr: %s", h.errOut.String())
	return out
}

// signup registers username and logs in with it
func (h *harness) signup(username string) {
	h.t.Helper()
	h.mustRun("register", "--username", username, "--email", username+"@example.com", "--password", "password123")
	h.mustRun("login", "--username", username, "--password", "password123")
}
