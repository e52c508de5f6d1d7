package cli

import (
	"bufio"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/cache"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/session"
	"github.com/idilsaglam/tada/internal/store/jsonstore"
	"github.com/idilsaglam/tada/internal/ui"
)

type rootFlags struct {
	apiURL    string
	theme     string
	configDir string
	verbose   bool
}

// app holds what every command shares. It is filled in by setup, which
// runs before any command.
type app struct {
	opt   Options
	flags rootFlags
	now   func() time.Time

	cfg      config.Config
	log      *slog.Logger
	closeLog func() error

	client *api.Client // anonymous, for auth endpoints
	authed *api.Client // sends the session token
	sess   *session.Store
	todos  *cache.Cache

	lines *bufio.Scanner
}

func newApp(opt Options) *app {
	return &app{
		opt:      opt,
		now:      time.Now,
		log:      logging.Discard(),
		closeLog: func() error { return nil },
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Todo list client for the tada API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in, then open the interactive list
  todo login --email ada@example.com
  todo

  # Scriptable commands
  todo add "Buy milk" -d "oat, not soy"
  todo ls --filter active
  todo done 42
`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown command %q", args[0])
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.apiURL, "api-url", "", "API base URL (env TADA_API_URL)")
	pf.StringVar(&a.flags.theme, "theme", "", "output theme: classic, neon or mono (env TADA_THEME)")
	pf.StringVar(&a.flags.configDir, "config-dir", "", "config and session directory (env TADA_CONFIG_DIR, default ~/.tada)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(
		newUICmd(a),
		newSignupCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newForgotCmd(a),
		newResetCmd(a),
		newWhoamiCmd(a, "whoami"),
		newAuthCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newDoneCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newDuplicateCmd(a),
		newCopyCmd(a),
		newShowCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// setup resolves configuration and wires the client, session and cache.
func (a *app) setup() error {
	dir := a.flags.configDir
	if dir == "" {
		dir = a.opt.ConfigDir
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return usageError{err: err}
	}
	over := config.Config{APIURL: a.flags.apiURL, Theme: a.flags.theme}
	if a.flags.verbose {
		over.LogLevel = "debug"
	}
	cfg.Merge(over)
	a.cfg = cfg

	if err := ui.SetTheme(cfg.Theme); err != nil {
		return usageError{err: err}
	}

	logger, closeLog, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, Writer: a.opt.Stderr})
	if err != nil {
		return usageError{err: err}
	}
	a.log, a.closeLog = logger, closeLog

	a.client = api.New(cfg.APIURL, api.WithLogger(logger))
	a.sess = session.Open(
		jsonstore.New(cfg.Dir),
		a.client,
		session.WithLogger(logger),
		session.WithTokenOverride(cfg.Token),
	)
	a.authed = a.client.WithTokens(a.sess)
	a.todos = cache.New(a.authed, a.sess, cache.WithLogger(logger))
	a.log.Debug("configured", "api_url", cfg.APIURL, "dir", cfg.Dir, "token_present", a.sess.Authenticated())
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// server is called by every command that talks to the API.
func (a *app) server() error {
	if err := a.cfg.Validate(); err != nil {
		return usageError{err: err}
	}
	return nil
}

// signedIn is server plus a session check.
func (a *app) signedIn() error {
	if err := a.server(); err != nil {
		return err
	}
	if !a.sess.Authenticated() {
		return errNoSession
	}
	return nil
}
