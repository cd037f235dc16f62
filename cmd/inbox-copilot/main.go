// Command inbox-copilot is the terminal client for the Inbox Copilot
// backend. Without arguments it starts the interactive dashboard; the
// subcommands expose the same operations for scripting.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/api"
	"github.com/nhle/inbox-copilot/internal/app"
	"github.com/nhle/inbox-copilot/internal/auth"
	"github.com/nhle/inbox-copilot/internal/credential"
	"github.com/nhle/inbox-copilot/internal/inbox"
	"github.com/nhle/inbox-copilot/internal/logging"
	"github.com/nhle/inbox-copilot/internal/metrics"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/output"
	"github.com/nhle/inbox-copilot/internal/store"
	appsync "github.com/nhle/inbox-copilot/internal/sync"
)

func main() {
	root, c := newRootCmd()
	os.Exit(run(root, c, os.Args[1:]))
}

// run executes the command line and always releases what setup opened,
// including when the command fails.
func run(root *cobra.Command, c *cli, args []string) int {
	defer c.teardown()

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error: "+describeError(err))
		return 1
	}
	return 0
}

// describeError adds a next step to the failures a user can act on.
func describeError(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return err.Error() + "\nYour session was rejected; run `inbox-copilot login`."
	case api.IsTransport(err):
		return err.Error() + "\nCheck that the backend is reachable (api.base_url)."
	case api.IsEnvelope(err):
		return "the backend could not complete the request: " + err.Error()
	}
	return err.Error()
}

// cli holds the flags and the services built from them.
type cli struct {
	configPath   string
	outputFormat string
	metricsAddr  string
	ephemeral    bool

	cfg     *model.AppConfig
	logger  *zap.Logger
	printer *output.Printer
	auth    *auth.Service
	inbox   *inbox.Service
	store   *store.SQLiteStore

	stopMetrics context.CancelFunc
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "inbox-copilot",
		Short:         "Triage student email from the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.runTUI()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", model.DefaultConfigPath(), "path to config.yaml")
	flags.StringVarP(&c.outputFormat, "output", "o", "table", "output format: table, json or yaml")
	flags.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flags.BoolVar(&c.ephemeral, "ephemeral-session", false, "keep the session in memory instead of the OS keyring")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.emailsCmd(),
		c.showCmd(),
		c.readCmd(),
		c.searchCmd(),
		c.digestCmd(),
		c.replyCmd(),
		c.classifyCmd(),
		c.syncCmd(),
		c.statsCmd(),
		c.categoriesCmd(),
		c.configCmd(),
	)
	return root, c
}

// setup loads config and wires the services every command shares.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := model.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	format, err := output.ParseFormat(c.outputFormat)
	if err != nil {
		return err
	}
	c.printer = output.New(cmd.OutOrStdout(), format)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	c.logger = logger

	var sessions auth.SessionStore = credential.NewKeyringStore(cfg.Keyring)
	if c.ephemeral {
		sessions = credential.NewMemoryStore()
	}

	client := api.NewClient(cfg.API.BaseURL,
		api.WithTokenSource(auth.TokenSource{Store: sessions}),
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
		api.WithMaxRetries(cfg.API.MaxRetries),
		api.WithLogger(logger),
	)
	c.auth = auth.NewService(sessions, client, logger)
	c.inbox = inbox.NewService(client, logger)

	addr := c.metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		c.stopMetrics = cancel
		go func() {
			if err := metrics.Serve(ctx, addr, logger); err != nil {
				logger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	logger.Debug("starting", zap.String("command", cmd.Name()), zap.String("base_url", cfg.API.BaseURL))
	return nil
}

func (c *cli) teardown() {
	if c.stopMetrics != nil {
		c.stopMetrics()
		c.stopMetrics = nil
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil && c.logger != nil {
			c.logger.Warn("closing store", zap.Error(err))
		}
		c.store = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// openStore opens the local database on first use.
func (c *cli) openStore() (*store.SQLiteStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	dir := filepath.Dir(c.cfg.Storage.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	s, err := store.NewSQLiteStore(c.cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// requireSession fails fast when there is no stored token.
func (c *cli) requireSession() error {
	if c.auth.IsAuthenticated() {
		return nil
	}
	return fmt.Errorf("%w: run `inbox-copilot login` first", auth.ErrNotAuthenticated)
}

func (c *cli) runTUI() error {
	s, err := c.openStore()
	if err != nil {
		return err
	}

	interval := time.Duration(c.cfg.Display.PollIntervalSec) * time.Second
	poller := appsync.New(c.inbox, interval, c.logger)
	defer poller.Stop()

	m := app.New(app.Deps{
		Inbox:    c.inbox,
		Auth:     c.auth,
		Store:    s,
		Poller:   poller,
		Logger:   c.logger,
		PageSize: c.cfg.Display.PageSize,
		DraftDir: filepath.Join(model.ConfigDir(), "drafts"),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
