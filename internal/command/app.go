package command

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madokanomi/publimatch-cli/internal/api"
	"github.com/madokanomi/publimatch-cli/internal/config"
	"github.com/madokanomi/publimatch-cli/internal/logging"
	"github.com/madokanomi/publimatch-cli/internal/session"
)

// App bundles the shared resources a command needs. The API client is
// authenticated when a principal is loaded, anonymous otherwise.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	API      *api.Client
	Session  *session.Store
	JSONMode bool
}

// loadApp resolves config, logging, the API client and the session store
// for a command invocation.
func loadApp(cmd *cobra.Command) (*App, error) {
	stateDir, _ := cmd.Flags().GetString("state-dir")
	jsonMode, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")

	if stateDir == "" {
		var err error
		stateDir, err = config.DefaultStateDir()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(stateDir)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}

	logger, err := logging.New(cfg.StateDir, cfg.Debug)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.BaseURL, "")
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(session.Options{
		Dir:    cfg.StateDir,
		Auth:   client,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		API:      client,
		Session:  store,
		JSONMode: jsonMode,
	}
	if p := store.Principal(); p != nil {
		app.API = client.WithToken(p.Token)
	}
	return app, nil
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.Logger.Sync()
}
