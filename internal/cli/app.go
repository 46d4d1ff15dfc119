package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/config"
	"github.com/estoreapp/estore-cli/internal/engine"
	"github.com/estoreapp/estore-cli/internal/logging"
)

// App bundles the dependencies one command invocation needs: resolved
// configuration, the RPC client, and the synchronization engine on top.
type App struct {
	Config *config.Config
	Client api.Client
	Engine *engine.Engine
}

// newApp resolves configuration (flag > env > file > default) and wires
// the client and engine for one command run.
func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if ttl, _ := cmd.Flags().GetInt("cache-ttl"); ttl > 0 {
		cfg.Cache.TTLSeconds = ttl
	}

	var tokens api.TokenStore
	tokenPath, err := config.TokenPath()
	if err != nil {
		// No resolvable home directory: the session just won't outlive
		// this invocation.
		logger.Warn().Err(err).Msg("no config directory, session token held in memory only")
		tokens = api.NewMemoryTokenStore()
	} else {
		tokens = api.NewFileTokenStore(tokenPath)
	}

	base := logging.FromContext(cmd.Context())
	client, err := api.NewHTTPClient(api.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Timeout(),
		Tokens:  tokens,
		Logger:  logging.ComponentLogger(*base, "api"),
	})
	if err != nil {
		return nil, fmt.Errorf("configuring backend client: %w", err)
	}

	eng := engine.New(engine.Options{
		Client:     client,
		ProductTTL: cfg.CacheTTL(),
		Logger:     logging.ComponentLogger(*base, "engine"),
	})

	return &App{Config: cfg, Client: client, Engine: eng}, nil
}

// outputFormat resolves the rendering format from the --output flag,
// falling back to the configured default.
func (a *App) outputFormat(cmd *cobra.Command) string {
	if format, _ := cmd.Flags().GetString("output"); format != "" {
		return format
	}
	return a.Config.Output.DefaultFormat
}
