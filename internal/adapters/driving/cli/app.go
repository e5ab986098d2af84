package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/inboxwatch/internal/adapters/driving/oauth"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driving"
)

// App holds the services commands run against.
type App struct {
	Config        *file.Config
	Credentials   driving.CredentialsService
	Subscriptions driving.SubscriptionService
	Server        *oauth.Server
	// Outcomes receives the result of each completed callback.
	Outcomes <-chan error
	// Close releases stores and connections.
	Close func() error
}

// BootstrapFunc builds the App from validated configuration.
type BootstrapFunc func(cfg *file.Config) (*App, error)

var bootstrap BootstrapFunc

// SetBootstrap registers the composition root.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// loadApp loads and validates configuration, then builds the App.
// The caller must call closeApp.
func loadApp(_ *cobra.Command) (*App, error) {
	if bootstrap == nil {
		return nil, errNoBootstrap
	}

	cfg, err := file.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return bootstrap(cfg)
}

func closeApp(app *App) {
	if app != nil && app.Close != nil {
		_ = app.Close()
	}
}
