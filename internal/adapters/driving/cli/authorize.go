package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inboxwatch/internal/adapters/driving/oauth"
)

// Flags for authorize.
var (
	authorizeNoBrowser bool
	authorizeTimeout   time.Duration
	authorizeScopes    []string
)

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Authorize a Gmail account from this machine",
	Long: `Start the authorization server, open the consent page in a browser and
wait for one callback to complete.

The configured public URL must point at this machine, and its callback URL
must be registered with the OAuth client.`,
	Args: cobra.NoArgs,
	RunE: runAuthorize,
}

func init() {
	authorizeCmd.Flags().BoolVar(
		&authorizeNoBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	authorizeCmd.Flags().DurationVar(
		&authorizeTimeout, "timeout", 5*time.Minute, "How long to wait for the callback")
	authorizeCmd.Flags().StringSliceVar(
		&authorizeScopes, "scope", nil, "Scopes to request instead of the configured defaults")
	rootCmd.AddCommand(authorizeCmd)
}

func runAuthorize(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	return authorize(commandContext(cmd), cmd, app)
}

func authorize(ctx context.Context, cmd *cobra.Command, app *App) error {
	if app.Outcomes == nil {
		return errors.New("authorization outcomes not wired")
	}

	if err := app.Server.Start(); err != nil {
		return err
	}
	defer app.Server.Stop()

	initURL := consentStartURL(app.Config.Server.PublicURL, authorizeScopes)
	if authorizeNoBrowser {
		cmd.Printf("Open this URL to authorize:\n  %s\n", initURL)
	} else {
		cmd.Printf("Opening browser for authorization...\n")
		if err := openBrowser(initURL); err != nil {
			cmd.Printf("Could not open browser: %v\nOpen this URL to authorize:\n  %s\n", err, initURL)
		}
	}

	cmd.Printf("Waiting for authorization (timeout %s)...\n", authorizeTimeout)

	timer := time.NewTimer(authorizeTimeout)
	defer timer.Stop()

	select {
	case err := <-app.Outcomes:
		if err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
		cmd.Println(oauth.SuccessMessage)
		return nil
	case <-timer.C:
		return errors.New("timeout waiting for authorization callback")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func consentStartURL(publicURL string, scopes []string) string {
	u := strings.TrimSuffix(publicURL, "/") + oauth.InitPath
	if len(scopes) == 0 {
		return u
	}
	q := url.Values{}
	for _, s := range scopes {
		q.Add("scope", s)
	}
	return u + "?" + q.Encode()
}
