package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

var watchIdentity string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Establish or renew inbox watches",
	Long: `Register the inbox watch for stored accounts.

Gmail watches expire after seven days; run this at least daily to keep
notifications flowing. Access tokens are refreshed and saved as needed.

Examples:
  inboxwatch watch
  inboxwatch watch --identity alice@example.com`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchIdentity, "identity", "", "Only renew the watch for this account")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	return renewWatches(commandContext(cmd), cmd, app, watchIdentity)
}

func renewWatches(ctx context.Context, cmd *cobra.Command, app *App, identity string) error {
	var targets []domain.Credentials
	if identity != "" {
		creds, err := app.Credentials.Get(ctx, identity)
		if err != nil {
			return fmt.Errorf("loading credentials for %s: %w", identity, err)
		}
		targets = append(targets, *creds)
	} else {
		all, err := app.Credentials.List(ctx)
		if err != nil {
			return err
		}
		targets = all
	}

	if len(targets) == 0 {
		cmd.Println("No authorized accounts. Run 'inboxwatch authorize' first.")
		return nil
	}

	topic := app.Config.Topic()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tSTATUS\tHISTORY\tEXPIRES")

	var failed int
	for i := range targets {
		creds := &targets[i]
		sub, err := app.Subscriptions.Establish(ctx, creds, topic)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(w, "%s\t%s\t-\t-\n", creds.Identity, failureStatus(err))
		case sub.AlreadyActive:
			fmt.Fprintf(w, "%s\talready active\t-\t-\n", creds.Identity)
		default:
			fmt.Fprintf(w, "%s\twatching\t%d\t%s\n", creds.Identity, sub.HistoryID, sub.Expiration.Format("2006-01-02 15:04"))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d watches failed", failed, len(targets))
	}
	return nil
}

// failureStatus describes a failed watch, pointing at the likely remedy.
func failureStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenRefreshFailed), google.IsUnauthorized(err):
		return fmt.Sprintf("reauthorize: %v", err)
	case google.IsForbidden(err):
		return fmt.Sprintf("topic not publishable: %v", err)
	default:
		return fmt.Sprintf("failed: %v", err)
	}
}
