package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage stored account credentials",
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authorized accounts",
	Args:  cobra.NoArgs,
	RunE:  runCredentialsList,
}

var credentialsRevokeCmd = &cobra.Command{
	Use:   "revoke [identity]",
	Short: "Delete the stored credentials for an account",
	Long: `Delete the stored credentials for an account.

This does not revoke the grant at Google; remove the app from the account's
security settings to do that.`,
	Args: cobra.ExactArgs(1),
	RunE: runCredentialsRevoke,
}

func init() {
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsRevokeCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func runCredentialsList(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	all, err := app.Credentials.List(commandContext(cmd))
	if err != nil {
		return err
	}
	if len(all) == 0 {
		cmd.Println("No authorized accounts.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tID\tSCOPES\tTOKEN\tUPDATED")
	for i := range all {
		c := &all[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			c.Identity, c.ID, len(c.Scopes), tokenStatus(c), c.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// tokenStatus summarises whether c can still act for its account.
func tokenStatus(c *domain.Credentials) string {
	switch {
	case !c.IsAuthenticated() && !c.HasRefreshToken():
		return "reauthorize: no token"
	case !c.HasScope(google.ScopeGmailModify):
		return "reauthorize: no gmail scope"
	case c.NeedsRefresh():
		return "refresh due"
	case c.OAuth.IsExpired():
		return "reauthorize: expired"
	case !c.HasRefreshToken():
		return "valid, no refresh"
	default:
		return "valid"
	}
}

func runCredentialsRevoke(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	if err := app.Credentials.Revoke(commandContext(cmd), args[0]); err != nil {
		return err
	}
	cmd.Printf("Revoked credentials for %s\n", args[0])
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
