package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/inboxwatch/internal/security"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a token encryption key",
	Long: `Print a new random key for encrypting stored tokens.

Set it as storage.encryption_key in the config file or export it as
INBOXWATCH_ENCRYPTION_KEY. Tokens saved under one key cannot be read
with another.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := security.GenerateKey()
		if err != nil {
			return err
		}
		cmd.Println(security.KeyToBase64(key))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
