package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
)

func TestCredentialsCmd_HasSubcommands(t *testing.T) {
	commandNames := make([]string, 0)
	for _, cmd := range credentialsCmd.Commands() {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "revoke")
}

func TestCredentialsList_Empty(t *testing.T) {
	ta := setupTestApp(t)

	out, err := run(t, "credentials", "list", "--config", ta.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No authorized accounts.")
}

func TestCredentialsList(t *testing.T) {
	ta := setupTestApp(t)
	ta.saveCredentials(t, "bob@example.com", "alice@example.com")

	out, err := run(t, "credentials", "list", "--config", ta.configPath)
	require.NoError(t, err)

	rows := lines(out)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "IDENTITY")
	assert.Contains(t, rows[1], "alice@example.com")
	assert.Contains(t, rows[1], "cred-alice@example.com")
	assert.Contains(t, rows[1], "valid")
	assert.Contains(t, rows[2], "bob@example.com")
}

func TestCredentialsRevoke(t *testing.T) {
	ta := setupTestApp(t)
	ta.saveCredentials(t, "alice@example.com")

	out, err := run(t, "credentials", "revoke", "alice@example.com", "--config", ta.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Revoked credentials for alice@example.com")

	_, err = ta.store.Get(t.Context(), "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCredentialsRevoke_Unknown(t *testing.T) {
	ta := setupTestApp(t)

	_, err := run(t, "credentials", "revoke", "ghost@example.com", "--config", ta.configPath)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCredentialsRevoke_RequiresArg(t *testing.T) {
	ta := setupTestApp(t)

	_, err := run(t, "credentials", "revoke", "--config", ta.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestTokenStatus(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	gmail := []string{google.ScopeEmail, google.ScopeGmailModify}

	tests := []struct {
		name  string
		creds domain.Credentials
		want  string
	}{
		{"no token", domain.Credentials{Scopes: gmail}, "reauthorize: no token"},
		{"missing gmail scope", domain.Credentials{
			Scopes: []string{google.ScopeEmail},
			OAuth:  &domain.OAuthCredentials{AccessToken: "a", RefreshToken: "r", Expiry: future},
		}, "reauthorize: no gmail scope"},
		{"expired with refresh", domain.Credentials{
			Scopes: gmail,
			OAuth:  &domain.OAuthCredentials{AccessToken: "a", RefreshToken: "r", Expiry: past},
		}, "refresh due"},
		{"expired without refresh", domain.Credentials{
			Scopes: gmail,
			OAuth:  &domain.OAuthCredentials{AccessToken: "a", Expiry: past},
		}, "reauthorize: expired"},
		{"valid without refresh", domain.Credentials{
			Scopes: gmail,
			OAuth:  &domain.OAuthCredentials{AccessToken: "a", Expiry: future},
		}, "valid, no refresh"},
		{"valid", domain.Credentials{
			Scopes: gmail,
			OAuth:  &domain.OAuthCredentials{AccessToken: "a", RefreshToken: "r", Expiry: future},
		}, "valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenStatus(&tt.creds))
		})
	}
}
