// Package google provides the Google side of inboxwatch.
//
// This package contains:
//   - Provider, the OAuth identity provider (consent URL, PKCE grant exchange,
//     userinfo lookup, token sources for stored credentials)
//   - PersistingTokenSource, which writes refreshed tokens back to the
//     credentials store
//   - Service factories for creating Google API clients
//   - Error helpers for common Google API errors (401, 403, 429)
//   - Rate limiting to respect Google API quotas
//
// The gmail subpackage registers inbox watches on top of these.
//
// # Usage
//
//	provider := google.NewProvider(google.ProviderConfig{ClientID: id, ClientSecret: secret, RedirectURL: cb})
//	watcher := gmail.NewWatcher(provider)
//
// # OAuth2 Scopes
//
// The default scope set is:
//   - profile, email (non-sensitive, used to resolve the identity)
//   - https://www.googleapis.com/auth/gmail.modify (restricted, required by users.watch)
//   - https://www.googleapis.com/auth/spreadsheets (sensitive)
package google
