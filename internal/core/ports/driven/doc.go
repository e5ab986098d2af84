// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - IdentityProvider: Builds consent URLs, exchanges grants, reads profiles
//   - CredentialsStore: Credentials persistence, keyed by identity
//   - AuthorizationStateStore: Single-use pending authorization requests
//   - MailWatcher: Registers inbox watches with the notification service
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
