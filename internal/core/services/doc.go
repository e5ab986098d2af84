// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// AuthorizationService runs the init/callback handshake, SubscriptionService
// registers inbox watches, and CredentialsService exposes the stored
// credentials to the CLI. None of them hold per-user state; everything
// durable lives behind the driven ports.
package services
