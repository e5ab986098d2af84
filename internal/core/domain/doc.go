// Package domain defines the core business entities for inboxwatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - AuthorizationRequest: Pending consent, correlated by its state token
//   - Credentials: The exchanged token bundle owned by one Identity
//   - TopicTarget: The Pub/Sub destination for inbox notifications
//   - Subscription: The outcome of registering an inbox watch
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
