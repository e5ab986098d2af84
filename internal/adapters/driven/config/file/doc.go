// Package file loads inboxwatch configuration from a TOML file.
//
// Values are layered: built-in defaults, then the TOML file, then
// environment variables. The result is validated once at start.
//
// Environment overrides:
//   - GCP_PROJECT, PUBSUB_TOPIC: the Pub/Sub topic receiving notifications
//   - GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET: OAuth client registration
//   - INBOXWATCH_ENCRYPTION_KEY: base64 key for token encryption at rest
//   - INBOXWATCH_REDIS_ADDR: Redis address for the shared state store
package file
