// Package oauth provides the HTTP surface of the consent handshake.
//
// Handler exposes the init and callback endpoints. The callback routes every
// request to exactly one of two continuations: a success continuation that
// receives the resolved identity, or a failure continuation for authorization
// failures. Any other error is returned to HandlerFunc, which logs it and
// answers with a single 500.
//
// Handlers supplies the continuations used in production: establish the
// inbox watch on success, and a 401/400 page on failure.
package oauth
