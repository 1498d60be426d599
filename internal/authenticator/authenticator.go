// Package authenticator declares the session-handling contract the router
// depends on, so tests can substitute the real cookie codec.
package authenticator

import (
	"net/http"

	"tinylink/internal/session"
)

// Authenticator decodes sessions from requests and writes them back to
// responses.
type Authenticator interface {
	WithSession(h http.Handler) http.Handler
	IssueSession(response http.ResponseWriter, sess session.Session) error
	ClearSession(response http.ResponseWriter)
}
