// Package session defines the per-request session value carried from the
// auth middleware into handlers and access-control checks. It is always
// passed explicitly as an argument, never read from ambient state.
package session

// Session holds the identities attached to a request.
type Session struct {
	// UserID is set once the user has authenticated, empty otherwise.
	UserID string

	// VisitorID is the anonymous identity used to de-duplicate visit
	// counts. It is minted lazily on the first redirect served to the
	// session and kept for the session's lifetime.
	VisitorID string
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
