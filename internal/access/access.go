// Package access holds the authorization predicates gating link operations.
// The predicates are pure; the composition order in AuthorizeLink is part of
// the contract and decides which error wins when several conditions fail at
// once.
package access

import (
	"tinylink/internal/models"
	"tinylink/internal/session"
)

// RequireAuthenticated fails with ErrUnauthenticated unless the session
// belongs to a logged-in user.
func RequireAuthenticated(sess session.Session) error {
	if !sess.Authenticated() {
		return models.ErrUnauthenticated
	}

	return nil
}

// RequireExists fails with ErrNotFound when the link was not resolved.
func RequireExists(link *models.Link) error {
	if link == nil {
		return models.ErrNotFound
	}

	return nil
}

// RequireOwner fails with ErrForbidden unless userID owns the link.
func RequireOwner(link *models.Link, userID string) error {
	if link.OwnerID != userID {
		return models.ErrForbidden
	}

	return nil
}

// AuthorizeLink runs the predicates in the fixed order: authentication,
// then existence, then ownership. An unauthenticated request for a missing
// link therefore yields ErrUnauthenticated, not ErrNotFound.
func AuthorizeLink(sess session.Session, link *models.Link) error {
	if err := RequireAuthenticated(sess); err != nil {
		return err
	}
	if err := RequireExists(link); err != nil {
		return err
	}

	return RequireOwner(link, sess.UserID)
}
