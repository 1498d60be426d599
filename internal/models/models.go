// Package models defines the link records, request/response types and the
// error taxonomy shared between the storage, service and router layers.
package models

import (
	"errors"
	"time"
)

// Visit is one entry of a link's append-only visit log.
type Visit struct {
	VisitorID string    `json:"visitor_id"`
	VisitedAt time.Time `json:"visited_at"`
}

// Link is a stored short-URL record together with its analytics.
//
// ShortCode and OwnerID are immutable once created; LongURL may be changed by
// the owner only. UniqueVisitorCount always equals the number of distinct
// visitor ids in Visits.
type Link struct {
	ShortCode          string  `json:"short_code"`
	LongURL            string  `json:"long_url"`
	OwnerID            string  `json:"owner_id"`
	VisitCount         int     `json:"visit_count"`
	UniqueVisitorCount int     `json:"unique_visitor_count"`
	Visits             []Visit `json:"visits,omitempty"`
}

// Clone returns a deep copy of the link so storage internals never leak
// to callers.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Visits = make([]Visit, len(l.Visits))
	copy(clone.Visits, l.Visits)

	return &clone
}

// CreateLinkRequest is the body of POST /urls.
type CreateLinkRequest struct {
	LongURL string `json:"longURL" validate:"required"`
}

// UpdateLinkRequest is the body of PUT /urls/{id}.
type UpdateLinkRequest struct {
	NewURL string `json:"newUrl" validate:"required"`
}

// CredentialsRequest is the body of POST /login and POST /register.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LinkResponse is the serialized form of a link handed to the rendering layer.
type LinkResponse struct {
	ShortCode          string  `json:"short_code"`
	ShortURL           string  `json:"short_url"`
	LongURL            string  `json:"long_url"`
	OwnerID            string  `json:"owner_id"`
	VisitCount         int     `json:"visit_count"`
	UniqueVisitorCount int     `json:"unique_visitor_count"`
	Visits             []Visit `json:"visits,omitempty"`
}

// UserResponse is the serialized form of a user; the password digest never
// leaves the server.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// InternalStatsResponse reports store-wide totals for the trusted-subnet
// stats endpoint.
type InternalStatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

// Error taxonomy. Every failure an operation can report is one of these;
// all are terminal for the request and map to a single HTTP status.
var (
	ErrMissingField    = errors.New("required field is missing")
	ErrDuplicateEmail  = errors.New("email is already registered")
	ErrUserNotFound    = errors.New("no user with such email")
	ErrInvalidPassword = errors.New("password does not match")
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("no such short URL")
	ErrForbidden       = errors.New("operation allowed for the link owner only")
)
