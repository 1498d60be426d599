// Package service implements the application operations: registration and
// authentication against the user directory, link management gated by the
// access-control rules, and visit recording. Handlers stay thin and call
// into this package.
package service

import (
	"context"
	"time"

	"tinylink/internal/access"
	"tinylink/internal/keygen"
	"tinylink/internal/models"
	"tinylink/internal/session"
	"tinylink/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
}

type linkKeeper interface {
	SaveLink(ctx context.Context, link *models.Link) error
	FindLinkByShort(ctx context.Context, short string) (*models.Link, bool, error)
	FindLinksByOwner(ctx context.Context, ownerID string) ([]*models.Link, error)
	UpdateLinkTarget(ctx context.Context, short, newURL string) (bool, error)
	DeleteLink(ctx context.Context, short string) (bool, error)
	AllLinks(ctx context.Context) (map[string]string, error)
}

type visitRecorder interface {
	RecordVisit(
		ctx context.Context,
		short string,
		visitorID string,
		now time.Time,
	) (*models.Link, bool, error)
}

type statsKeeper interface {
	GetNumberOfShortenedURLs(ctx context.Context) (int64, error)
	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	linkKeeper
	visitRecorder
	statsKeeper
	pinger
}

// Service wires the storage backend, the identifier generator and the
// access-control rules into the operations exposed over HTTP.
type Service struct {
	db           storage
	keys         *keygen.Generator
	shortURLBase string
}

// New creates a Service on top of the given storage and generator.
func New(db storage, keys *keygen.Generator, shortURLBase string) *Service {
	return &Service{
		db:           db,
		keys:         keys,
		shortURLBase: shortURLBase,
	}
}

// RegisterUser creates an account for the given credentials.
// It fails with models.ErrMissingField on empty input and with
// models.ErrDuplicateEmail when the email is taken.
func (s *Service) RegisterUser(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, models.ErrMissingField
	}

	digest, err := user.HashPassword(password)
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		ID:           s.keys.Generate(),
		Email:        email,
		PasswordHash: digest,
	}

	// The storage re-checks the email under its lock, so a concurrent
	// registration with the same address cannot slip through.
	if err := s.db.CreateUser(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// AuthenticateUser verifies the credentials and returns the matching user.
// Failures follow the fixed taxonomy: models.ErrMissingField for empty
// input, models.ErrUserNotFound for an unknown email and
// models.ErrInvalidPassword for a digest mismatch. There are no side
// effects; session state is the caller's concern.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, models.ErrMissingField
	}

	usr, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUserNotFound
	}

	if !usr.CheckPassword(password) {
		return nil, models.ErrInvalidPassword
	}

	return usr, nil
}

// GetUserByID resolves a user id, typically one carried by a session cookie.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	return s.db.GetUserByID(ctx, userID)
}

// CreateLink mints a short code and stores a new link owned by ownerID.
// The long URL is only checked for presence, not for syntax.
func (s *Service) CreateLink(ctx context.Context, ownerID, longURL string) (*models.Link, error) {
	if longURL == "" {
		return nil, models.ErrMissingField
	}

	link := &models.Link{
		ShortCode: s.keys.Generate(),
		LongURL:   longURL,
		OwnerID:   ownerID,
		Visits:    []models.Visit{},
	}

	if err := s.db.SaveLink(ctx, link); err != nil {
		return nil, err
	}

	return link.Clone(), nil
}

// GetLink resolves a short code, failing with models.ErrNotFound when the
// code is unknown. The existence check always happens here, before anyone
// touches a field of the record.
func (s *Service) GetLink(ctx context.Context, short string) (*models.Link, error) {
	link, found, err := s.db.FindLinkByShort(ctx, short)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	return link, nil
}

// GetLinkForOwner returns the link's details for its owner, applying the
// authentication / existence / ownership checks in that order.
func (s *Service) GetLinkForOwner(ctx context.Context, short string, sess session.Session) (*models.Link, error) {
	link, err := s.lookup(ctx, short)
	if err != nil {
		return nil, err
	}

	if err := access.AuthorizeLink(sess, link); err != nil {
		return nil, err
	}

	return link, nil
}

// ListLinksByOwner returns every link owned by the session's user.
func (s *Service) ListLinksByOwner(ctx context.Context, ownerID string) ([]*models.Link, error) {
	return s.db.FindLinksByOwner(ctx, ownerID)
}

// UpdateLinkTarget changes the long URL of a link after the access-control
// checks pass. Only the target is mutable; the short code and owner never
// change.
func (s *Service) UpdateLinkTarget(ctx context.Context, short, newURL string, sess session.Session) error {
	link, err := s.lookup(ctx, short)
	if err != nil {
		return err
	}

	if err := access.AuthorizeLink(sess, link); err != nil {
		return err
	}

	if newURL == "" {
		return models.ErrMissingField
	}

	found, err := s.db.UpdateLinkTarget(ctx, short, newURL)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}

	return nil
}

// DeleteLink removes a link after the access-control checks pass.
func (s *Service) DeleteLink(ctx context.Context, short string, sess session.Session) error {
	link, err := s.lookup(ctx, short)
	if err != nil {
		return err
	}

	if err := access.AuthorizeLink(sess, link); err != nil {
		return err
	}

	found, err := s.db.DeleteLink(ctx, short)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}

	return nil
}

// RecordVisit applies one redirect to the link's analytics and returns the
// updated record. The visitor id must already be minted by the caller.
func (s *Service) RecordVisit(ctx context.Context, short, visitorID string, now time.Time) (*models.Link, error) {
	link, found, err := s.db.RecordVisit(ctx, short, visitorID, now)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	return link, nil
}

// NewVisitorID mints an anonymous visitor identity. It shares the generator
// and alphabet with short codes and user ids.
func (s *Service) NewVisitorID() string {
	return s.keys.Generate()
}

// AllLinks returns the full store as a shortCode -> longURL mapping.
func (s *Service) AllLinks(ctx context.Context) (map[string]string, error) {
	return s.db.AllLinks(ctx)
}

// GetInternalStats returns store-wide totals.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	urls, err := s.db.GetNumberOfShortenedURLs(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ShortURL builds the public short URL for a stored code.
func (s *Service) ShortURL(short string) string {
	return s.shortURLBase + "/u/" + short
}

// lookup resolves a short code to a link or nil, deferring the not-found
// decision to the access-control predicates so the error precedence stays in
// one place.
func (s *Service) lookup(ctx context.Context, short string) (*models.Link, error) {
	link, found, err := s.db.FindLinkByShort(ctx, short)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return link, nil
}
