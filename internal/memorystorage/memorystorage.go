// Package memorystorage implements the in-memory storage backend holding the
// user directory and the link store. Data lives for the process lifetime
// only.
//
// A single RWMutex guards all state: every mutation takes the write lock, so
// operations touching the same short code are linearized and the visit
// counters stay consistent even when the HTTP server services requests from
// several goroutines. Reads return deep copies, callers never observe
// in-place mutation.
package memorystorage

import (
	"context"
	"sync"
	"time"

	funk "github.com/thoas/go-funk"

	"tinylink/internal/models"
	"tinylink/internal/user"
)

// MemoryStorage is the process-memory implementation of the storage
// interfaces declared by the service and auth packages.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[string]*user.User   // keyed by user ID
	links map[string]*models.Link // keyed by short code
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users: map[string]*user.User{},
		links: map[string]*models.Link{},
	}, nil
}

// CreateUser stores a new user. It fails with models.ErrDuplicateEmail when
// the email is already registered; the check and the insert happen under the
// same lock so two concurrent registrations cannot both succeed.
func (theStorage *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	for _, existing := range theStorage.users {
		if existing.Email == usr.Email {
			return models.ErrDuplicateEmail
		}
	}

	theStorage.users[usr.ID] = usr

	return nil
}

// GetUserByID returns the user with the given id, if any. The returned value
// is safe to share: users are never mutated after creation.
func (theStorage *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	usr, found := theStorage.users[userID]

	return usr, found, nil
}

// FindUserByEmail scans the directory for an exact, case-sensitive email
// match. Scan order is unspecified, which is acceptable because emails are
// unique.
func (theStorage *MemoryStorage) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	for _, usr := range theStorage.users {
		if usr.Email == email {
			return usr, true, nil
		}
	}

	return nil, false, nil
}

// SaveLink stores a freshly created link record.
func (theStorage *MemoryStorage) SaveLink(ctx context.Context, link *models.Link) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	theStorage.links[link.ShortCode] = link

	return nil
}

// FindLinkByShort returns a copy of the link with the given short code.
func (theStorage *MemoryStorage) FindLinkByShort(ctx context.Context, short string) (*models.Link, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	link, found := theStorage.links[short]
	if !found {
		return nil, false, nil
	}

	return link.Clone(), true, nil
}

// FindLinksByOwner returns copies of every link owned by ownerID. Order is
// not significant.
func (theStorage *MemoryStorage) FindLinksByOwner(ctx context.Context, ownerID string) ([]*models.Link, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	all := make([]*models.Link, 0, len(theStorage.links))
	for _, link := range theStorage.links {
		all = append(all, link.Clone())
	}

	owned := funk.Filter(all, func(link *models.Link) bool {
		return link.OwnerID == ownerID
	}).([]*models.Link)

	return owned, nil
}

// UpdateLinkTarget replaces the long URL of the given link. The second
// return value reports whether the short code exists. Ownership is checked
// by the caller before this is reached.
func (theStorage *MemoryStorage) UpdateLinkTarget(ctx context.Context, short, newURL string) (bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	link, found := theStorage.links[short]
	if !found {
		return false, nil
	}

	link.LongURL = newURL

	return true, nil
}

// DeleteLink removes the link record. The return value reports whether the
// short code existed.
func (theStorage *MemoryStorage) DeleteLink(ctx context.Context, short string) (bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	_, found := theStorage.links[short]
	delete(theStorage.links, short)

	return found, nil
}

// RecordVisit applies one redirect to the link's analytics:
// the total count grows unconditionally, the unique count only when the
// visitor id has not been seen in the log yet, and the visit is appended to
// the log. All three steps run under the write lock, so visits to the same
// short code are linearized.
func (theStorage *MemoryStorage) RecordVisit(
	ctx context.Context,
	short string,
	visitorID string,
	now time.Time,
) (*models.Link, bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	link, found := theStorage.links[short]
	if !found {
		return nil, false, nil
	}

	link.VisitCount++

	seen := false
	for _, visit := range link.Visits {
		if visit.VisitorID == visitorID {
			seen = true
			break
		}
	}
	if !seen {
		link.UniqueVisitorCount++
	}

	link.Visits = append(link.Visits, models.Visit{
		VisitorID: visitorID,
		VisitedAt: now,
	})

	return link.Clone(), true, nil
}

// AllLinks returns the whole store projected to a shortCode -> longURL map.
func (theStorage *MemoryStorage) AllLinks(ctx context.Context) (map[string]string, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	result := make(map[string]string, len(theStorage.links))
	for short, link := range theStorage.links {
		result[short] = link.LongURL
	}

	return result, nil
}

// GetNumberOfShortenedURLs returns the total amount of stored links.
func (theStorage *MemoryStorage) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	return int64(len(theStorage.links)), nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (theStorage *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	return int64(len(theStorage.users)), nil
}

// Ping reports the storage health. Process memory is always reachable.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close releases storage resources. Nothing to release for process memory.
func (theStorage *MemoryStorage) Close() error {
	return nil
}
