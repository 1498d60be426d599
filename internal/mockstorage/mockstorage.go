// Package mockstorage provides a testify-based mock of the storage
// interfaces consumed by the service and auth packages. Tests use it to
// simulate storage failures that the in-memory backend cannot produce.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tinylink/internal/models"
	"tinylink/internal/user"
)

// StorageMock implements every storage interface declared by the service
// package.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks storing a new user.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// GetUserByID mocks a user lookup by id.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByEmail mocks the email scan.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// SaveLink mocks storing a link.
func (m *StorageMock) SaveLink(ctx context.Context, link *models.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// FindLinkByShort mocks a link lookup.
func (m *StorageMock) FindLinkByShort(ctx context.Context, short string) (*models.Link, bool, error) {
	args := m.Called(ctx, short)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Bool(1), args.Error(2)
}

// FindLinksByOwner mocks the ownership filter.
func (m *StorageMock) FindLinksByOwner(ctx context.Context, ownerID string) ([]*models.Link, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).([]*models.Link)
	return links, args.Error(1)
}

// UpdateLinkTarget mocks a target mutation.
func (m *StorageMock) UpdateLinkTarget(ctx context.Context, short, newURL string) (bool, error) {
	args := m.Called(ctx, short, newURL)
	return args.Bool(0), args.Error(1)
}

// DeleteLink mocks a link removal.
func (m *StorageMock) DeleteLink(ctx context.Context, short string) (bool, error) {
	args := m.Called(ctx, short)
	return args.Bool(0), args.Error(1)
}

// RecordVisit mocks the visit bookkeeping.
func (m *StorageMock) RecordVisit(
	ctx context.Context,
	short string,
	visitorID string,
	now time.Time,
) (*models.Link, bool, error) {
	args := m.Called(ctx, short, visitorID, now)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Bool(1), args.Error(2)
}

// AllLinks mocks the full-store projection.
func (m *StorageMock) AllLinks(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	all, _ := args.Get(0).(map[string]string)
	return all, args.Error(1)
}

// GetNumberOfShortenedURLs mocks the link counter.
func (m *StorageMock) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfUsers mocks the user counter.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing storage resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
