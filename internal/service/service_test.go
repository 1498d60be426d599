package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tinylink/internal/keygen"
	"tinylink/internal/memorystorage"
	"tinylink/internal/mockstorage"
	"tinylink/internal/models"
	"tinylink/internal/session"
)

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

func newTestService(t *testing.T) *Service {
	t.Helper()

	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	return New(theStorage, keygen.New(), "http://localhost:8080")
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)

	usr, err := svc.RegisterUser(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Regexp(t, shortCodePattern, usr.ID)
	assert.Equal(t, "a@x.com", usr.Email)
	assert.NotEqual(t, "pw1", usr.PasswordHash)

	t.Run("same credentials authenticate", func(t *testing.T) {
		got, err := svc.AuthenticateUser(context.Background(), "a@x.com", "pw1")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.AuthenticateUser(context.Background(), "a@x.com", "pw2")
		assert.ErrorIs(t, err, models.ErrInvalidPassword)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.AuthenticateUser(context.Background(), "b@x.com", "pw1")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.RegisterUser(context.Background(), "a@x.com", "other")
		assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.RegisterUser(context.Background(), "", "pw1")
		assert.ErrorIs(t, err, models.ErrMissingField)

		_, err = svc.RegisterUser(context.Background(), "c@x.com", "")
		assert.ErrorIs(t, err, models.ErrMissingField)

		_, err = svc.AuthenticateUser(context.Background(), "a@x.com", "")
		assert.ErrorIs(t, err, models.ErrMissingField)
	})
}

func TestCreateAndResolveLink(t *testing.T) {
	svc := newTestService(t)

	link, err := svc.CreateLink(context.Background(), "owner", "http://example.com")
	require.NoError(t, err)
	assert.Regexp(t, shortCodePattern, link.ShortCode)
	assert.Equal(t, "http://example.com", link.LongURL)
	assert.Equal(t, "owner", link.OwnerID)
	assert.Zero(t, link.VisitCount)
	assert.Zero(t, link.UniqueVisitorCount)
	assert.Empty(t, link.Visits)

	resolved, err := svc.GetLink(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", resolved.LongURL)

	_, err = svc.GetLink(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.CreateLink(context.Background(), "owner", "")
	assert.ErrorIs(t, err, models.ErrMissingField)
}

func TestOwnershipGuards(t *testing.T) {
	svc := newTestService(t)

	link, err := svc.CreateLink(context.Background(), "owner", "http://example.com")
	require.NoError(t, err)

	owner := session.Session{UserID: "owner"}
	intruder := session.Session{UserID: "intruder"}
	anonymous := session.Session{VisitorID: "v1"}

	t.Run("non-owner update is forbidden and leaves the link unchanged", func(t *testing.T) {
		err := svc.UpdateLinkTarget(context.Background(), link.ShortCode, "http://evil.example.com", intruder)
		assert.ErrorIs(t, err, models.ErrForbidden)

		got, err := svc.GetLink(context.Background(), link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, "http://example.com", got.LongURL)
	})

	t.Run("non-owner delete is forbidden and leaves the link in place", func(t *testing.T) {
		err := svc.DeleteLink(context.Background(), link.ShortCode, intruder)
		assert.ErrorIs(t, err, models.ErrForbidden)

		_, err = svc.GetLink(context.Background(), link.ShortCode)
		assert.NoError(t, err)
	})

	t.Run("unauthenticated beats not-found", func(t *testing.T) {
		err := svc.UpdateLinkTarget(context.Background(), "unknown", "http://example.org", anonymous)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)

		_, err = svc.GetLinkForOwner(context.Background(), "unknown", anonymous)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("authenticated missing link is not found", func(t *testing.T) {
		err := svc.DeleteLink(context.Background(), "unknown", owner)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("owner can view, update and delete", func(t *testing.T) {
		got, err := svc.GetLinkForOwner(context.Background(), link.ShortCode, owner)
		require.NoError(t, err)
		assert.Equal(t, link.ShortCode, got.ShortCode)

		err = svc.UpdateLinkTarget(context.Background(), link.ShortCode, "http://example.org", owner)
		require.NoError(t, err)

		got, err = svc.GetLink(context.Background(), link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, "http://example.org", got.LongURL)

		err = svc.DeleteLink(context.Background(), link.ShortCode, owner)
		require.NoError(t, err)

		_, err = svc.GetLink(context.Background(), link.ShortCode)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestListLinksByOwner(t *testing.T) {
	svc := newTestService(t)

	var aliceCodes []string
	for i := 0; i < 3; i++ {
		link, err := svc.CreateLink(context.Background(), "alice", "http://example.com")
		require.NoError(t, err)
		aliceCodes = append(aliceCodes, link.ShortCode)
	}
	_, err := svc.CreateLink(context.Background(), "bob", "http://example.org")
	require.NoError(t, err)

	owned, err := svc.ListLinksByOwner(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, owned, 3)
	var gotCodes []string
	for _, link := range owned {
		assert.Equal(t, "alice", link.OwnerID)
		gotCodes = append(gotCodes, link.ShortCode)
	}
	assert.ElementsMatch(t, aliceCodes, gotCodes)

	owned, err = svc.ListLinksByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestRecordVisit(t *testing.T) {
	svc := newTestService(t)

	link, err := svc.CreateLink(context.Background(), "owner", "http://example.com")
	require.NoError(t, err)

	now := time.Now()

	updated, err := svc.RecordVisit(context.Background(), link.ShortCode, "v1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.VisitCount)
	assert.Equal(t, 1, updated.UniqueVisitorCount)

	updated, err = svc.RecordVisit(context.Background(), link.ShortCode, "v1", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, updated.VisitCount)
	assert.Equal(t, 1, updated.UniqueVisitorCount)

	updated, err = svc.RecordVisit(context.Background(), link.ShortCode, "v2", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, updated.VisitCount)
	assert.Equal(t, 2, updated.UniqueVisitorCount)

	_, err = svc.RecordVisit(context.Background(), "unknown", "v1", now)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInternalStatsAndProjections(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RegisterUser(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	link, err := svc.CreateLink(context.Background(), "owner", "http://example.com")
	require.NoError(t, err)

	stats, err := svc.GetInternalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.URLs)
	assert.Equal(t, int64(1), stats.Users)

	all, err := svc.AllLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{link.ShortCode: "http://example.com"}, all)

	assert.Equal(t, "http://localhost:8080/u/"+link.ShortCode, svc.ShortURL(link.ShortCode))
	assert.Regexp(t, shortCodePattern, svc.NewVisitorID())
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestStorageErrorsArePropagated(t *testing.T) {
	storageErr := errors.New("storage unavailable")

	theStorage := &mockstorage.StorageMock{}
	theStorage.On("FindLinkByShort", mock.Anything, "b2xVn2").Return(nil, false, storageErr)
	theStorage.On("FindUserByEmail", mock.Anything, "a@x.com").Return(nil, false, storageErr)

	svc := New(theStorage, keygen.New(), "http://localhost:8080")

	_, err := svc.GetLink(context.Background(), "b2xVn2")
	assert.ErrorIs(t, err, storageErr)

	err = svc.UpdateLinkTarget(context.Background(), "b2xVn2", "http://example.org", session.Session{UserID: "owner"})
	assert.ErrorIs(t, err, storageErr)

	_, err = svc.AuthenticateUser(context.Background(), "a@x.com", "pw1")
	assert.ErrorIs(t, err, storageErr)

	theStorage.AssertExpectations(t)
}
