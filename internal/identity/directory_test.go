package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bee-social/internal/identity"
	"bee-social/internal/mocks"
	"bee-social/internal/models"
	"bee-social/internal/repositories"
)

const (
	cacheTTL     = 5 * time.Minute
	maxStaleness = time.Hour
)

type fixture struct {
	provider *mocks.IdentityProviderMock
	cache    *mocks.IdentityCacheMock
	mirror   *mocks.UserRepositoryMock
	dir      *identity.Directory
}

func newFixture() fixture {
	f := fixture{
		provider: new(mocks.IdentityProviderMock),
		cache:    new(mocks.IdentityCacheMock),
		mirror:   new(mocks.UserRepositoryMock),
	}
	f.dir = identity.NewDirectory(f.provider, f.cache, f.mirror, cacheTTL, maxStaleness)
	return f
}

func (f fixture) assert(t *testing.T) {
	f.provider.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.mirror.AssertExpectations(t)
}

func TestUserServedFromCache(t *testing.T) {
	f := newFixture()
	alice := models.User{ID: "u1", Username: "alice"}
	f.cache.On("Get", mock.Anything, "u1").Return(alice, true, nil).Once()

	got, err := f.dir.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	f.mirror.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	f.assert(t)
}

func TestUserServedFromFreshMirror(t *testing.T) {
	f := newFixture()
	alice := models.User{ID: "u1", Username: "alice", SyncedAt: time.Now().Add(-time.Minute)}
	f.cache.On("Get", mock.Anything, "u1").Return(nil, false, nil).Once()
	f.mirror.On("GetByID", mock.Anything, "u1").Return(alice, nil).Once()
	f.cache.On("Set", mock.Anything, alice, cacheTTL).Return(nil).Once()

	got, err := f.dir.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	f.assert(t)
}

func TestStaleMirrorRefreshedFromProvider(t *testing.T) {
	f := newFixture()
	stale := models.User{ID: "u1", Username: "alice_old", SyncedAt: time.Now().Add(-2 * time.Hour)}
	fresh := models.User{ID: "u1", Username: "alice"}
	saved := models.User{ID: "u1", Username: "alice", SyncedAt: time.Now()}

	f.cache.On("Get", mock.Anything, "u1").Return(nil, false, nil).Once()
	f.mirror.On("GetByID", mock.Anything, "u1").Return(stale, nil).Once()
	f.provider.On("GetUser", mock.Anything, "u1").Return(fresh, nil).Once()
	f.mirror.On("Upsert", mock.Anything, fresh).Return(saved, nil).Once()
	f.cache.On("Set", mock.Anything, saved, cacheTTL).Return(nil).Once()

	got, err := f.dir.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	f.assert(t)
}

func TestStaleMirrorServedWhenProviderDown(t *testing.T) {
	f := newFixture()
	stale := models.User{ID: "u1", Username: "alice", SyncedAt: time.Now().Add(-2 * time.Hour)}

	f.cache.On("Get", mock.Anything, "u1").Return(nil, false, errors.New("redis down")).Once()
	f.mirror.On("GetByID", mock.Anything, "u1").Return(stale, nil).Once()
	f.provider.On("GetUser", mock.Anything, "u1").Return(nil, errors.New("unavailable")).Once()

	got, err := f.dir.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	f.assert(t)
}

func TestUnknownUser(t *testing.T) {
	f := newFixture()
	f.cache.On("Get", mock.Anything, "ghost").Return(nil, false, nil).Once()
	f.mirror.On("GetByID", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound).Once()
	f.provider.On("GetUser", mock.Anything, "ghost").Return(nil, identity.ErrUnknownUser).Once()

	_, err := f.dir.Profile(context.Background(), "ghost")
	assert.ErrorIs(t, err, identity.ErrUnknownUser)
	f.assert(t)
}

func TestProfilesMixesSources(t *testing.T) {
	f := newFixture()
	now := time.Now()
	cached := models.User{ID: "a", Username: "ann"}
	mirrored := models.User{ID: "b", Username: "ben", SyncedAt: now}
	stale := models.User{ID: "c", Username: "cat", SyncedAt: now.Add(-3 * time.Hour)}
	remote := models.User{ID: "d", Username: "dan"}

	f.cache.On("Get", mock.Anything, "a").Return(cached, true, nil).Once()
	for _, id := range []string{"b", "c", "d", "e"} {
		f.cache.On("Get", mock.Anything, id).Return(nil, false, nil).Once()
	}
	f.mirror.On("GetByIDs", mock.Anything, []string{"b", "c", "d", "e"}).Return([]models.User{mirrored, stale}, nil).Once()
	f.cache.On("Set", mock.Anything, mirrored, cacheTTL).Return(nil).Once()
	f.provider.On("GetUsers", mock.Anything, []string{"c", "d", "e"}).Return([]models.User{remote}, nil).Once()
	f.mirror.On("Upsert", mock.Anything, remote).Return(remote, nil).Once()
	f.cache.On("Set", mock.Anything, remote, cacheTTL).Return(nil).Once()

	got, err := f.dir.Profiles(context.Background(), []string{"a", "b", "c", "d", "e", "a"})
	require.NoError(t, err)
	assert.Equal(t, "ann", got["a"].Username)
	assert.Equal(t, "ben", got["b"].Username)
	assert.Equal(t, "cat", got["c"].Username, "stale mirror row is the last resort")
	assert.Equal(t, "dan", got["d"].Username)
	assert.NotContains(t, got, "e")
	f.assert(t)
}

func TestSyncReturnsUsernameConflict(t *testing.T) {
	f := newFixture()
	fetched := models.User{ID: "u1", Username: "taken"}
	f.provider.On("GetUser", mock.Anything, "u1").Return(fetched, nil).Once()
	f.mirror.On("Upsert", mock.Anything, fetched).Return(nil, repositories.ErrUsernameTaken).Once()

	_, err := f.dir.Sync(context.Background(), "u1")
	assert.ErrorIs(t, err, repositories.ErrUsernameTaken)
	f.assert(t)
}
