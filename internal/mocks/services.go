package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bee-social/internal/blob"
	"bee-social/internal/identity"
	"bee-social/internal/models"
	"bee-social/internal/ratelimit"
	"bee-social/internal/telemetry"
	"bee-social/internal/ws"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Profile(ctx context.Context, id string) (models.Profile, error) {
	args := m.Called(ctx, id)
	var p models.Profile
	if val := args.Get(0); val != nil {
		p = val.(models.Profile)
	}
	return p, args.Error(1)
}

func (m *ResolverMock) Profiles(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	args := m.Called(ctx, ids)
	var out map[string]models.Profile
	if val := args.Get(0); val != nil {
		out = val.(map[string]models.Profile)
	}
	return out, args.Error(1)
}

func (m *ResolverMock) Sync(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

type IdentityProviderMock struct {
	mock.Mock
}

func (m *IdentityProviderMock) GetUser(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *IdentityProviderMock) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type IdentityCacheMock struct {
	mock.Mock
}

func (m *IdentityCacheMock) Get(ctx context.Context, id string) (models.User, bool, error) {
	args := m.Called(ctx, id)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Bool(1), args.Error(2)
}

func (m *IdentityCacheMock) Set(ctx context.Context, u models.User, ttl time.Duration) error {
	args := m.Called(ctx, u, ttl)
	return args.Error(0)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Broadcast(chatID int, event models.ChatEvent) {
	m.Called(chatID, event)
}

type SinkMock struct {
	mock.Mock
}

func (m *SinkMock) Emit(ctx context.Context, eventType, requestID, userID string, payload any) {
	m.Called(ctx, eventType, requestID, userID, payload)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	return nil
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Put(ctx context.Context, key string, body []byte, contentType string) error {
	args := m.Called(ctx, key, body, contentType)
	return args.Error(0)
}

func (m *BlobStoreMock) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type LimiterMock struct {
	mock.Mock
}

func (m *LimiterMock) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

var (
	_ identity.Resolver   = (*ResolverMock)(nil)
	_ identity.Provider   = (*IdentityProviderMock)(nil)
	_ identity.Cache      = (*IdentityCacheMock)(nil)
	_ identity.Mirror     = (*UserRepositoryMock)(nil)
	_ ws.Broadcaster      = (*BroadcasterMock)(nil)
	_ telemetry.Sink      = (*SinkMock)(nil)
	_ telemetry.Publisher = (*PublisherMock)(nil)
	_ blob.Store          = (*BlobStoreMock)(nil)
	_ ratelimit.Limiter   = (*LimiterMock)(nil)
)
