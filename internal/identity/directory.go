package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bee-social/internal/logger"
	"bee-social/internal/models"
	"bee-social/internal/observability"
)

// ErrUnknownUser means neither the provider nor the local mirror knows the id.
var ErrUnknownUser = errors.New("unknown user")

// Provider is the hosted identity service.
type Provider interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
}

// Cache holds recently resolved users.
type Cache interface {
	Get(ctx context.Context, id string) (models.User, bool, error)
	Set(ctx context.Context, u models.User, ttl time.Duration) error
}

// Mirror is the persistent copy of provider profiles.
type Mirror interface {
	Upsert(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// Directory resolves user profiles through cache, mirror and provider in that
// order. A mirror row older than maxStaleness is refreshed from the provider
// and served as-is only when the provider is unavailable.
type Directory struct {
	provider     Provider
	cache        Cache
	mirror       Mirror
	cacheTTL     time.Duration
	maxStaleness time.Duration
	now          func() time.Time
}

func NewDirectory(provider Provider, cache Cache, mirror Mirror, cacheTTL, maxStaleness time.Duration) *Directory {
	return &Directory{
		provider:     provider,
		cache:        cache,
		mirror:       mirror,
		cacheTTL:     cacheTTL,
		maxStaleness: maxStaleness,
		now:          time.Now,
	}
}

// User resolves a single user.
func (d *Directory) User(ctx context.Context, id string) (models.User, error) {
	if u, ok := d.fromCache(ctx, id); ok {
		observability.IncIdentityLookup("cache")
		return u, nil
	}

	stored, err := d.mirror.GetByID(ctx, id)
	hasStored := err == nil
	if hasStored && d.fresh(stored) {
		observability.IncIdentityLookup("mirror")
		d.toCache(ctx, stored)
		return stored, nil
	}

	fetched, err := d.provider.GetUser(ctx, id)
	if err == nil {
		observability.IncIdentityLookup("provider")
		return d.store(ctx, fetched), nil
	}
	if hasStored {
		observability.IncIdentityLookup("stale")
		logger.Warn().Err(err).Str("user_id", id).Msg("identity provider unavailable, serving stale profile")
		return stored, nil
	}
	if errors.Is(err, ErrUnknownUser) {
		return models.User{}, ErrUnknownUser
	}
	return models.User{}, fmt.Errorf("resolve user %s: %w", id, err)
}

// Profile resolves the public profile of a user.
func (d *Directory) Profile(ctx context.Context, id string) (models.Profile, error) {
	u, err := d.User(ctx, id)
	if err != nil {
		return models.Profile{}, err
	}
	return u.Public(), nil
}

// Profiles resolves many users at once. Ids nobody knows are absent from the
// result; provider failures degrade to whatever the mirror holds.
func (d *Directory) Profiles(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(ids))
	var misses []string
	for _, id := range dedupe(ids) {
		if u, ok := d.fromCache(ctx, id); ok {
			observability.IncIdentityLookup("cache")
			out[id] = u.Public()
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	stored, err := d.mirror.GetByIDs(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("load mirrored users: %w", err)
	}
	stale := make(map[string]models.User)
	for _, u := range stored {
		if d.fresh(u) {
			observability.IncIdentityLookup("mirror")
			d.toCache(ctx, u)
			out[u.ID] = u.Public()
			continue
		}
		stale[u.ID] = u
	}

	var remote []string
	for _, id := range misses {
		if _, ok := out[id]; !ok {
			remote = append(remote, id)
		}
	}
	if len(remote) == 0 {
		return out, nil
	}

	fetched, err := d.provider.GetUsers(ctx, remote)
	if err != nil {
		logger.Warn().Err(err).Int("count", len(remote)).Msg("identity provider unavailable, serving stale profiles")
	}
	for _, u := range fetched {
		observability.IncIdentityLookup("provider")
		out[u.ID] = d.store(ctx, u).Public()
	}
	for id, u := range stale {
		if _, ok := out[id]; !ok {
			observability.IncIdentityLookup("stale")
			out[id] = u.Public()
		}
	}
	return out, nil
}

// Sync pulls the user from the provider and writes it through to the mirror.
// Mirror errors such as a username collision are returned to the caller.
func (d *Directory) Sync(ctx context.Context, id string) (models.User, error) {
	fetched, err := d.provider.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	saved, err := d.mirror.Upsert(ctx, fetched)
	if err != nil {
		return models.User{}, err
	}
	d.toCache(ctx, saved)
	return saved, nil
}

func (d *Directory) fresh(u models.User) bool {
	return d.now().Sub(u.SyncedAt) < d.maxStaleness
}

// store mirrors a provider user; a mirror failure still returns the fetched copy.
func (d *Directory) store(ctx context.Context, u models.User) models.User {
	saved, err := d.mirror.Upsert(ctx, u)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", u.ID).Msg("mirror upsert failed")
		return u
	}
	d.toCache(ctx, saved)
	return saved
}

func (d *Directory) fromCache(ctx context.Context, id string) (models.User, bool) {
	if d.cache == nil {
		return models.User{}, false
	}
	u, ok, err := d.cache.Get(ctx, id)
	if err != nil {
		logger.Debug().Err(err).Str("user_id", id).Msg("identity cache read failed")
		return models.User{}, false
	}
	return u, ok
}

func (d *Directory) toCache(ctx context.Context, u models.User) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, u, d.cacheTTL); err != nil {
		logger.Debug().Err(err).Str("user_id", u.ID).Msg("identity cache write failed")
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Resolver is what request handlers need from the directory.
type Resolver interface {
	Profile(ctx context.Context, id string) (models.Profile, error)
	Profiles(ctx context.Context, ids []string) (map[string]models.Profile, error)
	Sync(ctx context.Context, id string) (models.User, error)
}

var _ Resolver = (*Directory)(nil)
