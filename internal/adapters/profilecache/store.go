// Package profilecache wraps a ports.ProfileStore with a bounded, expiring
// in-memory cache. Lookup errors are never cached.
package profilecache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

const (
	defaultSize = 1024
	defaultTTL  = 30 * time.Second
)

// entry is a cached lookup outcome. found=false records a confirmed miss.
type entry[T any] struct {
	value T
	found bool
}

// Options configures the cache.
type Options struct {
	Size int
	TTL  time.Duration
	// OnLookup is called for every lookup with the store name and whether it hit the cache.
	OnLookup func(store string, hit bool)
}

// Store is a caching ports.ProfileStore decorator.
type Store struct {
	next     ports.ProfileStore
	admins   *expirable.LRU[string, entry[domainauth.AdminProfile]]
	tenants  *expirable.LRU[string, entry[domainauth.TenantProfile]]
	onLookup func(store string, hit bool)

	// gen advances on every Invalidate. A fetch that started under an older
	// generation does not fill the cache, so a lookup in flight during an
	// invalidation cannot re-cache the superseded profile.
	gen atomic.Uint64
}

var _ ports.ProfileStore = (*Store)(nil)

// New wraps next. Zero Size or TTL fall back to defaults.
func New(next ports.ProfileStore, opts Options) *Store {
	size := opts.Size
	if size <= 0 {
		size = defaultSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	onLookup := opts.OnLookup
	if onLookup == nil {
		onLookup = func(string, bool) {}
	}
	return &Store{
		next:     next,
		admins:   expirable.NewLRU[string, entry[domainauth.AdminProfile]](size, nil, ttl),
		tenants:  expirable.NewLRU[string, entry[domainauth.TenantProfile]](size, nil, ttl),
		onLookup: onLookup,
	}
}

// FindAdminProfile returns the cached outcome or delegates and caches it.
func (s *Store) FindAdminProfile(ctx context.Context, userID string) (domainauth.AdminProfile, error) {
	return lookup(ctx, s, s.admins, userID, "admin", s.next.FindAdminProfile)
}

// FindTenantProfile returns the cached outcome or delegates and caches it.
func (s *Store) FindTenantProfile(ctx context.Context, userID string) (domainauth.TenantProfile, error) {
	return lookup(ctx, s, s.tenants, userID, "tenant", s.next.FindTenantProfile)
}

// Invalidate drops any cached outcome for userID.
func (s *Store) Invalidate(userID string) {
	s.gen.Add(1)
	s.admins.Remove(userID)
	s.tenants.Remove(userID)
}

// Len returns the number of cached admin and tenant outcomes.
func (s *Store) Len() int { return s.admins.Len() + s.tenants.Len() }

func lookup[T any](
	ctx context.Context,
	s *Store,
	cache *expirable.LRU[string, entry[T]],
	userID, name string,
	fetch func(context.Context, string) (T, error),
) (T, error) {
	if e, ok := cache.Get(userID); ok {
		s.onLookup(name, true)
		if !e.found {
			var zero T
			return zero, domainauth.ErrProfileNotFound
		}
		return e.value, nil
	}
	s.onLookup(name, false)

	gen := s.gen.Load()
	v, err := fetch(ctx, userID)
	if s.gen.Load() != gen {
		return v, err
	}
	switch {
	case err == nil:
		cache.Add(userID, entry[T]{value: v, found: true})
	case errors.Is(err, domainauth.ErrProfileNotFound):
		cache.Add(userID, entry[T]{})
	}
	return v, err
}
