package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

func TestProviderCacheRoundTrip(t *testing.T) {
	cache := NewProviderCache(newFakeRedis(), time.Minute, nil)
	ctx := context.Background()

	providers := []domain.User{
		{ID: "p1", Service: "plumbing", City: "mumbai"},
		{ID: "p2", Service: "plumbing", City: "mumbai"},
	}
	cache.Set(ctx, "plumbing", "city", "mumbai", providers)

	got, ok := cache.Get(ctx, "plumbing", "city", "mumbai")
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if len(got) != 2 || got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("Get() = %+v, want the two stored providers", got)
	}
}

func TestProviderCacheScopesKeysByLevel(t *testing.T) {
	// the same place name can sit at several hierarchy levels; a cached
	// sub-district result must not answer the city query for that name
	cache := NewProviderCache(newFakeRedis(), time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, "plumbing", "sub_district", "delhi", []domain.User{})

	if _, ok := cache.Get(ctx, "plumbing", "city", "delhi"); ok {
		t.Error("city query answered from the sub_district entry")
	}
	got, ok := cache.Get(ctx, "plumbing", "sub_district", "delhi")
	if !ok {
		t.Fatal("sub_district entry lost")
	}
	if len(got) != 0 {
		t.Errorf("sub_district entry = %+v, want empty list", got)
	}
}

func TestProviderCacheInvalidate(t *testing.T) {
	cache := NewProviderCache(newFakeRedis(), time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, "plumbing", "sub_district", "andheri", []domain.User{})
	cache.Set(ctx, "plumbing", "city", "mumbai", []domain.User{{ID: "p1"}})
	cache.Set(ctx, "cleaning", "city", "mumbai", []domain.User{{ID: "p2"}})

	cache.Invalidate(ctx, "plumbing")

	if _, ok := cache.Get(ctx, "plumbing", "sub_district", "andheri"); ok {
		t.Error("plumbing sub_district entry survived invalidation")
	}
	if _, ok := cache.Get(ctx, "plumbing", "city", "mumbai"); ok {
		t.Error("plumbing city entry survived invalidation")
	}
	if _, ok := cache.Get(ctx, "cleaning", "city", "mumbai"); !ok {
		t.Error("cleaning entry dropped by plumbing invalidation")
	}
}

func TestProviderCacheNilClientDisables(t *testing.T) {
	cache := NewProviderCache(nil, time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, "plumbing", "city", "mumbai", []domain.User{{ID: "p1"}})
	if _, ok := cache.Get(ctx, "plumbing", "city", "mumbai"); ok {
		t.Error("nil-client cache reported a hit")
	}
}
