package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pathwise/pathwise/internal/provider"
)

type fakeBackend struct {
	models []provider.ModelInfo
	err    error
	calls  int
}

func (f *fakeBackend) ListModels(_ context.Context) ([]provider.ModelInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

func (f *fakeBackend) Generate(_ context.Context, _ *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	return nil, errors.New("not implemented")
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCatalogCachesInRedis(t *testing.T) {
	backend := &fakeBackend{models: []provider.ModelInfo{
		{Name: "models/gemini-2.0-flash", SupportedActions: []string{"generateContent"}},
	}}
	cache := NewRedisCache(newTestRedis(t), time.Minute, nil)
	cat := NewCatalog(backend, cache, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		models, err := cat.Models(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(models) != 1 || models[0].Name != "models/gemini-2.0-flash" {
			t.Fatalf("models = %+v", models)
		}
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1 (served from cache)", backend.calls)
	}
}

func TestCatalogRefreshBypassesCache(t *testing.T) {
	backend := &fakeBackend{models: []provider.ModelInfo{{Name: "models/a"}}}
	cache := NewRedisCache(newTestRedis(t), time.Minute, nil)
	cat := NewCatalog(backend, cache, nil)

	ctx := context.Background()
	if _, err := cat.Models(ctx); err != nil {
		t.Fatal(err)
	}
	backend.models = []provider.ModelInfo{{Name: "models/b"}}
	models, err := cat.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if models[0].Name != "models/b" {
		t.Errorf("refresh returned %q, want live catalog", models[0].Name)
	}
	// Subsequent cached read sees the refreshed catalog.
	models, err = cat.Models(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if models[0].Name != "models/b" {
		t.Errorf("cached read returned %q after refresh", models[0].Name)
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2", backend.calls)
	}
}

func TestCatalogBackendErrorPropagates(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	cat := NewCatalog(backend, nil, nil)
	if _, err := cat.Models(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()
	cache.Set(ctx, []provider.ModelInfo{{Name: "models/x"}})
	if _, ok := cache.Get(ctx); !ok {
		t.Fatal("expected fresh entry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get(ctx); ok {
		t.Fatal("expected expired entry")
	}
}

func TestRedisCacheCorruptEntryIgnored(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Set(context.Background(), "pathwise:model-catalog", "not json", 0).Err(); err != nil {
		t.Fatal(err)
	}
	cache := NewRedisCache(client, time.Minute, nil)
	if _, ok := cache.Get(context.Background()); ok {
		t.Fatal("corrupt entry should be a miss")
	}
}
