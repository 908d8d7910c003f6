package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/hUstbit37/ipms-search-sub001/config"
)

func newRedisStore(t *testing.T, ttlHours int) (*RedisDraftStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisDraftStore(context.Background(), &config.RedisConfig{
		Addr:     mr.Addr(),
		TTLHours: ttlHours,
	})
	if err != nil {
		t.Fatalf("NewRedisDraftStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisDraftStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "acme:alice:transfer_terms_draft"); err != nil || ok {
		t.Fatalf("Expected no draft, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "acme:alice:transfer_terms_draft", `{"fee_type":"NO_FEE"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := store.Get(ctx, "acme:alice:transfer_terms_draft")
	if err != nil || !ok {
		t.Fatalf("Expected draft, got ok=%v err=%v", ok, err)
	}
	if value != `{"fee_type":"NO_FEE"}` {
		t.Errorf("Unexpected value %s", value)
	}

	if err := store.Delete(ctx, "acme:alice:transfer_terms_draft"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "acme:alice:transfer_terms_draft"); ok {
		t.Error("Expected draft to be deleted")
	}
}

func TestRedisDraftStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t, 2)
	ctx := context.Background()

	store.Set(ctx, "k", "v")
	if ttl := mr.TTL("k"); ttl != 2*time.Hour {
		t.Errorf("Expected TTL 2h, got %v", ttl)
	}

	mr.FastForward(3 * time.Hour)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("Expected draft to expire")
	}
}

func TestRedisDraftStoreNoTTL(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	store.Set(context.Background(), "k", "v")
	if ttl := mr.TTL("k"); ttl != 0 {
		t.Errorf("Expected no TTL, got %v", ttl)
	}
}

func TestRedisDraftStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisDraftStore(context.Background(), &config.RedisConfig{Addr: addr})
	if err == nil {
		t.Error("Expected error when redis is unreachable")
	}
}

func TestRedisDraftStoreReadError(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	mr.SetError("LOADING")

	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Error("Expected read error to be returned")
	}
	if err := store.Set(context.Background(), "k", "v"); err == nil {
		t.Error("Expected write error to be returned")
	}
}
