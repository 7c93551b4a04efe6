package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/gosplit/internal/domain"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "split:1", []byte(`{"ID":"1"}`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "split:1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(val) != `{"ID":"1"}` {
		t.Fatalf("unexpected value %s", val)
	}

	if !mr.Exists("cache:split:1") {
		t.Fatalf("expected key to be stored under cache prefix")
	}
}

func TestCacheMiss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	_, err := NewCache(client).Get(context.Background(), "absent")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := cache.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if mr.Exists("cache:k") {
		t.Fatalf("expected key to be deleted")
	}
}

func TestCacheSetNXKeepsExistingValue(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "split:1", []byte{}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	stored, err := cache.SetNX(ctx, "split:1", []byte(`{"ID":"1"}`), time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if stored {
		t.Fatalf("expected setnx to leave the existing marker in place")
	}

	val, err := cache.Get(ctx, "split:1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(val) != 0 {
		t.Fatalf("expected empty marker, got %s", val)
	}
	requireTTL(t, mr, "cache:split:1", time.Minute)

	mr.FastForward(2 * time.Minute)

	stored, err = cache.SetNX(ctx, "split:1", []byte(`{"ID":"1"}`), time.Minute)
	if err != nil || !stored {
		t.Fatalf("expected setnx to store after expiry, got %v, %v", stored, err)
	}
}
