package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatalf("empty cache should miss")
	}

	m.Set(ctx, "k", []byte("v1"), time.Minute)
	got, ok := m.Get(ctx, "k")
	if !ok || string(got) != "v1" {
		t.Fatalf("Get = %q, %v; want v1, true", got, ok)
	}

	// 同键重写必须覆盖，不追加
	m.Set(ctx, "k", []byte("v2"), time.Minute)
	got, ok = m.Get(ctx, "k")
	if !ok || string(got) != "v2" {
		t.Fatalf("after overwrite Get = %q, %v; want v2, true", got, ok)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), 30*time.Millisecond)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatalf("entry should be alive before TTL")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatalf("entry should be gone after TTL")
	}
}

func TestMemoryCloseStopsCleanupLoop(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Close()
	select {
	case <-m.stop:
	default:
		t.Fatalf("stop channel should be closed")
	}

	// 关闭后读写照常，惰性过期仍然生效
	m.Set(ctx, "k", []byte("v"), time.Minute)
	if got, ok := m.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("Get after Close = %q, %v", got, ok)
	}
}

func TestKeys(t *testing.T) {
	if LatestKey() != "news:latest" {
		t.Fatalf("LatestKey = %q", LatestKey())
	}
	if MoreKey("abc") != "news:more:abc" {
		t.Fatalf("MoreKey = %q", MoreKey("abc"))
	}
}
