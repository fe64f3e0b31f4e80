package cache

import (
	"strings"
	"testing"
	"time"
)

func TestPageKey(t *testing.T) {
	a := PageKey([]byte("<PAGE/>"), "xml")
	b := PageKey([]byte("<PAGE/>"), "xml")
	c := PageKey([]byte("<PAGE/>"), "hocr")
	d := PageKey([]byte("<PAGE />"), "xml")

	if a != b {
		t.Errorf("expected identical keys for identical content, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected format to change the key")
	}
	if a == d {
		t.Error("expected content to change the key")
	}
	if !strings.HasPrefix(a, keyVersion) {
		t.Errorf("expected key prefix %s, got %s", keyVersion, a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_ZeroTTLUsesDefault(t *testing.T) {
	c := NewMemoryCache(20*time.Millisecond, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before the default expiration")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire after the default expiration")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := PageKey([]byte("page"), "xml")

	if err := c.Set(key, []byte("lines"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != "lines" {
		t.Fatalf("expected hit, got %q (%v)", got, ok)
	}

	if err := c.Set(key, []byte("lines"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of removed entry should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	key := PageKey([]byte("page"), "json")

	if err := c.disk.Set(key, []byte("from-disk"), 0); err != nil {
		t.Fatalf("disk Set failed: %v", err)
	}
	if _, ok := c.memory.Get(key); ok {
		t.Fatal("memory layer should start empty")
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "from-disk" {
		t.Fatalf("expected disk hit, got %q (%v)", got, ok)
	}
	if _, ok := c.memory.Get(key); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected miss after Clear")
	}
}
