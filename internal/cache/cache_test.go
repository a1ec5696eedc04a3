package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("loc-1|gen7|max20")
	b := Key("loc-1|gen7|max20")
	c := Key("loc-1|gen8|max20")

	if a != b {
		t.Error("same identity produced different keys")
	}
	if a == c {
		t.Error("different identities produced the same key")
	}
	if !strings.HasPrefix(a, "annals:v1:") {
		t.Errorf("key missing version prefix: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("hit on empty cache")
	}

	if err := c.Set("k", []byte("view"), 0); err != nil {
		t.Fatal(err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("view")) {
		t.Errorf("get = %q, %v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("hit after delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("view"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("hit after TTL elapsed")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("view"), 0); err != nil {
		t.Fatal(err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("view")) {
		t.Errorf("get = %q, %v", val, found)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if err := c.Set("k", []byte("view"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("hit on expired entry")
	}
	// The expired file is removed on read.
	if _, err := os.Stat(filepath.Join(dir, "k.cache")); !os.IsNotExist(err) {
		t.Error("expired entry left on disk")
	}
}

func TestDiskCacheDropsCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	path := filepath.Join(dir, "k.cache")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("hit on corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry left on disk")
	}
}

func TestDiskCacheClearLeavesForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if err := c.Set("k", []byte("view"), 0); err != nil {
		t.Fatal(err)
	}
	foreign := filepath.Join(dir, "annals.db")
	if err := os.WriteFile(foreign, []byte("db"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("hit after clear")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("clear removed an unrelated file")
	}
}

func TestLayeredCachePromotesDiskHit(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	if err := c.Set("k", []byte("view"), 0); err != nil {
		t.Fatal(err)
	}

	// Simulate a restart: a fresh layered cache over the same directory
	// should hit via disk and repopulate memory.
	fresh := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := fresh.Get("k")
	if !found || !bytes.Equal(val, []byte("view")) {
		t.Fatalf("disk hit = %q, %v", val, found)
	}

	if _, found := fresh.memory.Get("k"); !found {
		t.Error("disk hit not promoted to memory")
	}
}

func TestLayeredCacheDelete(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("view"), 0); err != nil {
		t.Fatal(err)
	}
	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("hit after delete")
	}
}
