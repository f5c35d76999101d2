package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNull(t *testing.T) {
	ctx := context.Background()
	c := Null()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("Null().Get should always miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	png := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	if err := c.Set(ctx, "image:abc", png, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, err := c.Get(ctx, "image:abc")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if string(got) != string(png) {
		t.Errorf("Get = %v, want %v", got, png)
	}

	if err := c.Delete(ctx, "image:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "image:abc"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "image:abc"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("not json"), 0o644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss without error", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestFileCacheStats(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	st, err := c.Stats()
	if err != nil || st.Entries != 0 {
		t.Fatalf("Stats on empty cache = %+v, %v", st, err)
	}

	c.Set(ctx, "live", []byte("png"), time.Hour)
	c.Set(ctx, "forever", []byte("png"), 0)
	c.Set(ctx, "stale", []byte("png"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	st, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != 3 || st.Expired != 1 {
		t.Errorf("Stats = %+v, want 3 entries with 1 expired", st)
	}
	if st.Bytes == 0 {
		t.Error("Stats.Bytes should count entry sizes")
	}
}

func TestImageKey(t *testing.T) {
	base := ImageKeyOpts{Backend: "exec", Tool: "/usr/local/bin/dot", Format: "png", DPI: 150}

	k1 := ImageKey("digraph {\n\n}", base)
	if k1 != ImageKey("digraph {\n\n}", base) {
		t.Error("ImageKey should be deterministic")
	}

	variants := []ImageKeyOpts{
		{Backend: "builtin", Format: "png", DPI: 150},
		{Backend: "exec", Tool: "/usr/local/bin/dot", Format: "svg", DPI: 150},
		{Backend: "exec", Tool: "/usr/local/bin/dot", Format: "png", DPI: 300},
		{Backend: "exec", Tool: "/opt/graphviz/bin/dot", Format: "png", DPI: 150},
	}
	for _, v := range variants {
		if ImageKey("digraph {\n\n}", v) == k1 {
			t.Errorf("ImageKey(%+v) should differ from %+v", v, base)
		}
	}
	if ImageKey("digraph {\n  a;\n}", base) == k1 {
		t.Error("ImageKey should depend on the DOT text")
	}
	if !strings.HasPrefix(k1, "image:exec:png:150:") {
		t.Errorf("ImageKey = %q, want image:exec:png:150: prefix", k1)
	}
}
