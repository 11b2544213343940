package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/cartogram/pkg/cache"
)

func TestClearCacheDir(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"cartogram:a", "cartogram:b", "artifact:svg:c"} {
		if err := fc.Set(ctx, key, []byte("{}"), time.Hour); err != nil {
			t.Fatalf("Set(%q) error: %v", key, err)
		}
	}

	n, err := clearCacheDir(dir)
	if err != nil {
		t.Fatalf("clearCacheDir() error: %v", err)
	}
	if n != 3 {
		t.Errorf("clearCacheDir() removed %d entries, want 3", n)
	}

	if _, ok, _ := fc.Get(ctx, "cartogram:a"); ok {
		t.Error("entry should be gone after clear")
	}
}

func TestClearCacheDirMissing(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{"empty path", ""},
		{"missing directory", filepath.Join(t.TempDir(), "never-created")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := clearCacheDir(tt.dir)
			if err != nil {
				t.Fatalf("clearCacheDir(%q) error: %v", tt.dir, err)
			}
			if n != 0 {
				t.Errorf("clearCacheDir(%q) = %d, want 0", tt.dir, n)
			}
		})
	}
}

func TestCachePathCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("CARTOGRAM_CACHE_BACKEND", "file")
	t.Setenv("CARTOGRAM_CACHE_DIR", dir)

	root := New(io.Discard, LogInfo).RootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
}
