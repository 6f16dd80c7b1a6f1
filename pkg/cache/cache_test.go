package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// RenderKey should include options in hash
	svg := k.RenderKey("hash123", RenderKeyOpts{Format: "svg"})
	png := k.RenderKey("hash123", RenderKeyOpts{Format: "png"})
	if svg == png {
		t.Error("Different RenderKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(svg, "render:") {
		t.Errorf("RenderKey unexpected: %s", svg)
	}
	if other := k.RenderKey("hash456", RenderKeyOpts{Format: "svg"}); other == svg {
		t.Error("Different state hashes should produce different keys")
	}

	if got := k.SnapshotKey("u1"); got != "snapshot:u1" {
		t.Errorf("SnapshotKey unexpected: %s", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "user:123:")

	// All keys should be prefixed
	if got := scoped.SnapshotKey("u1"); got != "user:123:snapshot:u1" {
		t.Errorf("ScopedKeyer SnapshotKey unexpected: %s", got)
	}

	renderKey := scoped.RenderKey("abc", RenderKeyOpts{Format: "svg"})
	if renderKey != "user:123:"+inner.RenderKey("abc", RenderKeyOpts{Format: "svg"}) {
		t.Errorf("ScopedKeyer RenderKey should be prefixed: %s", renderKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.SnapshotKey("u")
	if key != "prefix:snapshot:u" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("marked error not retryable")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("marked error lost its cause")
	}
	if !IsRetryable(fmt.Errorf("save garden: %w", err)) {
		t.Error("wrapping hid the mark")
	}
	if IsRetryable(ErrNotFound) {
		t.Error("unmarked error is retryable")
	}
}

func TestRetry(t *testing.T) {
	transient := Retryable(ErrNetwork)
	tests := []struct {
		name      string
		attempts  int
		failures  int   // calls that fail before success
		failWith  error // error returned while failing
		wantCalls int
		wantErr   error
	}{
		{"first call succeeds", 3, 0, transient, 1, nil},
		{"recovers after retries", 3, 2, transient, 3, nil},
		{"gives up", 2, 5, transient, 2, ErrNetwork},
		{"permanent error stops", 3, 5, ErrNotFound, 1, ErrNotFound},
		{"zero attempts calls once", 0, 5, transient, 1, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var notified []int
			b := Backoff{
				Attempts: tt.attempts,
				Delay:    time.Millisecond,
				OnRetry:  func(n int, _ error) { notified = append(notified, n) },
			}
			err := Retry(context.Background(), b, func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if len(notified) != calls-1 {
				t.Errorf("OnRetry called %d times for %d calls", len(notified), calls)
			}
			for i, n := range notified {
				if n != i+1 {
					t.Errorf("OnRetry attempt %d reported as %d", i+1, n)
				}
			}
		})
	}
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, Backoff{Attempts: 3, Delay: time.Hour}, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffWait(t *testing.T) {
	tests := []struct {
		b    Backoff
		n    int
		want time.Duration
	}{
		{Backoff{Delay: time.Second}, 1, time.Second},
		{Backoff{Delay: time.Second}, 3, 4 * time.Second},
		{Backoff{Delay: time.Second, Max: 3 * time.Second}, 2, 2 * time.Second},
		{Backoff{Delay: time.Second, Max: 3 * time.Second}, 3, 3 * time.Second},
		{Backoff{Delay: time.Second, Max: 3 * time.Second}, 40, 3 * time.Second},
		{Backoff{Delay: 5 * time.Second, Max: time.Second}, 1, time.Second},
		{DefaultBackoff, 10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := tt.b.wait(tt.n); got != tt.want {
			t.Errorf("%+v.wait(%d) = %v, want %v", tt.b, tt.n, got, tt.want)
		}
	}
}

func TestFileCacheClearAndPrune(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir = %q", c.Dir())
	}

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if n, err := c.Prune(); err != nil || n != 0 {
		t.Errorf("Prune = %d, %v; want nothing expired", n, err)
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared entry should miss")
	}
}
