package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx := context.Background()
	key, err := store.Write(ctx, "/backgrounds/../backgrounds/a.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "backgrounds/a.png" {
		t.Fatalf("key = %q, want %q", key, "backgrounds/a.png")
	}
	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(data) != "png" {
		t.Fatalf("data = %q", data)
	}
	if _, err := store.Read(ctx, "backgrounds/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read(missing) = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "..", "../etc/passwd", "a/../../b", "./"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("sanitizeKey(%q) should fail", key)
		}
	}
}

func TestNewKey(t *testing.T) {
	key := NewKey("backgrounds", ".webp", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(key, "backgrounds/2024/05/01/") || !strings.HasSuffix(key, ".webp") {
		t.Fatalf("unexpected key %q", key)
	}
}
