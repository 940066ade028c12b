package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Save(ctx, "userToken", []byte("abc")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, "userToken", []byte("def")); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, ok, err := store.Load(ctx, "userToken")
	if err != nil || !ok {
		t.Fatalf("Load = %q, %v, %v", got, ok, err)
	}
	if string(got) != "def" {
		t.Fatalf("Load = %q, want def", got)
	}
	info, err := os.Stat(filepath.Join(store.BasePath(), "userToken"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, ok, err := store.Load(ctx, "userEmail")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if ok || got != nil {
		t.Fatalf("expected not found, got %q", got)
	}
	if err := store.Delete(ctx, "userEmail"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := bytes.Repeat([]byte{7}, 32)
	first, err := NewFileStore(dir, key)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.Save(ctx, "userToken", []byte("secret-token")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "userToken"))
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if bytes.Contains(raw, []byte("secret-token")) {
		t.Fatal("value stored in plaintext despite encryption key")
	}

	second, err := NewFileStore(dir, key)
	if err != nil {
		t.Fatalf("NewFileStore reopen: %v", err)
	}
	got, ok, err := second.Load(ctx, "userToken")
	if err != nil || !ok || string(got) != "secret-token" {
		t.Fatalf("Load after reopen = %q, %v, %v", got, ok, err)
	}

	wrong, err := NewFileStore(dir, bytes.Repeat([]byte{8}, 32))
	if err != nil {
		t.Fatalf("NewFileStore wrong key: %v", err)
	}
	if _, _, err := wrong.Load(ctx, "userToken"); err == nil {
		t.Fatal("expected error opening with the wrong key")
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{key: "userToken", ok: true},
		{key: " userEmail ", ok: true},
		{key: "", ok: false},
		{key: "../etc/passwd", ok: false},
		{key: "a/b", ok: false},
		{key: "..", ok: false},
		{key: ".tmp-123", ok: false},
	}
	for _, tc := range cases {
		_, err := sanitizeKey(tc.key)
		if (err == nil) != tc.ok {
			t.Fatalf("sanitizeKey(%q) err = %v, want ok=%v", tc.key, err, tc.ok)
		}
	}
}
