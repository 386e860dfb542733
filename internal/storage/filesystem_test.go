package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	key, err := store.Write(context.Background(), "packshot/abc.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "packshot/abc.png" {
		t.Fatalf("key = %q", key)
	}
	if !store.Exists(key) {
		t.Fatalf("expected key to exist after write")
	}

	data, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q", data)
	}
}

func TestSanitizeKeyBlocksTraversal(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
		ok   bool
	}{
		{name: "plain", key: "a/b.png", want: "a/b.png", ok: true},
		{name: "leading slash stripped", key: "/a/b.png", want: "a/b.png", ok: true},
		{name: "dot segments collapsed", key: "a/./b.png", want: "a/b.png", ok: true},
		{name: "internal dotdot stays inside", key: "a/x/../b.png", want: "a/b.png", ok: true},
		{name: "empty rejected", key: "   ", ok: false},
		{name: "escape rejected", key: "../secrets", ok: false},
		{name: "deep escape rejected", key: "a/../../secrets", ok: false},
		{name: "backslash escape rejected", key: `..\..\secrets`, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.ok {
				if err != nil {
					t.Fatalf("sanitizeKey(%q) error: %v", tc.key, err)
				}
				if got != tc.want {
					t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tc.key, got)
			}
		})
	}
}

func TestWriteNeverEscapesRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Write(context.Background(), "../outside.txt", []byte("nope")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if _, statErr := os.Stat(filepath.Join(root, "outside.txt")); statErr == nil {
		t.Fatalf("file escaped the storage root")
	}
}

func TestExistsOnMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.Exists("missing.png") {
		t.Fatalf("missing key should not exist")
	}
}
