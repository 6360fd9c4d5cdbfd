package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "a/b", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "a/b")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("Get = %q, want %q", got, "hello")
	}

	// Returned slice is a copy; mutating it must not touch the store.
	got[0] = 'X'
	again, _ := m.Get(ctx, "a/b")
	if string(again) != "hello" {
		t.Errorf("stored object mutated through returned slice: %q", again)
	}
}

func TestMemoryMissingKey(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get: got %v, want ErrNotFound", err)
	}
	if _, err := m.URL(ctx, "nope", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Errorf("URL: got %v, want ErrNotFound", err)
	}
	if exists, err := m.Exists(ctx, "nope"); err != nil || exists {
		t.Errorf("Exists = (%t, %v), want (false, nil)", exists, err)
	}
	// Deleting a missing key is not an error.
	if err := m.Delete(ctx, "nope"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Put(ctx, "k", []byte("v"))
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after delete, want 0", m.Len())
	}
}
