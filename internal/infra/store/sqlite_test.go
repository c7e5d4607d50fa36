package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_FlagLifecycle(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	got, err := s.Flag(ctx, "onboarding")
	if err != nil {
		t.Fatalf("flag: %v", err)
	}
	if got {
		t.Error("unknown flag should read false")
	}

	if err := s.SetFlag(ctx, "onboarding", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := s.Flag(ctx, "onboarding"); !got {
		t.Error("flag should be true after set")
	}

	if err := s.SetFlag(ctx, "onboarding", false); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got, _ := s.Flag(ctx, "onboarding"); got {
		t.Error("flag should be false after reset")
	}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.sqlite")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetFlag(ctx, "onboarding", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if got, err := reopened.Flag(ctx, "onboarding"); err != nil || !got {
		t.Errorf("flag after reopen: got %v, %v", got, err)
	}
}

func TestStore_ClosedErrors(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()

	if _, err := s.Flag(context.Background(), "onboarding"); err == nil {
		t.Error("expected error on closed store")
	}
}
