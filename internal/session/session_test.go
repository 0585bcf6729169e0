package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSessionFieldsKeepInsertionOrder(t *testing.T) {
	s := New("U1", time.Unix(0, 0))
	s.Put("name", "Acme")
	s.Put("domain", "acme.com")
	s.Put("name", "Acme Corp")

	want := []Field{{Key: "name", Value: "Acme Corp"}, {Key: "domain", Value: "acme.com"}}
	if diff := cmp.Diff(want, s.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if v, ok := s.Get("domain"); !ok || v != "acme.com" {
		t.Fatalf("expected domain acme.com, got %q (%v)", v, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected missing key to be absent")
	}
}

func TestSessionLines(t *testing.T) {
	s := New("U1", time.Unix(0, 0))
	if got := s.Lines("commits"); got != nil {
		t.Fatalf("expected nil lines, got %v", got)
	}
	s.PutLines("commits", []string{"api: fix login", "web: bump deps"})
	if diff := cmp.Diff([]string{"api: fix login", "web: bump deps"}, s.Lines("commits")); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	s.PutLines("commits", nil)
	if got := s.Lines("commits"); got != nil {
		t.Fatalf("expected empty list to read back as nil, got %v", got)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := New("U1", time.Unix(0, 0))
	s.Put("name", "Acme")
	clone := s.Clone()
	clone.Put("name", "Other")
	if v, _ := s.Get("name"); v != "Acme" {
		t.Fatalf("expected original to be unchanged, got %q", v)
	}
}

func TestStateIsActive(t *testing.T) {
	if StateIdle.IsActive() {
		t.Fatal("expected IDLE to be inactive")
	}
	for _, state := range []State{StateRegisteringOrg, StateCreatingTeam, StateAddingUser, StateStandupYesterday,
		StateStandupToday, StateStandupBlockers, StateUpdatingGitHub, StateUpdatingJira} {
		if !state.IsActive() {
			t.Fatalf("expected %s to be active", state)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	s := New("U1", base)
	if s.Expired(base.Add(30*time.Minute), 30*time.Minute) {
		t.Fatal("expected session exactly at the timeout to survive")
	}
	if !s.Expired(base.Add(30*time.Minute+time.Nanosecond), 30*time.Minute) {
		t.Fatal("expected session past the timeout to expire")
	}
}
