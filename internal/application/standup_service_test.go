package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/standup-bot/internal/persistence"
	"github.com/example/standup-bot/internal/summary"
	"github.com/example/standup-bot/internal/testfixtures"
)

type summarizerStub struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []summary.Input
}

func (s *summarizerStub) Generate(_ context.Context, in summary.Input) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, in)
	return s.text, s.err
}

func newStandupService(t *testing.T, summarizer Summarizer) (*StandupService, *testfixtures.SQLiteHarness, testfixtures.Directory, *testfixtures.Clock) {
	t.Helper()
	h := testfixtures.NewSQLiteHarness(t)
	dir := h.SeedDirectory(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewStandupService(h.Store, summarizer, testfixtures.NewIDGenerator("standup").NextFunc(), clock.NowFunc()), h, dir, clock
}

func TestStandupService_SubmitStandup(t *testing.T) {
	ctx := context.Background()

	t.Run("stores generated summary", func(t *testing.T) {
		stub := &summarizerStub{text: "All good"}
		svc, h, dir, clock := newStandupService(t, stub)

		result, err := svc.SubmitStandup(ctx, SubmitStandupParams{
			Identity: "member", Yesterday: " fixed bugs ", Today: "write tests", Blockers: "none",
			Commits: []string{"api: fix"},
		})
		if err != nil {
			t.Fatalf("SubmitStandup returned error: %v", err)
		}
		if !result.Generated || result.Summary != "All good" {
			t.Fatalf("unexpected result %+v", result)
		}
		if len(stub.calls) != 1 || stub.calls[0].Yesterday != "fixed bugs" || len(stub.calls[0].Commits) != 1 {
			t.Fatalf("unexpected summarizer input %+v", stub.calls)
		}

		stored, err := h.Store.Standups().GetStandupForDate(ctx, "member", clock.Today())
		if err != nil {
			t.Fatalf("expected standup to be stored: %v", err)
		}
		if stored.Status != persistence.StandupCompleted || stored.Summary != "All good" || stored.TeamID != dir.Team.ID {
			t.Fatalf("unexpected stored standup %+v", stored)
		}
	})

	t.Run("summary failure stores without summary and returns fallback", func(t *testing.T) {
		svc, h, _, clock := newStandupService(t, &summarizerStub{err: errors.New("model offline")})

		result, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "member", Yesterday: "a", Today: "b", Blockers: "waiting on review"})
		if err != nil {
			t.Fatalf("SubmitStandup returned error: %v", err)
		}
		if result.Generated {
			t.Fatalf("expected fallback summary")
		}
		if !strings.Contains(result.Summary, "AI summary unavailable") || !strings.Contains(result.Summary, "waiting on review") {
			t.Fatalf("unexpected fallback %q", result.Summary)
		}
		stored, _ := h.Store.Standups().GetStandupForDate(ctx, "member", clock.Today())
		if stored.Summary != "" || stored.Status != persistence.StandupCompleted {
			t.Fatalf("unexpected stored standup %+v", stored)
		}
	})

	t.Run("second submission on the same day is rejected", func(t *testing.T) {
		stub := &summarizerStub{text: "first"}
		svc, h, _, clock := newStandupService(t, stub)

		if _, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "member", Yesterday: "one", Today: "two", Blockers: "none"}); err != nil {
			t.Fatalf("first submission failed: %v", err)
		}
		_, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "member", Yesterday: "changed", Today: "changed", Blockers: "none"})
		if !errors.Is(err, ErrAlreadySubmitted) {
			t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
		}
		if len(stub.calls) != 1 {
			t.Fatalf("expected no summary for the rejected submission, got %d calls", len(stub.calls))
		}
		stored, _ := h.Store.Standups().GetStandupForDate(ctx, "member", clock.Today())
		if stored.Yesterday != "one" {
			t.Fatalf("expected first standup to be kept, got %q", stored.Yesterday)
		}

		clock.Advance(24 * time.Hour)
		if _, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "member", Yesterday: "next", Today: "day", Blockers: "none"}); err != nil {
			t.Fatalf("expected next day submission to succeed, got %v", err)
		}
	})

	t.Run("users without a team cannot submit", func(t *testing.T) {
		svc, _, _, _ := newStandupService(t, nil)
		_, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "admin", Yesterday: "a", Today: "b", Blockers: "none"})
		if !errors.Is(err, ErrNoTeam) {
			t.Fatalf("expected ErrNoTeam, got %v", err)
		}
	})

	t.Run("unregistered users cannot submit", func(t *testing.T) {
		svc, _, _, _ := newStandupService(t, nil)
		_, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "ghost", Yesterday: "a", Today: "b", Blockers: "none"})
		if !errors.Is(err, ErrNotRegistered) {
			t.Fatalf("expected ErrNotRegistered, got %v", err)
		}
	})

	t.Run("concurrent submissions store exactly one standup", func(t *testing.T) {
		svc, h, dir, clock := newStandupService(t, &summarizerStub{text: "ok"})

		var wg sync.WaitGroup
		errs := make(chan error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.SubmitStandup(ctx, SubmitStandupParams{Identity: "lead", Yesterday: "a", Today: "b", Blockers: "none"})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadySubmitted):
			default:
				t.Fatalf("unexpected error %v", err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("expected exactly one success, got %d", succeeded)
		}
		standups, _ := h.Store.Standups().ListTeamStandups(ctx, dir.Team.ID, clock.Today())
		if len(standups) != 1 {
			t.Fatalf("expected one stored standup, got %d", len(standups))
		}
	})
}

func TestStandupService_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("team status lists members and submissions", func(t *testing.T) {
		svc, h, dir, clock := newStandupService(t, nil)
		h.SeedStandup(t, testfixtures.NewStandup(dir.Member, clock.Today()))

		status, err := svc.TeamStatus(ctx, "lead", clock.Today())
		if err != nil {
			t.Fatalf("TeamStatus returned error: %v", err)
		}
		submitted := map[string]bool{}
		for _, m := range status.Members {
			submitted[m.User.Identity] = m.Submitted
		}
		if len(submitted) != 2 || !submitted["member"] || submitted["lead"] {
			t.Fatalf("unexpected member status %v", submitted)
		}
	})

	t.Run("team status requires a team", func(t *testing.T) {
		svc, _, _, clock := newStandupService(t, nil)
		if _, err := svc.TeamStatus(ctx, "admin", clock.Today()); !errors.Is(err, ErrNoTeam) {
			t.Fatalf("expected ErrNoTeam, got %v", err)
		}
	})

	t.Run("organization status is limited to administrators", func(t *testing.T) {
		svc, h, dir, clock := newStandupService(t, nil)
		h.SeedStandup(t, testfixtures.NewStandup(dir.Lead, clock.Today()))
		h.SeedStandup(t, testfixtures.NewStandup(dir.Member, clock.Today(), func(s *persistence.Standup) {
			s.Status = persistence.StandupInProgress
		}))

		status, err := svc.OrganizationStatus(ctx, "admin", clock.Today())
		if err != nil {
			t.Fatalf("OrganizationStatus returned error: %v", err)
		}
		if len(status.Teams) != 1 || status.Teams[0].Members != 2 || status.Teams[0].Submitted != 1 {
			t.Fatalf("unexpected organization status %+v", status.Teams)
		}

		for _, identity := range []string{"lead", "member"} {
			if _, err := svc.OrganizationStatus(ctx, identity, clock.Today()); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("%s: expected ErrUnauthorized, got %v", identity, err)
			}
		}
	})
}
