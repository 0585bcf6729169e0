package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/standup-bot/internal/persistence"
	"github.com/example/standup-bot/internal/testfixtures"
)

func newOrganizationService(t *testing.T) (*OrganizationService, *testfixtures.SQLiteHarness) {
	t.Helper()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewOrganizationService(h.Store, testfixtures.NewIDGenerator("org").NextFunc(), clock.NowFunc()), h
}

func TestOrganizationService_RegisterOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("creates organization and administrator together", func(t *testing.T) {
		svc, h := newOrganizationService(t)

		got, err := svc.RegisterOrganization(ctx, RegisterOrganizationParams{
			Name: " Acme ", Domain: "Acme.com", CreatorIdentity: "U1", CreatorName: "Una", CreatorEmail: "Una@Acme.com",
		})
		if err != nil {
			t.Fatalf("RegisterOrganization returned error: %v", err)
		}

		wantOrg := persistence.Organization{
			ID: "org-1", Name: "Acme", Domain: "acme.com", CreatorIdentity: "U1", CreatedAt: testfixtures.ReferenceTime(),
		}
		if diff := cmp.Diff(wantOrg, got.Organization); diff != "" {
			t.Fatalf("organization mismatch (-want +got):\n%s", diff)
		}
		stored, err := h.Store.Users().GetUser(ctx, "U1")
		if err != nil {
			t.Fatalf("expected administrator to be stored: %v", err)
		}
		if stored.Role != persistence.RoleOrgAdmin || stored.OrganizationID != "org-1" || stored.Email != "una@acme.com" {
			t.Fatalf("unexpected administrator %+v", stored)
		}
		if stored.HasTeam() {
			t.Fatalf("expected administrator to start without a team")
		}
	})

	t.Run("rejects duplicate names case-insensitively", func(t *testing.T) {
		svc, h := newOrganizationService(t)
		h.SeedOrganization(t, testfixtures.NewOrganization(func(o *persistence.Organization) { o.Name = "Acme" }))

		_, err := svc.RegisterOrganization(ctx, RegisterOrganizationParams{Name: "acme", Domain: "acme.com", CreatorIdentity: "U2"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if UserMessage(err) != "Organization 'acme' already exists" {
			t.Fatalf("unexpected message %q", UserMessage(err))
		}
		if _, err := h.Store.Users().GetUser(ctx, "U2"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected no user to be created, got %v", err)
		}
	})

	t.Run("rejects creators that already belong to an organization", func(t *testing.T) {
		svc, _ := newOrganizationService(t)
		params := RegisterOrganizationParams{Name: "Acme", Domain: "acme.com", CreatorIdentity: "U1", CreatorEmail: "u1@acme.com"}
		if _, err := svc.RegisterOrganization(ctx, params); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		params.Name = "Globex"
		_, err := svc.RegisterOrganization(ctx, params)
		if !errors.Is(err, ErrAlreadyExists) || UserMessage(err) != "You already belong to organization: Acme" {
			t.Fatalf("expected membership conflict, got %v", err)
		}
	})

	t.Run("writes nothing when the administrator cannot be stored", func(t *testing.T) {
		svc, h := newOrganizationService(t)
		org := h.SeedOrganization(t, testfixtures.NewOrganization())
		h.SeedUser(t, testfixtures.NewUser(testfixtures.InOrganization(org.ID), func(u *persistence.User) { u.Email = "taken@acme.com" }))

		_, err := svc.RegisterOrganization(ctx, RegisterOrganizationParams{
			Name: "Initech", Domain: "initech.com", CreatorIdentity: "U3", CreatorEmail: "taken@acme.com",
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if _, err := h.Store.Organizations().GetOrganizationByName(ctx, "Initech"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected organization to be rolled back, got %v", err)
		}
	})

	t.Run("derives an email when the chat payload has none", func(t *testing.T) {
		svc, h := newOrganizationService(t)
		if _, err := svc.RegisterOrganization(ctx, RegisterOrganizationParams{Name: "Acme", Domain: "acme.com", CreatorIdentity: "U1"}); err != nil {
			t.Fatalf("RegisterOrganization returned error: %v", err)
		}
		user, _ := h.Store.Users().GetUser(ctx, "U1")
		if user.Email != "u1@acme.com" || user.Name != "U1" {
			t.Fatalf("unexpected defaults %+v", user)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		svc, _ := newOrganizationService(t)
		_, err := svc.RegisterOrganization(ctx, RegisterOrganizationParams{Name: " ", Domain: "not a domain", CreatorIdentity: "U1"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatalf("expected name error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["domain"]; !ok {
			t.Fatalf("expected domain error, got %v", vErr.FieldErrors)
		}
	})
}
