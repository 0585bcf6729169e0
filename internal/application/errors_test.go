package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	if nilErr.Error() != "" || nilErr.HasErrors() {
		t.Fatalf("expected nil validation error to be empty")
	}

	v := &ValidationError{}
	if v.orNil() != nil {
		t.Fatalf("expected empty validation error to collapse to nil")
	}
	v.add("name", "Name is required")
	v.add("email", "Please provide a valid email address")
	if !v.HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
	if got := UserMessage(v); got != "Please provide a valid email address; Name is required" {
		t.Fatalf("unexpected message %q", got)
	}
	if ErrorKind(fmt.Errorf("wrapped: %w", v)) != "validation" {
		t.Fatalf("expected validation kind through wrapping")
	}
}

func TestDomainError(t *testing.T) {
	t.Parallel()

	err := domainError(ErrAlreadyExists, "Organization '%s' already exists", "Acme")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected domain error to match its kind")
	}
	if err.Error() != "Organization 'Acme' already exists" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
	if got := UserMessage(fmt.Errorf("tx: %w", err)); got != "Organization 'Acme' already exists" {
		t.Fatalf("expected detail through wrapping, got %q", got)
	}
	if ErrorKind(err) != "already_exists" {
		t.Fatalf("unexpected kind %q", ErrorKind(err))
	}
}

func TestUserMessageForSentinels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
		kind string
	}{
		{ErrNoTeam, "You must join a team first. Ask your team lead to add you", "no_team"},
		{ErrAlreadySubmitted, "You've already submitted your standup for today", "already_submitted"},
		{ErrUnauthorized, "You don't have permission to do that", "unauthorized"},
		{ErrNotFound, "Not found", "not_found"},
		{errors.New("disk full"), "Something went wrong while saving. Please try again later", "unexpected"},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.want {
			t.Fatalf("UserMessage(%v): expected %q, got %q", tc.err, tc.want, got)
		}
		if got := ErrorKind(tc.err); got != tc.kind {
			t.Fatalf("ErrorKind(%v): expected %q, got %q", tc.err, tc.kind, got)
		}
	}
	if UserMessage(nil) != "" || ErrorKind(nil) != "" {
		t.Fatalf("expected empty results for nil")
	}
}
