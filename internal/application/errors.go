package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting user lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique organization, team, identity or email is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrNotRegistered is returned when the acting identity has no directory record.
	ErrNotRegistered = errors.New("application: not registered")
	// ErrNoTeam is returned when an operation requires team membership.
	ErrNoTeam = errors.New("application: no team")
	// ErrAlreadySubmitted is returned for a second standup on the same day.
	ErrAlreadySubmitted = errors.New("application: standup already submitted")
)

// DomainError pairs a sentinel kind with the sentence shown to the chat user.
type DomainError struct {
	Kind   error
	Detail string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "domain error"
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func domainError(kind error, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Messages returns the recorded messages ordered by field name.
func (v *ValidationError) Messages() []string {
	if v == nil {
		return nil
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, v.FieldErrors[field])
	}
	return out
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// UserMessage renders err as a sentence suitable for a chat reply.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var dErr *DomainError
	if errors.As(err, &dErr) && dErr.Detail != "" {
		return dErr.Detail
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		return strings.Join(vErr.Messages(), "; ")
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "You don't have permission to do that"
	case errors.Is(err, ErrNotRegistered):
		return "You're not registered yet. Use /register-org to create an organization or ask your team lead to add you"
	case errors.Is(err, ErrNoTeam):
		return "You must join a team first. Ask your team lead to add you"
	case errors.Is(err, ErrAlreadySubmitted):
		return "You've already submitted your standup for today"
	case errors.Is(err, ErrAlreadyExists):
		return "That already exists"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	}
	return "Something went wrong while saving. Please try again later"
}
