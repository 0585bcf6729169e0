package application

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 100

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

func validateName(v *ValidationError, field, label, value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		v.add(field, label+" is required")
	case utf8.RuneCountInString(value) > maxNameLength:
		v.add(field, label+" must be at most 100 characters")
	}
	return value
}

// NormalizeDomain lowercases and validates an email domain.
func NormalizeDomain(raw string) (string, bool) {
	domain := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "@")))
	return domain, len(domain) <= 253 && domainPattern.MatchString(domain)
}

// NormalizeEmail lowercases and validates an email address.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

// NormalizeSiteURL validates an http(s) URL and strips a trailing slash.
func NormalizeSiteURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return strings.TrimRight(raw, "/"), true
}

// NormalizePersonName trims a display name and drops a leading mention marker.
func NormalizePersonName(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}

func validateEmail(v *ValidationError, field, value string) string {
	email, ok := NormalizeEmail(value)
	if !ok {
		v.add(field, "Please provide a valid email address")
	}
	return email
}
