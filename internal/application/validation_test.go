package application

import "testing"

func TestNormalizers(t *testing.T) {
	t.Parallel()

	domains := map[string]bool{
		"acme.com":         true,
		" @Acme.CO.uk ":    true,
		"localhost":        false,
		"acme..com":        false,
		"-acme.com":        false,
		"acme.com/path":    false,
		"sub.acme-corp.io": true,
	}
	for raw, want := range domains {
		if _, ok := NormalizeDomain(raw); ok != want {
			t.Fatalf("NormalizeDomain(%q): expected %v", raw, want)
		}
	}
	if got, _ := NormalizeDomain(" @Acme.COM "); got != "acme.com" {
		t.Fatalf("expected lowercased domain, got %q", got)
	}

	if got, ok := NormalizeEmail(" Jane@Acme.com "); !ok || got != "jane@acme.com" {
		t.Fatalf("expected normalized email, got %q (%v)", got, ok)
	}
	for _, bad := range []string{"", "jane", "Jane <jane@acme.com>", "jane@"} {
		if _, ok := NormalizeEmail(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}

	if got, ok := NormalizeSiteURL("https://acme.atlassian.net/"); !ok || got != "https://acme.atlassian.net" {
		t.Fatalf("expected trimmed url, got %q (%v)", got, ok)
	}
	for _, bad := range []string{"acme.atlassian.net", "ftp://acme", "https://"} {
		if _, ok := NormalizeSiteURL(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}

	if got := NormalizePersonName("  @Jane Doe "); got != "Jane Doe" {
		t.Fatalf("expected mention marker stripped, got %q", got)
	}
}

func TestPlaceholderEmail(t *testing.T) {
	t.Parallel()

	if got := placeholderEmail("Zoho User#42", "acme.com"); got != "zoho-user-42@acme.com" {
		t.Fatalf("unexpected placeholder %q", got)
	}
	if got := placeholderEmail("###", "acme.com"); got != "user@acme.com" {
		t.Fatalf("unexpected placeholder %q", got)
	}
}
