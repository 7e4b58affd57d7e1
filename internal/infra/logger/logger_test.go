package logger

import (
	"context"
	"testing"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"ann@example.com":     "ann***@example.com",
		"ann.lee@example.com": "ann***@example.com",
		"a@example.com":       "a***@example.com",
		"@example.com":        "***@example.com",
		"not-an-email":        "***",
	}

	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequestIDFromContext(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	if got := RequestIDFromContext(nil); got != "" { //nolint:staticcheck
		t.Fatalf("expected empty request id for nil context, got %q", got)
	}
}

func TestWithContextNeverNil(t *testing.T) {
	if WithContext(context.Background()) == nil {
		t.Fatalf("expected logger")
	}
}

func TestMaskIP(t *testing.T) {
	cases := map[string]string{
		"":                           "",
		"192.168.1.100":              "192.168.*.*",
		"2001:db8:85a3:0:0:8a2e:370": "2001:db8:85a3:0:*:*:*:*",
		"localhost":                  "***",
	}

	for in, want := range cases {
		if got := MaskIP(in); got != want {
			t.Fatalf("MaskIP(%q) = %q, want %q", in, got, want)
		}
	}
}
