package solver

import (
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultAPIURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultAPIURL)
	}

	u, err = parseBaseURL("example.com:1234/api/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL returned nil error for missing host")
	}
}

func TestParseTimeLayouts(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"rfc3339", "2026-10-19T10:11:12Z"},
		{"http date", "Mon, 19 Oct 2026 10:11:12 GMT"},
		{"plain", "2026-10-19 10:11:12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTime(tt.value)
			if got.Year() != 2026 || got.Month() != time.October || got.Day() != 19 {
				t.Fatalf("parseTime(%q) = %v, want 2026-10-19", tt.value, got)
			}
		})
	}
	if !parseTime("yesterday").IsZero() {
		t.Fatalf("parseTime should return zero for unknown layouts")
	}
}

func TestCachedSolutionComplete(t *testing.T) {
	if !(CachedSolution{Status: "success"}).Complete() {
		t.Fatalf("success marker should be complete")
	}
	for _, status := range []string{"", "Success", "processing", "success "} {
		if (CachedSolution{Status: status, Code: "x"}).Complete() {
			t.Fatalf("status %q should not be complete", status)
		}
	}
}
