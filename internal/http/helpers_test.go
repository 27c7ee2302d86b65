package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFormDate(t *testing.T) {
	now := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		in, want string
	}{
		{"2024-01-15", "15-01-2024"},
		{" 2023-07-04 ", "04-07-2023"},
		{"", "31-12-2024"},
		{"15/01/2024", "15/01/2024"},
		{"2024-02-30", "2024-02-30"},
	}
	for _, tt := range tests {
		if got := formDate(tt.in, now); got != tt.want {
			t.Errorf("formDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Lunch  ", "Lunch"},
		{"Bus\x00 ticket", "Bus ticket"},
		{"two\nlines", "twolines"},
		{"tab\there", "tabhere"},
		{"Café ₹", "Café ₹"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"untrusted proxy header ignored", "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2"}, "198.51.100.9"},
		{"trusted proxy real ip", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.10"}, "198.51.100.10"},
		{"garbage forwarded", "127.0.0.1:80", map[string]string{"X-Forwarded-For": "not-an-ip"}, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	metrics := &securityMetrics{}

	clean := httptest.NewRequest(http.MethodGet, "/summary", nil)
	if reason := detectSuspiciousRequest(clean, metrics); reason != "" {
		t.Errorf("clean request flagged: %s", reason)
	}

	envReq := httptest.NewRequest(http.MethodGet, "/.env", nil)
	if reason := detectSuspiciousRequest(envReq, metrics); reason != "path:.env" {
		t.Errorf("reason = %q", reason)
	}

	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	if reason := detectSuspiciousRequest(scanner, metrics); reason != "agent:sqlmap" {
		t.Errorf("reason = %q", reason)
	}

	if metrics.suspiciousRequests != 2 {
		t.Errorf("suspiciousRequests = %d, want 2", metrics.suspiciousRequests)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	metrics := &securityMetrics{}
	start := time.Now()

	if !rl.allow("a", start, metrics) || !rl.allow("a", start, metrics) {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a", start.Add(time.Second), metrics) {
		t.Fatal("third request in the window should be refused")
	}
	if !rl.allow("b", start, metrics) {
		t.Fatal("other clients are counted separately")
	}
	if !rl.allow("a", start.Add(2*time.Minute), metrics) {
		t.Fatal("a new window should reset the count")
	}
	if metrics.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	rl.cleanupStaleEntries(start.Add(time.Hour))
	if n := rl.activeClients(); n != 0 {
		t.Errorf("activeClients after cleanup = %d, want 0", n)
	}
}
