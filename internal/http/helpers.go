package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ledgerbook/internal/core"
)

// pickerDateLayout is what <input type="date"> submits.
const pickerDateLayout = "2006-01-02"

// formDate turns a date picker value into the stored dd-mm-yyyy form.
// An empty value means today; anything unparseable is kept as typed.
func formDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Format(core.FormDateLayout)
	}
	t, err := time.Parse(pickerDateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format(core.FormDateLayout)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request came from htmx and wants a partial.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
