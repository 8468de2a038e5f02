package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitEnforcesBurstPerIP(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RateLimit(ok, 2, 1)

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := hit("10.0.0.1:1234"); code != http.StatusNoContent {
			t.Fatalf("request %d within burst got %d", i+1, code)
		}
	}
	if code := hit("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded, got %d, want 429", code)
	}
	// Another client has its own bucket.
	if code := hit("10.0.0.2:1234"); code != http.StatusNoContent {
		t.Fatalf("second client got %d", code)
	}
}
