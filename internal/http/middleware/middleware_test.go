package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func signedRequireToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "dialer",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireTokenDisabledWithoutSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireToken("")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestRequireTokenRejects(t *testing.T) {
	cases := map[string]string{
		"missing": "/stream",
		"invalid": "/stream?token=" + signedRequireToken(t, "wrong"),
		"garbage": "/stream?token=abc.def.ghi",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RequireToken("secret")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireTokenAcceptsQueryAndHeader(t *testing.T) {
	token := signedRequireToken(t, "secret")
	var subject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := TokenClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected token claims in context")
		}
		subject = claims.Subject
	})

	rec := httptest.NewRecorder()
	RequireToken("secret")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil))
	if subject != "dialer" {
		t.Fatalf("expected subject from query token, got %q", subject)
	}

	subject = ""
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	RequireToken("secret")(next).ServeHTTP(httptest.NewRecorder(), req)
	if subject != "dialer" {
		t.Fatalf("expected subject from header token, got %q", subject)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("burst should allow two")
	}
	if rl.Allow("a") {
		t.Fatalf("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("other clients have their own bucket")
	}
	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Fatalf("bucket should refill")
	}

	now = now.Add(time.Hour)
	rl.Allow("c")
	if _, ok := rl.buckets["a"]; ok {
		t.Fatalf("idle bucket should be swept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(NewRateLimiter(0.001, 1))(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	RateLimit(nil)(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("nil limiter should pass through")
	}
}

func TestRequestLoggerIncludesCallSID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("info", &buf)
	req := httptest.NewRequest(http.MethodGet, "/stream?call_sid=CA77", nil)
	RequestLogger(logger)(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, `"call_sid":"CA77"`) || !strings.Contains(out, "request completed") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
