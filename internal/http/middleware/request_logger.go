package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// RequestLogger emits structured logs for every HTTP request. WebSocket
// upgrades are logged when the stream ends, so duration_ms is the call
// length.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			upgrade := strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", reqID,
			}
			if sid := r.URL.Query().Get("call_sid"); sid != "" {
				attrs = append(attrs, "call_sid", sid)
			}
			logger.Debug("request started", append(attrs, "remote_ip", r.RemoteAddr, "upgrade", upgrade)...)
			next.ServeHTTP(w, r)
			logger.Info("request completed", append(attrs, "duration_ms", time.Since(start).Milliseconds())...)
		})
	}
}
