package middleware

import (
	"net/http"
	"os"
	"strings"
	"sync"
)

var (
	allowedOnce sync.Once
	allowed     map[string]struct{}
)

// allowedOrigins builds the CORS allow-list from CORS_ORIGINS (comma separated).
// Falls back to the local dev frontends when unset.
func allowedOrigins() map[string]struct{} {
	allowedOnce.Do(func() {
		allowed = map[string]struct{}{}
		raw := os.Getenv("CORS_ORIGINS")
		if raw == "" {
			raw = "http://localhost:5173,http://localhost:3000"
		}
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowed[o] = struct{}{}
			}
		}
	})
	return allowed
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowedOrigins()[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		w.Header().Set("Access-Control-Expose-Headers", "Server-Timing, Retry-After, Cache-Control")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
