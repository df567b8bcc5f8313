package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
)

type ctxKey int

const clientKey ctxKey = iota

func clientFrom(ctx context.Context) *model.Client {
	c, _ := ctx.Value(clientKey).(*model.Client)
	return c
}

// accessLog writes one structured line per request and echoes the request ID.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := middleware.GetReqID(r.Context())
		if rid != "" {
			w.Header().Set(middleware.RequestIDHeader, rid)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("http request",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// recoverer turns a handler panic into a 500 with the usual error body.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			zap.L().Error("api: handler panic",
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			writeError(w, r, apperr.Fatal(nil))
		}()
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// clientAuth resolves the bearer API key to an active client.
func (s *Server) clientAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			writeError(w, r, apperr.Authentication("Invalid API key"))
			return
		}
		client, err := s.Store.GetClientByAPIKey(r.Context(), key)
		if err != nil {
			writeError(w, r, apperr.Fatal(err))
			return
		}
		if client == nil || !client.IsActive {
			writeError(w, r, apperr.Authentication("Invalid API key"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey, client)))
	})
}

// adminAuth requires the configured admin token. With no token configured
// the routes are open.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	want := []byte(s.cfg.AdminToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(want) > 0 && subtle.ConstantTimeCompare([]byte(bearerToken(r)), want) != 1 {
			writeError(w, r, apperr.Authentication("Invalid admin token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := clientFrom(r.Context()); c != nil && !s.limiter.allow(c.ID) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientLimiter keeps one token bucket per client. A non-positive rate
// disables limiting.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{limit: rate.Limit(rps), burst: burst, buckets: make(map[string]*rate.Limiter)}
}

func (l *clientLimiter) allow(clientID string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	b, ok := l.buckets[clientID]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[clientID] = b
	}
	l.mu.Unlock()
	return b.Allow()
}
