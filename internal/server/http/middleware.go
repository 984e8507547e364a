package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyRequestID   ctxKey = "request_id"
	ctxKeyCurrentUser ctxKey = "current_user"
)

// Authenticate admits a request only if its Authorization header carries a
// valid, unexpired access token. The resolved identity is available to the
// next handler through CurrentUserFromContext. Every request is verified on
// its own; nothing is cached.
func Authenticate(codec *auth.AccessCodec, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, err := auth.Gate(codec, r.Header.Get("Authorization"), time.Now())
			if err != nil {
				statusCode, code, message := mapError(err)
				logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "error", err.Error(),
					"request_id", requestIDFromContext(r.Context()))
				writeError(w, statusCode, code, message)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), current)))
		})
	}
}

// WithCurrentUser returns a copy of ctx carrying u.
func WithCurrentUser(ctx context.Context, u *models.CurrentUser) context.Context {
	return context.WithValue(ctx, ctxKeyCurrentUser, *u)
}

// CurrentUserFromContext returns the identity attached by Authenticate.
func CurrentUserFromContext(ctx context.Context) (*models.CurrentUser, bool) {
	u, ok := ctx.Value(ctxKeyCurrentUser).(models.CurrentUser)
	if !ok {
		return nil, false
	}
	return &u, true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func recoverMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(r.Context(), "panic recovered",
						"request_id", requestIDFromContext(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
					)
					writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func loggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			statusCode := recorder.statusCode
			if statusCode == 0 {
				statusCode = http.StatusOK
			}

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", statusCode,
				"bytes", recorder.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestIDFromContext(r.Context()),
			}
			switch {
			case statusCode >= 500:
				logger.Error(r.Context(), "http request completed", fields...)
			case statusCode >= 400:
				logger.Warn(r.Context(), "http request completed", fields...)
			default:
				logger.Info(r.Context(), "http request completed", fields...)
			}
		})
	}
}
