package logutil

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

var (
	loggerKey = key(1)
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// Middleware stamps each request's context with a logger carrying the
// request method and path, so handlers can log without re-deriving
// request identity.
func Middleware(base zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := base.With().
			Str("http.method", r.Method).
			Str("http.path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
	})
}
