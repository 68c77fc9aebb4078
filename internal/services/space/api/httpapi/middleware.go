package httpapi

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kopcaptz/daybookai/internal/services/space/token"
)

var tracer = otel.Tracer("daybookai/space/httpapi")

// withTrace opens a span per request. When tracing is not configured the
// global provider is a no-op and this costs nothing.
func withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type principalKey struct{}

// withAuth verifies the session token, records presence, and stashes the
// principal on the request context. Presence recording is best effort.
func (h *Handler) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.tokens.Verify(r.Context(), r.Header.Get(TokenHeader))
		if err != nil {
			writeError(w, err)
			return
		}
		_ = h.membership.Touch(r.Context(), principal.Member.ID)

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next(w, r.WithContext(ctx))
	}
}

func principalFrom(r *http.Request) token.Principal {
	principal, _ := r.Context().Value(principalKey{}).(token.Principal)
	return principal
}
