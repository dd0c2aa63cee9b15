// Package mwauth guards routes with bearer-token authentication against the
// auth collaborator and puts the caller's identity and token on the request
// context for downstream service calls.
package mwauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyToken
)

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=TokenValidator
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

func New(log *slog.Logger, validator TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(
			slog.String("component", "middleware/auth"),
		)

		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authorization required"))
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")

			userID, err := validator.Validate(r.Context(), token)
			if err != nil {
				log.Warn("token validation failed", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, token)))
		}

		return http.HandlerFunc(fn)
	}
}

// WithUser returns a context carrying the authenticated identity.
func WithUser(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyToken, token)
}

// UserID returns the authenticated user id, or "" outside a guarded route.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// Token returns the caller's bearer token so outgoing collaborator calls can
// be made on the caller's behalf.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyToken).(string)
	return token
}
