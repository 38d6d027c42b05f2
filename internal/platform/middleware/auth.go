package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// Authentication itself is handled upstream; requests arrive with the
// caller's identity in trusted headers. This middleware lifts those headers
// into the context for handlers.

type contextKeyUserID struct{}
type contextKeyInstitutionID struct{}

// GetUserID retrieves the acting user ID from the context, 0 when absent.
func GetUserID(ctx context.Context) int64 {
	id, _ := ctx.Value(contextKeyUserID{}).(int64)
	return id
}

// GetInstitutionID retrieves the acting institution ID from the context,
// 0 when absent.
func GetInstitutionID(ctx context.Context) int64 {
	id, _ := ctx.Value(contextKeyInstitutionID{}).(int64)
	return id
}

// Identity parses the X-User-ID and X-Institution-ID headers into the
// request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64); err == nil && id > 0 {
			ctx = context.WithValue(ctx, contextKeyUserID{}, id)
		}
		if id, err := strconv.ParseInt(r.Header.Get("X-Institution-ID"), 10, 64); err == nil && id > 0 {
			ctx = context.WithValue(ctx, contextKeyInstitutionID{}, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that carry no user identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == 0 {
			http.Error(w, "missing user identity", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
