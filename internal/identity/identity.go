// Package identity propagates the authenticated viewer through the request
// context. Authentication itself happens upstream (the API gateway verifies
// the session and forwards the user id); this service only trusts and
// carries the result.
package identity

import (
	"context"
	"net/http"
	"strconv"
)

// Header carries the authenticated user id set by the upstream gateway.
const Header = "X-User-ID"

type contextKey string

const contextKeyUserID contextKey = "user_id"

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKeyUserID).(int64)
	return id, ok
}

// Middleware requires a valid user id header and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get(Header), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
