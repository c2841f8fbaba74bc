package contexthelpers

import (
	"context"
	"net/http"
)

// WithAuthenticatedUser marks ctx as belonging to the given user. Repositories scope their queries with it.
func WithAuthenticatedUser(ctx context.Context, userID int64, email string, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, IsAuthenticatedContextKey, true)
	ctx = context.WithValue(ctx, AuthenticatedUserIDContextKey, userID)
	ctx = context.WithValue(ctx, AuthenticatedEmailContextKey, email)
	ctx = context.WithValue(ctx, IsAdminContextKey, isAdmin)
	return ctx
}

func AuthenticateContext(r *http.Request, userID int64, email string, isAdmin bool) *http.Request {
	return r.WithContext(WithAuthenticatedUser(r.Context(), userID, email, isAdmin))
}
