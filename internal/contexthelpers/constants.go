package contexthelpers

type contextKey string

const IsAuthenticatedContextKey = contextKey("isAuthenticated")
const AuthenticatedUserIDContextKey = contextKey("authenticatedUserID")
const AuthenticatedEmailContextKey = contextKey("authenticatedEmail")
const IsAdminContextKey = contextKey("isAdmin")
