package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyRequestID contextKey = "request_id"
	keyUserID    contextKey = "user_id"
	keyUserRole  contextKey = "user_role"
)

// User roles carried by the verified identity. Identity resolution itself
// happens outside this core; these values arrive via JWT claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// WithRequestID adds a request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok && v != ""
}

// WithUserID adds the verified user ID to context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

// UserID extracts the verified user ID from context.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)
	return v, ok && v != ""
}

// WithUserRole adds the verified user role to context.
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, keyUserRole, role)
}

// UserRole extracts the verified user role from context.
func UserRole(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserRole).(string)
	return v, ok && v != ""
}

// IsAdmin reports whether the context identity carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, ok := UserRole(ctx)
	return ok && role == RoleAdmin
}
