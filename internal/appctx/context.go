package appctx

import "context"

// ContextKey is the shared type for request-scoped values.
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyTenantID = ContextKey("TenantID")
	ContextKeyUserID   = ContextKey("UserID")

	// ContextKeySkipTenantScope disables the tenant guard for internal jobs (CLI, migrations).
	ContextKeySkipTenantScope = ContextKey("SkipTenantScope")
)

func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ContextKeyTenantID, tenantID)
}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

func SkipTenantScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeySkipTenantScope, true)
}

// TenantID returns the tenant bound to ctx, or "" when none is set.
func TenantID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyTenantID).(string)
	return v
}

func UserID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyUserID).(string)
	return v
}

func TenantScopeSkipped(ctx context.Context) bool {
	v, _ := ctx.Value(ContextKeySkipTenantScope).(bool)
	return v
}
