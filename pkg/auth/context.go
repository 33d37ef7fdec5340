package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeySubject is the context key for the authenticated token subject
	ContextKeySubject contextKey = "subject"
	// ContextKeyTenant is the context key for the caller's tenant identifier
	ContextKeyTenant contextKey = "tenant"
)

// WithSubject adds the token subject to the context
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeySubject, subject)
}

// SubjectFromContext retrieves the token subject from the context
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(ContextKeySubject).(string)
	return sub, ok
}

// WithTenant adds the tenant identifier to the context
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, tenant)
}

// TenantFromContext retrieves the tenant identifier from the context
func TenantFromContext(ctx context.Context) (string, bool) {
	tenant, ok := ctx.Value(ContextKeyTenant).(string)
	return tenant, ok
}
