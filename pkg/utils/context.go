package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	clientIPKey  contextKey = "client_ip"
)

// principal is the authenticated caller resolved from a session.
type principal struct {
	userID uuid.UUID
	role   string
}

func SetUserContext(ctx context.Context, userID uuid.UUID, role string) context.Context {
	return context.WithValue(ctx, principalKey, principal{userID: userID, role: role})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := ctx.Value(principalKey).(principal)
	if !ok || p.userID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey).(principal)
	if !ok || p.role == "" {
		return "", false
	}
	return p.role, true
}

// SetClientIPContext stores the caller address for the audit trail.
func SetClientIPContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func GetClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey).(string)
	return ip, ok && ip != ""
}
