// Package session carries per-request workspace identity explicitly.
//
// A Session is resolved once by middleware (user header + workspace route
// parameter) and threaded through the request context; handlers read it
// instead of any ambient current-workspace state. Membership lookups go
// through a small cache whose invalidation is an explicit call at the
// points where membership changes.
package session

import (
	"context"

	"github.com/lntconnect/connect/rbac"
)

// Session identifies who is acting, in which workspace, with what role.
type Session struct {
	WorkspaceID string
	MemberID    string
	UserID      string
	Role        rbac.Role
}

type ctxKey int

const (
	sessionKey ctxKey = iota
	userKey
)

// WithSession returns a context carrying the resolved session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session placed by the workspace middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// WithUserID returns a context carrying the authenticated user id, set
// before any workspace is resolved.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey).(string)
	return id, ok && id != ""
}
