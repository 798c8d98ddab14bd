package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lntconnect/connect/rbac"
	"github.com/lntconnect/connect/session"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := session.FromContext(ctx)
	assert.False(t, ok)

	s := session.Session{
		WorkspaceID: "ws-1",
		MemberID:    "mem-1",
		UserID:      "user-1",
		Role:        rbac.RoleProjectLead,
	}
	ctx = session.WithSession(ctx, s)

	got, ok := session.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, s, got)
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := session.UserIDFromContext(ctx)
	assert.False(t, ok)

	// Empty ids never count as authenticated.
	_, ok = session.UserIDFromContext(session.WithUserID(ctx, ""))
	assert.False(t, ok)

	id, ok := session.UserIDFromContext(session.WithUserID(ctx, "user-9"))
	assert.True(t, ok)
	assert.Equal(t, "user-9", id)
}

func TestCache(t *testing.T) {
	c := session.NewCache()

	_, ok := c.Get("ws-1", "user-1")
	assert.False(t, ok)

	c.Put("ws-1", "user-1", session.Membership{MemberID: "mem-1", Role: rbac.RoleManager})
	c.Put("ws-1", "user-2", session.Membership{MemberID: "mem-2", Role: rbac.RoleMember})
	c.Put("ws-2", "user-1", session.Membership{MemberID: "mem-3", Role: rbac.RoleHR})

	m, ok := c.Get("ws-1", "user-1")
	assert.True(t, ok)
	assert.Equal(t, "mem-1", m.MemberID)
	assert.Equal(t, rbac.RoleManager, m.Role)
}

func TestCache_InvalidateMember(t *testing.T) {
	c := session.NewCache()
	c.Put("ws-1", "user-1", session.Membership{MemberID: "mem-1", Role: rbac.RoleManager})
	c.Put("ws-1", "user-2", session.Membership{MemberID: "mem-2", Role: rbac.RoleMember})

	c.InvalidateMember("ws-1", "user-1")

	_, ok := c.Get("ws-1", "user-1")
	assert.False(t, ok)
	_, ok = c.Get("ws-1", "user-2")
	assert.True(t, ok, "other members keep their entries")
}

func TestCache_InvalidateWorkspace(t *testing.T) {
	c := session.NewCache()
	c.Put("ws-1", "user-1", session.Membership{MemberID: "mem-1"})
	c.Put("ws-1", "user-2", session.Membership{MemberID: "mem-2"})
	c.Put("ws-2", "user-1", session.Membership{MemberID: "mem-3"})

	c.Invalidate("ws-1")

	_, ok := c.Get("ws-1", "user-1")
	assert.False(t, ok)
	_, ok = c.Get("ws-1", "user-2")
	assert.False(t, ok)
	_, ok = c.Get("ws-2", "user-1")
	assert.True(t, ok, "other workspaces unaffected")
}
