package session

import (
	"sync"

	"github.com/lntconnect/connect/rbac"
)

// Membership is the cached slice of a member record the middleware needs
// on every request.
type Membership struct {
	MemberID    string
	Role        rbac.Role
	DisplayName string
}

// Cache is a mutex-guarded membership cache keyed by (workspace, user).
// Joins, role changes, removals and workspace deletion must invalidate;
// the handlers own those call sites.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]map[string]Membership // workspaceID -> userID -> membership
}

// NewCache creates an empty membership cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]map[string]Membership)}
}

// Get returns the cached membership for a user in a workspace.
func (c *Cache) Get(workspaceID, userID string) (Membership, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.entries[workspaceID][userID]
	return m, ok
}

// Put caches a membership.
func (c *Cache) Put(workspaceID, userID string, m Membership) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[workspaceID] == nil {
		c.entries[workspaceID] = make(map[string]Membership)
	}
	c.entries[workspaceID][userID] = m
}

// Invalidate drops every cached membership for a workspace. Called on
// workspace deletion and on changes whose affected user id is unknown.
func (c *Cache) Invalidate(workspaceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, workspaceID)
}

// Clear drops every entry. Used by the demo scenario loaders after a
// database reset.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]map[string]Membership)
}

// InvalidateMember drops one user's cached membership in a workspace.
// Called on role change and removal.
func (c *Cache) InvalidateMember(workspaceID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries[workspaceID], userID)
}
