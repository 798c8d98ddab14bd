/*
middleware.go - Identity and permission middleware

PURPOSE:
  Resolves who is calling and what they may do, before any handler runs.
  Identity arrives as an X-User-ID header injected by the upstream auth
  proxy; this service never sees credentials.

FLOW:
  1. RequireUser:      header -> user id in context, else 401
  2. WorkspaceContext: user id + {workspaceID} route param -> membership
                       lookup (cache first, store on miss) -> Session in
                       context, else 403
  3. RequirePermission: session role checked against the static matrix,
                       else 403

CACHE:
  Membership lookups hit the session.Cache. Handlers that change
  membership (join, role change, removal, workspace deletion) invalidate;
  this file only reads.

SEE ALSO:
  - session/session.go: Session value and context plumbing
  - rbac/matrix.go: The permission matrix
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lntconnect/connect/rbac"
	"github.com/lntconnect/connect/session"
)

// userHeader carries the authenticated user id from the upstream proxy.
const userHeader = "X-User-ID"

// RequireUser rejects requests without an authenticated user id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+userHeader+" header", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithUserID(r.Context(), userID)))
	})
}

// WorkspaceContext resolves the caller's membership in the workspace
// named by the route and stores a Session in the request context.
// Non-members get 403; there is no separate 404 for unknown workspaces,
// so workspace ids cannot be probed.
func (h *Handler) WorkspaceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")

		userID, ok := session.UserIDFromContext(ctx)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing "+userHeader+" header", nil)
			return
		}

		membership, ok := h.Cache.Get(workspaceID, userID)
		if !ok {
			member, err := h.Store.GetMemberByUser(ctx, workspaceID, userID)
			if err != nil {
				writeError(w, http.StatusForbidden, "Not a member of this workspace", nil)
				return
			}
			membership = session.Membership{
				MemberID:    member.ID,
				Role:        member.Role,
				DisplayName: member.DisplayName,
			}
			h.Cache.Put(workspaceID, userID, membership)
		}

		sess := session.Session{
			WorkspaceID: workspaceID,
			MemberID:    membership.MemberID,
			UserID:      userID,
			Role:        membership.Role,
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, sess)))
	})
}

// RequirePermission gates a route on one permission from the matrix.
func RequirePermission(perm rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusForbidden, "No workspace session", nil)
				return
			}
			if !rbac.HasPermission(sess.Role, perm) {
				writeError(w, http.StatusForbidden, "Permission denied: "+string(perm), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// mustSession returns the session a middleware already placed. Routes
// below WorkspaceContext always have one.
func mustSession(r *http.Request) session.Session {
	sess, _ := session.FromContext(r.Context())
	return sess
}
