/*
handlers.go - HTTP API handlers for workspaces, members, leave, attendance

PURPOSE:
  Exposes the workspace side of the service via REST. Handles HTTP
  request/response, JSON serialization, and delegates the rules to the
  domain packages (leave, attendance, rbac).

ENDPOINTS (this file):
  Workspaces:
    POST   /api/workspaces                    Create (caller becomes MANAGER)
    GET    /api/workspaces                    List caller's workspaces
    POST   /api/workspaces/join               Join by invite code
    GET    /api/workspaces/{id}               Get workspace
    PUT    /api/workspaces/{id}               Update name / leave policy
    DELETE /api/workspaces/{id}               Delete workspace
    POST   /api/workspaces/{id}/invite/rotate Rotate invite code (MANAGER)

  Members:
    GET    /api/workspaces/{id}/members                 List
    PUT    /api/workspaces/{id}/members/{mid}/role      Change role
    DELETE /api/workspaces/{id}/members/{mid}           Remove

  Leave:
    POST   /api/workspaces/{id}/leave/requests              Submit
    GET    /api/workspaces/{id}/leave/requests              Workspace listing
    GET    /api/workspaces/{id}/leave/requests/mine         Own listing
    POST   /api/workspaces/{id}/leave/requests/{rid}/approve
    POST   /api/workspaces/{id}/leave/requests/{rid}/reject
    POST   /api/workspaces/{id}/leave/requests/{rid}/cancel
    GET    /api/workspaces/{id}/leave/balance               Own ledger
    GET    /api/workspaces/{id}/leave/balances/{mid}        Any ledger
    POST   /api/workspaces/{id}/leave/balances/{mid}/adjust Manual adjustment

  Attendance:
    POST   /api/workspaces/{id}/attendance/check-in
    POST   /api/workspaces/{id}/attendance/check-out
    GET    /api/workspaces/{id}/attendance/mine?from=&to=
    GET    /api/workspaces/{id}/attendance/day?date=

  Project-tree endpoints live in projects.go.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing user header
  - 403: Not a member / permission denied / wrong invite code
  - 404: Resource not found
  - 409: Conflict (duplicate member, double check-in, non-PENDING review)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Identity and permission resolution
  - projects.go: Project, tree, sprint, task, health, assist handlers
  - scenarios.go: Demo scenario loaders
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/lntconnect/connect/assist"
	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/rbac"
	"github.com/lntconnect/connect/session"
	"github.com/lntconnect/connect/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Cache *session.Cache
	Draft *assist.DraftService

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler over the store. The draft service may be
// nil; assist endpoints then answer 503.
func NewHandler(store *sqlite.Store, cache *session.Cache, draft *assist.DraftService) *Handler {
	if draft == nil {
		draft = assist.NewDraftService(nil, false)
	}
	return &Handler{Store: store, Cache: cache, Draft: draft}
}

// =============================================================================
// WORKSPACE HANDLERS
// =============================================================================

// CreateWorkspace creates a workspace with the caller as its MANAGER.
// The invite code is returned once in plaintext and stored only hashed.
func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := session.UserIDFromContext(ctx)

	var req CreateWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, http.StatusBadRequest, "name and display_name are required", nil)
		return
	}

	code := newInviteCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create workspace", err)
		return
	}

	policy := leave.DefaultPolicy()
	ws := sqlite.Workspace{
		ID:              uuid.NewString(),
		Name:            req.Name,
		InviteCodeHash:  string(hash),
		LeavePolicyJSON: policy.JSON(),
	}
	if err := h.Store.SaveWorkspace(ctx, ws); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create workspace", err)
		return
	}

	member := sqlite.Member{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		UserID:      userID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        rbac.RoleManager,
	}
	if err := h.Store.CreateMember(ctx, member); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create member", err)
		return
	}
	if err := h.Store.SaveLedger(ctx, ws.ID, policy.OpenLedger(member.ID)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open leave ledger", err)
		return
	}

	writeJSON(w, http.StatusCreated, WorkspaceDTO{
		ID:          ws.ID,
		Name:        ws.Name,
		LeavePolicy: policy,
		InviteCode:  code,
	})
}

// ListWorkspaces returns the caller's workspaces.
func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := session.UserIDFromContext(ctx)

	workspaces, err := h.Store.ListWorkspacesForUser(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workspaces", err)
		return
	}

	dtos := make([]WorkspaceDTO, len(workspaces))
	for i, ws := range workspaces {
		dtos[i] = WorkspaceDTO{
			ID:        ws.ID,
			Name:      ws.Name,
			CreatedAt: ws.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// JoinWorkspace adds the caller as a MEMBER after an invite-code check.
func (h *Handler) JoinWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := session.UserIDFromContext(ctx)

	var req JoinWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, http.StatusBadRequest, "display_name is required", nil)
		return
	}

	ws, err := h.Store.GetWorkspace(ctx, req.WorkspaceID)
	if err != nil {
		writeError(w, storeStatus(err), "Workspace not found", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(ws.InviteCodeHash), []byte(req.InviteCode)) != nil {
		writeError(w, http.StatusForbidden, "Invalid invite code", nil)
		return
	}

	member := sqlite.Member{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		UserID:      userID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        rbac.RoleMember,
	}
	if err := h.Store.CreateMember(ctx, member); err != nil {
		writeError(w, storeStatus(err), "Failed to join workspace", err)
		return
	}

	policy := leave.ParsePolicy(ws.LeavePolicyJSON)
	if err := h.Store.SaveLedger(ctx, ws.ID, policy.OpenLedger(member.ID)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open leave ledger", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemberDTO(member))
}

// GetWorkspace returns the workspace the session resolved.
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	ws, err := h.Store.GetWorkspace(ctx, sess.WorkspaceID)
	if err != nil {
		writeError(w, storeStatus(err), "Workspace not found", err)
		return
	}

	writeJSON(w, http.StatusOK, WorkspaceDTO{
		ID:          ws.ID,
		Name:        ws.Name,
		LeavePolicy: leave.ParsePolicy(ws.LeavePolicyJSON),
		CreatedAt:   ws.CreatedAt.Format(time.RFC3339),
	})
}

// UpdateWorkspace renames the workspace and/or replaces the leave-policy
// document. The policy JSON is normalized through the parser so invalid
// input degrades to defaults instead of being stored raw.
func (h *Handler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	var req UpdateWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ws, err := h.Store.GetWorkspace(ctx, sess.WorkspaceID)
	if err != nil {
		writeError(w, storeStatus(err), "Workspace not found", err)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		ws.Name = *req.Name
	}
	if req.LeavePolicy != nil {
		ws.LeavePolicyJSON = leave.ParsePolicy(*req.LeavePolicy).JSON()
	}

	if err := h.Store.SaveWorkspace(ctx, *ws); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update workspace", err)
		return
	}

	writeJSON(w, http.StatusOK, WorkspaceDTO{
		ID:          ws.ID,
		Name:        ws.Name,
		LeavePolicy: leave.ParsePolicy(ws.LeavePolicyJSON),
	})
}

// DeleteWorkspace removes the workspace and everything beneath it.
func (h *Handler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	if err := h.Store.DeleteWorkspace(ctx, sess.WorkspaceID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete workspace", err)
		return
	}
	h.Cache.Invalidate(sess.WorkspaceID)

	w.WriteHeader(http.StatusNoContent)
}

// RotateInviteCode replaces the invite-code hash. MANAGER only; the
// ASSISTANT_MANAGER's admin grant deliberately does not cover this.
func (h *Handler) RotateInviteCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	if !rbac.IsManager(sess.Role) {
		writeError(w, http.StatusForbidden, "Only the MANAGER can rotate the invite code", nil)
		return
	}

	ws, err := h.Store.GetWorkspace(ctx, sess.WorkspaceID)
	if err != nil {
		writeError(w, storeStatus(err), "Workspace not found", err)
		return
	}

	code := newInviteCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rotate invite code", err)
		return
	}
	ws.InviteCodeHash = string(hash)

	if err := h.Store.SaveWorkspace(ctx, *ws); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rotate invite code", err)
		return
	}

	writeJSON(w, http.StatusOK, WorkspaceDTO{ID: ws.ID, Name: ws.Name, InviteCode: code})
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMembers returns the workspace's members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	members, err := h.Store.ListMembers(ctx, sess.WorkspaceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ChangeMemberRole updates a member's role and invalidates their cached
// membership.
func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	memberID := chi.URLParam(r, "memberID")

	var req ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role := rbac.Role(req.Role)
	if !role.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown role: "+req.Role, nil)
		return
	}
	// Nobody hands out a role above their own.
	if !rbac.HasHigherOrEqualRole(sess.Role, role) {
		writeError(w, http.StatusForbidden, "Cannot assign a role above your own", nil)
		return
	}

	member, err := h.Store.GetMember(ctx, memberID)
	if err != nil || member.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	if err := h.Store.UpdateMemberRole(ctx, memberID, role); err != nil {
		writeError(w, storeStatus(err), "Failed to change role", err)
		return
	}
	h.Cache.InvalidateMember(sess.WorkspaceID, member.UserID)

	member.Role = role
	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

// RemoveMember removes a member from the workspace.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	memberID := chi.URLParam(r, "memberID")

	if memberID == sess.MemberID {
		writeError(w, http.StatusBadRequest, "Cannot remove yourself", nil)
		return
	}

	member, err := h.Store.GetMember(ctx, memberID)
	if err != nil || member.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	if err := h.Store.DeleteMember(ctx, memberID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove member", err)
		return
	}
	h.Cache.InvalidateMember(sess.WorkspaceID, member.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave validates and persists a PENDING leave request.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	var req SubmitLeaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	leaveType, ok := leave.ParseType(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown leave type: "+req.Type, nil)
		return
	}

	if err := leave.ValidateLeaveDates(req.StartDate, req.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid leave dates", err)
		return
	}
	startDate, _ := time.Parse(leave.DateLayout, req.StartDate)
	endDate, _ := time.Parse(leave.DateLayout, req.EndDate)

	days := leave.CalculateLeaveDays(startDate, endDate, req.HalfDay, leaveType)
	if days.IsZero() {
		writeError(w, http.StatusBadRequest, "Requested range contains no working days", nil)
		return
	}

	// No second request may cover the same days while one is pending or
	// approved.
	existing, err := h.Store.ListLeaveRequestsByMember(ctx, sess.MemberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing requests", err)
		return
	}
	for _, other := range existing {
		if other.Status != leave.StatusPending && other.Status != leave.StatusApproved {
			continue
		}
		if leave.RangesOverlap(startDate, endDate, other.StartDate, other.EndDate) {
			writeError(w, http.StatusConflict, "Overlapping leave request already exists", nil)
			return
		}
	}

	ledger, err := h.ledgerFor(r, sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load leave balance", err)
		return
	}
	if !leave.HasEnoughBalance(leaveType, days, ledger) {
		writeError(w, http.StatusBadRequest, "Insufficient leave balance", nil)
		return
	}

	record := sqlite.LeaveRequest{
		ID:          uuid.NewString(),
		WorkspaceID: sess.WorkspaceID,
		MemberID:    sess.MemberID,
		Type:        leaveType,
		StartDate:   startDate,
		EndDate:     endDate,
		HalfDay:     req.HalfDay,
		Days:        days,
		Reason:      req.Reason,
		Status:      leave.StatusPending,
	}
	if err := h.Store.SaveLeaveRequest(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(record))
}

// ListWorkspaceLeave returns the workspace's requests, with an optional
// ?status= filter.
func (h *Handler) ListWorkspaceLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	var status leave.RequestStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, ok := leave.ParseRequestStatus(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown status: "+s, nil)
			return
		}
		status = parsed
	}

	requests, err := h.Store.ListLeaveRequestsByWorkspace(ctx, sess.WorkspaceID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toLeaveRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListMyLeave returns the caller's own requests.
func (h *Handler) ListMyLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	requests, err := h.Store.ListLeaveRequestsByMember(ctx, sess.MemberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toLeaveRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveLeave approves a PENDING request, deducting the ledger exactly
// once. Ledger and status commit in one store transaction; a second
// approval attempt fails the PENDING check.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	requestID := chi.URLParam(r, "requestID")

	var review ReviewRequest
	decodeJSON(r, &review) // note is optional; an empty body is fine

	req, err := h.Store.GetLeaveRequest(ctx, requestID)
	if err != nil || req.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Leave request not found", nil)
		return
	}
	if req.Status != leave.StatusPending {
		writeError(w, http.StatusConflict, "Request is not pending", nil)
		return
	}

	ledger, err := h.Store.GetLedger(ctx, req.MemberID)
	if err != nil {
		writeError(w, storeStatus(err), "Failed to load leave balance", err)
		return
	}

	if err := leave.ApplyDeduction(ledger, req.Type, req.Days); err != nil {
		writeError(w, http.StatusBadRequest, "Insufficient leave balance", err)
		return
	}

	req.Status = leave.StatusApproved
	req.ReviewerID = sess.MemberID
	req.ReviewNote = review.Note

	if err := h.Store.ApproveLeave(ctx, *req, sess.WorkspaceID, *ledger); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to approve leave", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*req))
}

// RejectLeave moves a PENDING request to REJECTED.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	requestID := chi.URLParam(r, "requestID")

	var review ReviewRequest
	decodeJSON(r, &review)

	req, err := h.Store.GetLeaveRequest(ctx, requestID)
	if err != nil || req.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Leave request not found", nil)
		return
	}
	if req.Status != leave.StatusPending {
		writeError(w, http.StatusConflict, "Request is not pending", nil)
		return
	}

	req.Status = leave.StatusRejected
	req.ReviewerID = sess.MemberID
	req.ReviewNote = review.Note

	if err := h.Store.SaveLeaveRequest(ctx, *req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reject leave", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*req))
}

// CancelLeave lets the requester cancel their own PENDING request.
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	requestID := chi.URLParam(r, "requestID")

	req, err := h.Store.GetLeaveRequest(ctx, requestID)
	if err != nil || req.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Leave request not found", nil)
		return
	}
	if req.MemberID != sess.MemberID {
		writeError(w, http.StatusForbidden, "Only the requester can cancel", nil)
		return
	}
	if req.Status != leave.StatusPending {
		writeError(w, http.StatusConflict, "Request is not pending", nil)
		return
	}

	req.Status = leave.StatusCancelled
	if err := h.Store.SaveLeaveRequest(ctx, *req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel leave", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*req))
}

// GetMyBalance returns the caller's ledger.
func (h *Handler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)

	ledger, err := h.ledgerFor(r, sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load leave balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(ledger))
}

// GetMemberBalance returns any member's ledger.
func (h *Handler) GetMemberBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	memberID := chi.URLParam(r, "memberID")

	member, err := h.Store.GetMember(ctx, memberID)
	if err != nil || member.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	ledger, err := h.Store.GetLedger(ctx, memberID)
	if err != nil {
		writeError(w, storeStatus(err), "Failed to load leave balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(*ledger))
}

// AdjustBalance moves one ledger counter by a signed delta. Counters may
// not go negative.
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	memberID := chi.URLParam(r, "memberID")

	var req AdjustBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	delta, err := decimal.NewFromString(req.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delta: "+req.Delta, err)
		return
	}

	member, err := h.Store.GetMember(ctx, memberID)
	if err != nil || member.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	ledger, err := h.Store.GetLedger(ctx, memberID)
	if err != nil {
		writeError(w, storeStatus(err), "Failed to load leave balance", err)
		return
	}

	var updated decimal.Decimal
	switch leave.BalanceField(req.Field) {
	case leave.FieldPaidLeave:
		updated = ledger.PaidLeave.Add(delta)
		ledger.PaidLeave = updated
	case leave.FieldUnpaidLeave:
		updated = ledger.UnpaidLeave.Add(delta)
		ledger.UnpaidLeave = updated
	case leave.FieldHalfDay:
		updated = ledger.HalfDay.Add(delta)
		ledger.HalfDay = updated
	case leave.FieldCompOff:
		updated = ledger.CompOff.Add(delta)
		ledger.CompOff = updated
	default:
		writeError(w, http.StatusBadRequest, "Unknown balance field: "+req.Field, nil)
		return
	}
	if updated.IsNegative() {
		writeError(w, http.StatusBadRequest, "Adjustment would make the balance negative", nil)
		return
	}

	if err := h.Store.SaveLedger(ctx, sess.WorkspaceID, *ledger); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(*ledger))
}

// ledgerFor loads the caller's ledger, opening one from the workspace
// policy on first touch (members seeded outside the join flow).
func (h *Handler) ledgerFor(r *http.Request, sess session.Session) (leave.Ledger, error) {
	ctx := r.Context()

	ledger, err := h.Store.GetLedger(ctx, sess.MemberID)
	if err == nil {
		return *ledger, nil
	}
	if !errors.Is(err, sqlite.ErrNotFound) {
		return leave.Ledger{}, err
	}

	ws, err := h.Store.GetWorkspace(ctx, sess.WorkspaceID)
	if err != nil {
		return leave.Ledger{}, err
	}
	opened := leave.ParsePolicy(ws.LeavePolicyJSON).OpenLedger(sess.MemberID)
	if err := h.Store.SaveLedger(ctx, sess.WorkspaceID, opened); err != nil {
		return leave.Ledger{}, err
	}
	return opened, nil
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// CheckIn opens today's attendance record. One per member per day.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	now := time.Now().UTC()
	record := attendance.Record{
		ID:          uuid.NewString(),
		WorkspaceID: sess.WorkspaceID,
		MemberID:    sess.MemberID,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		CheckIn:     now,
		Status:      attendance.StatusPresent,
	}

	if err := h.Store.CreateAttendance(ctx, record); err != nil {
		writeError(w, storeStatus(err), "Failed to check in", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(record))
}

// CheckOut closes today's open record and computes worked minutes.
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	record, err := h.Store.GetAttendanceForDay(ctx, sess.MemberID, today)
	if err != nil {
		writeError(w, storeStatus(err), "No check-in found for today", err)
		return
	}
	if !record.Open() {
		writeError(w, http.StatusConflict, "Already checked out", nil)
		return
	}

	attendance.CheckOut(record, now)
	if err := h.Store.UpdateAttendance(ctx, *record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check out", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(*record))
}

// ListMyAttendance returns the caller's records for a date range,
// defaulting to the last 30 days.
func (h *Handler) ListMyAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if s := r.URL.Query().Get("from"); s != "" {
		parsed, err := time.Parse(attendance.DateLayout, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date: "+s, err)
			return
		}
		from = parsed
	}
	if s := r.URL.Query().Get("to"); s != "" {
		parsed, err := time.Parse(attendance.DateLayout, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date: "+s, err)
			return
		}
		to = parsed
	}

	records, err := h.Store.ListAttendanceRange(ctx, sess.MemberID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attendance", err)
		return
	}

	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDayAttendance returns every record in the workspace for one date,
// defaulting to today.
func (h *Handler) GetDayAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.Parse(attendance.DateLayout, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date: "+s, err)
			return
		}
		date = parsed
	}

	records, err := h.Store.ListWorkspaceAttendance(ctx, sess.WorkspaceID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attendance", err)
		return
	}

	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ASSIST STATUS
// =============================================================================

// AssistStatus reports whether drafting is configured and reachable.
func (h *Handler) AssistStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AssistStatusDTO{
		Enabled:   h.Draft.Enabled(),
		Available: h.Draft.Available(r.Context()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// storeStatus maps store sentinel errors onto HTTP status codes.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrDuplicateMember), errors.Is(err, sqlite.ErrDuplicateAttendance):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// newInviteCode generates a short shareable code. Only its bcrypt hash is
// stored.
func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
