package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lntconnect/connect/leave"
)

// upcomingMonday returns the first Monday at least a week out, so test
// requests are never in the past and never past the booking horizon.
func upcomingMonday() time.Time {
	now := time.Now().UTC()
	offset := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return now.AddDate(0, 0, offset+7)
}

func day(t time.Time) string { return t.Format(leave.DateLayout) }

// submitLeave submits a request as userID and returns the decoded
// response alongside the recorder.
func submitLeave(t *testing.T, router http.Handler, wsID, userID string, req SubmitLeaveRequest) (LeaveRequestDTO, int) {
	t.Helper()

	var dto LeaveRequestDTO
	rec := doJSON(t, router, http.MethodPost, "/api/workspaces/"+wsID+"/leave/requests", userID, req, &dto)
	return dto, rec.Code
}

func TestLeaveApprovalDeductsExactlyOnce(t *testing.T) {
	// GIVEN a pending three-day casual request
	_, router := newTestServer(t)
	wsID, code := createWorkspace(t, router, "user-owner", "Bridge Works")
	joinWorkspace(t, router, "user-dev", wsID, code)

	monday := upcomingMonday()
	req, status := submitLeave(t, router, wsID, "user-dev", SubmitLeaveRequest{
		Type:      "CASUAL",
		StartDate: day(monday),
		EndDate:   day(monday.AddDate(0, 0, 2)),
		Reason:    "Family visit",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "3", req.Days)
	assert.Equal(t, "PENDING", req.Status)

	// WHEN the manager approves it
	approvePath := fmt.Sprintf("/api/workspaces/%s/leave/requests/%s/approve", wsID, req.ID)
	rec := doJSON(t, router, http.MethodPost, approvePath, "user-owner", ReviewRequest{Note: "Enjoy"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN the balance drops by exactly the request's days
	var ledger LedgerDTO
	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/balance", "user-dev", nil, &ledger)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15", ledger.PaidLeave)

	// AND a second approval attempt cannot deduct again
	rec = doJSON(t, router, http.MethodPost, approvePath, "user-owner", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/balance", "user-dev", nil, &ledger)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15", ledger.PaidLeave)
}

func TestOverlappingLeaveRejected(t *testing.T) {
	// GIVEN an existing pending request
	_, router := newTestServer(t)
	wsID, code := createWorkspace(t, router, "user-owner", "Bridge Works")
	joinWorkspace(t, router, "user-dev", wsID, code)

	monday := upcomingMonday()
	_, status := submitLeave(t, router, wsID, "user-dev", SubmitLeaveRequest{
		Type:      "CASUAL",
		StartDate: day(monday),
		EndDate:   day(monday.AddDate(0, 0, 4)),
	})
	require.Equal(t, http.StatusCreated, status)

	// WHEN a second request covers any of the same days
	_, status = submitLeave(t, router, wsID, "user-dev", SubmitLeaveRequest{
		Type:      "SICK",
		StartDate: day(monday.AddDate(0, 0, 4)),
		EndDate:   day(monday.AddDate(0, 0, 7)),
	})

	// THEN it is refused
	assert.Equal(t, http.StatusConflict, status)

	// AND a request for different days still goes through
	_, status = submitLeave(t, router, wsID, "user-dev", SubmitLeaveRequest{
		Type:      "SICK",
		StartDate: day(monday.AddDate(0, 0, 7)),
		EndDate:   day(monday.AddDate(0, 0, 8)),
	})
	assert.Equal(t, http.StatusCreated, status)
}

func TestHalfDayCostsOneUnit(t *testing.T) {
	_, router := newTestServer(t)
	wsID, _ := createWorkspace(t, router, "user-owner", "Bridge Works")

	monday := upcomingMonday()
	req, status := submitLeave(t, router, wsID, "user-owner", SubmitLeaveRequest{
		Type:      "HALF_DAY",
		StartDate: day(monday),
		EndDate:   day(monday),
		HalfDay:   true,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "1", req.Days)

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/workspaces/%s/leave/requests/%s/approve", wsID, req.ID), "user-owner", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ledger LedgerDTO
	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/balance", "user-owner", nil, &ledger)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", ledger.HalfDay)
	assert.Equal(t, "18", ledger.PaidLeave)
}

func TestUnpaidLeaveAlwaysPasses(t *testing.T) {
	// GIVEN any balance state, unpaid leave has no funding check
	_, router := newTestServer(t)
	wsID, _ := createWorkspace(t, router, "user-owner", "Bridge Works")

	monday := upcomingMonday()
	req, status := submitLeave(t, router, wsID, "user-owner", SubmitLeaveRequest{
		Type:      "UNPAID",
		StartDate: day(monday),
		EndDate:   day(monday.AddDate(0, 0, 25)),
	})
	require.Equal(t, http.StatusCreated, status)

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/workspaces/%s/leave/requests/%s/approve", wsID, req.ID), "user-owner", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The unpaid counter records usage instead of draining a grant.
	var ledger LedgerDTO
	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/balance", "user-owner", nil, &ledger)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "0", ledger.UnpaidLeave)
}

func TestInsufficientBalanceRejectedAtSubmit(t *testing.T) {
	// GIVEN the default grant of 18 paid days
	_, router := newTestServer(t)
	wsID, _ := createWorkspace(t, router, "user-owner", "Bridge Works")

	// WHEN asking for roughly 25 working days of annual leave
	monday := upcomingMonday()
	_, status := submitLeave(t, router, wsID, "user-owner", SubmitLeaveRequest{
		Type:      "ANNUAL",
		StartDate: day(monday),
		EndDate:   day(monday.AddDate(0, 0, 34)),
	})

	// THEN the request never reaches PENDING
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInvalidDateOrderRejected(t *testing.T) {
	_, router := newTestServer(t)
	wsID, _ := createWorkspace(t, router, "user-owner", "Bridge Works")

	monday := upcomingMonday()
	_, status := submitLeave(t, router, wsID, "user-owner", SubmitLeaveRequest{
		Type:      "CASUAL",
		StartDate: day(monday.AddDate(0, 0, 3)),
		EndDate:   day(monday),
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCancelOwnPendingRequest(t *testing.T) {
	// GIVEN a pending request from a member
	_, router := newTestServer(t)
	wsID, code := createWorkspace(t, router, "user-owner", "Bridge Works")
	joinWorkspace(t, router, "user-dev", wsID, code)

	monday := upcomingMonday()
	req, status := submitLeave(t, router, wsID, "user-dev", SubmitLeaveRequest{
		Type:      "CASUAL",
		StartDate: day(monday),
		EndDate:   day(monday),
	})
	require.Equal(t, http.StatusCreated, status)

	// Only the requester may cancel.
	cancelPath := fmt.Sprintf("/api/workspaces/%s/leave/requests/%s/cancel", wsID, req.ID)
	rec := doJSON(t, router, http.MethodPost, cancelPath, "user-owner", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var cancelled LeaveRequestDTO
	rec = doJSON(t, router, http.MethodPost, cancelPath, "user-dev", nil, &cancelled)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// A cancelled request cannot be approved afterwards.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/workspaces/%s/leave/requests/%s/approve", wsID, req.ID), "user-owner", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRejectLeavesBalanceUntouched(t *testing.T) {
	_, router := newTestServer(t)
	wsID, code := createWorkspace(t, router, "user-owner", "Bridge Works")
	joinWorkspace(t, router, "user-dev", wsID, code)

	monday := upcomingMonday()
	req, status := submitLeave(t, router, wsID, "user-dev", SubmitLeaveRequest{
		Type:      "CASUAL",
		StartDate: day(monday),
		EndDate:   day(monday.AddDate(0, 0, 1)),
	})
	require.Equal(t, http.StatusCreated, status)

	var rejected LeaveRequestDTO
	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/workspaces/%s/leave/requests/%s/reject", wsID, req.ID),
		"user-owner", ReviewRequest{Note: "Release week"}, &rejected)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "Release week", rejected.ReviewNote)

	var ledger LedgerDTO
	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/balance", "user-dev", nil, &ledger)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "18", ledger.PaidLeave)
}

func TestMemberCannotListWorkspaceLeave(t *testing.T) {
	_, router := newTestServer(t)
	wsID, code := createWorkspace(t, router, "user-owner", "Bridge Works")
	joinWorkspace(t, router, "user-dev", wsID, code)

	rec := doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/requests", "user-dev", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/workspaces/"+wsID+"/leave/requests/mine", "user-dev", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdjustBalance(t *testing.T) {
	// GIVEN a manager adjusting a member's comp-off counter
	_, router := newTestServer(t)
	wsID, code := createWorkspace(t, router, "user-owner", "Bridge Works")
	member := joinWorkspace(t, router, "user-dev", wsID, code)

	var ledger LedgerDTO
	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/workspaces/%s/leave/balances/%s/adjust", wsID, member.ID),
		"user-owner", AdjustBalanceRequest{Field: "comp_off", Delta: "2"}, &ledger)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", ledger.CompOff)

	// A counter may not go negative.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/workspaces/%s/leave/balances/%s/adjust", wsID, member.ID),
		"user-owner", AdjustBalanceRequest{Field: "comp_off", Delta: "-5"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
