package apiclient

import (
	"context"
	"errors"
	"sync"

	"imtr/backend/internal/dto"
)

// ErrSubmitInFlight a second approve/reject while one is still running
var ErrSubmitInFlight = errors.New("a decision is already being submitted")

// ErrNotSelected a decision for a registration that is not open in the dialog
var ErrNotSelected = errors.New("registration is not open for review")

// Refresher a list that can reload itself, usually a *ListFetcher
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ApprovalWorkflow review dialog for pending registrations. Approving reloads
// both the student roster and the pending list; rejecting reloads only the
// pending list. Failed submissions leave the dialog and selection as they were.
type ApprovalWorkflow struct {
	client  *Client
	roster  Refresher
	pending Refresher

	mu         sync.Mutex
	selected   string
	dialogOpen bool
	loading    bool
}

// NewApprovalWorkflow roster and pending are refreshed after decisions
func NewApprovalWorkflow(c *Client, roster, pending Refresher) *ApprovalWorkflow {
	return &ApprovalWorkflow{client: c, roster: roster, pending: pending}
}

// Open selects a registration and opens the review dialog
func (w *ApprovalWorkflow) Open(userID string) {
	w.mu.Lock()
	w.selected = userID
	w.dialogOpen = true
	w.mu.Unlock()
}

// Close closes the dialog and clears the selection
func (w *ApprovalWorkflow) Close() {
	w.mu.Lock()
	w.selected = ""
	w.dialogOpen = false
	w.mu.Unlock()
}

// Selected user id under review, empty when none
func (w *ApprovalWorkflow) Selected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// DialogOpen whether the review dialog is showing
func (w *ApprovalWorkflow) DialogOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dialogOpen
}

// Loading true while a decision is being submitted
func (w *ApprovalWorkflow) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

func (w *ApprovalWorkflow) begin(userID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading {
		return ErrSubmitInFlight
	}
	if !w.dialogOpen || userID == "" || userID != w.selected {
		return ErrNotSelected
	}
	w.loading = true
	return nil
}

func (w *ApprovalWorkflow) end() {
	w.mu.Lock()
	w.loading = false
	w.mu.Unlock()
}

// Approve enrolls the registration open in the dialog; any other userID is
// refused with ErrNotSelected. Field errors come back as
// validation.FieldErrors without a request being sent. A non-nil result with
// a non-nil error means the approval was stored but a list failed to reload.
func (w *ApprovalWorkflow) Approve(ctx context.Context, userID string, req dto.ApproveStudentRequest) (*dto.ApprovalResponse, error) {
	if err := w.begin(userID); err != nil {
		return nil, err
	}
	defer w.end()

	result, err := w.client.ApproveStudent(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	refreshErr := errors.Join(w.refresh(ctx, w.roster), w.refresh(ctx, w.pending))
	w.Close()
	return result, refreshErr
}

// Reject records a rejection for the open registration; the reason must not
// be blank
func (w *ApprovalWorkflow) Reject(ctx context.Context, userID, reason string) (*dto.ApprovalResponse, error) {
	if err := w.begin(userID); err != nil {
		return nil, err
	}
	defer w.end()

	result, err := w.client.RejectStudent(ctx, userID, reason)
	if err != nil {
		return nil, err
	}

	refreshErr := w.refresh(ctx, w.pending)
	w.Close()
	return result, refreshErr
}

func (w *ApprovalWorkflow) refresh(ctx context.Context, list Refresher) error {
	if list == nil {
		return nil
	}
	return list.Refresh(ctx)
}
