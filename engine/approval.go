/*
approval.go - The pending -> approved/rejected state machine

PURPOSE:
  Governs the lifecycle of leave and permission requests. Both kinds share
  the same two terminal outcomes:

            +-> APPROVED  (terminal)
    PENDING-+
            +-> REJECTED  (terminal; no un-reject)

  Only a PENDING request may transition. On leave approval the balance
  ledger commit happens synchronously as part of the same transition.
  Permission decisions never touch the ledger: permissions are time-debt,
  not day-balance consumption.

BATCH SEMANTICS:
  batch operations apply the transition to each id independently. A failure
  on one id does NOT roll back successes already committed for other ids -
  there is no atomicity across a batch. Outcomes are reported per item so
  the caller can display exactly which decisions landed.

CERTIFICATE GATE:
  A sick leave whose TotalUnits exceed the certificate threshold cannot be
  approved without a certificate reference. Rejection is always allowed -
  "no certificate was provided" is itself a valid rejection ground.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSickCertificateThreshold is the workday-unit count above which a
// sick leave requires a medical certificate to be approved.
var DefaultSickCertificateThreshold = decimal.NewFromInt(3)

// =============================================================================
// APPROVAL STATE MACHINE
// =============================================================================

type ApprovalStateMachine struct {
	Leaves      LeaveStore
	Permissions PermissionStore
	Ledger      *BalanceLedger

	// SickCertificateThreshold overrides the default when positive.
	SickCertificateThreshold decimal.Decimal
}

func (sm *ApprovalStateMachine) certificateThreshold() decimal.Decimal {
	if sm.SickCertificateThreshold.IsPositive() {
		return sm.SickCertificateThreshold
	}
	return DefaultSickCertificateThreshold
}

// =============================================================================
// LEAVE DECISIONS
// =============================================================================

// ApproveLeave transitions a pending leave to APPROVED and commits its
// consumption to the balance ledger in the same operation.
func (sm *ApprovalStateMachine) ApproveLeave(ctx context.Context, id LeaveID, approverID string) (*Leave, error) {
	leave, err := sm.Leaves.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != StatusPending {
		return nil, &InvalidStateTransitionError{ID: string(id), Current: leave.Status}
	}

	if leave.Type == LeaveSick {
		threshold := sm.certificateThreshold()
		if leave.TotalUnits.GreaterThan(threshold) && leave.CertificateRef == "" {
			return nil, &CertificateRequiredError{LeaveID: id, Units: leave.TotalUnits, Threshold: threshold}
		}
	}

	now := time.Now().UTC()
	leave.Status = StatusApproved
	leave.DecidedBy = approverID
	leave.DecidedAt = &now
	leave.UpdatedAt = now

	// Status persists before the ledger debit. A failed persist leaves the
	// balance untouched and the leave pending; a failed commit leaves an
	// approved leave undebited, never a pending leave debited twice on retry.
	if err := sm.Leaves.UpsertLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("persist leave: %w", err)
	}
	if err := sm.Ledger.Commit(ctx, leave); err != nil {
		return nil, fmt.Errorf("commit consumption: %w", err)
	}
	return leave, nil
}

// RejectLeave transitions a pending leave to REJECTED. No ledger write:
// the leave simply stops counting as pending.
func (sm *ApprovalStateMachine) RejectLeave(ctx context.Context, id LeaveID, rejecterID, reason string) (*Leave, error) {
	leave, err := sm.Leaves.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != StatusPending {
		return nil, &InvalidStateTransitionError{ID: string(id), Current: leave.Status}
	}

	now := time.Now().UTC()
	leave.Status = StatusRejected
	leave.DecidedBy = rejecterID
	leave.DecidedAt = &now
	leave.RejectionReason = reason
	leave.UpdatedAt = now

	if err := sm.Leaves.UpsertLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("persist leave: %w", err)
	}
	return leave, nil
}

// =============================================================================
// PERMISSION DECISIONS
// =============================================================================

// ApprovePermission transitions a pending permission to APPROVED.
// Permissions never touch the balance ledger.
func (sm *ApprovalStateMachine) ApprovePermission(ctx context.Context, id PermissionID, approverID string) (*Permission, error) {
	p, err := sm.Permissions.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, &InvalidStateTransitionError{ID: string(id), Current: p.Status}
	}

	now := time.Now().UTC()
	p.Status = StatusApproved
	p.DecidedBy = approverID
	p.DecidedAt = &now
	p.UpdatedAt = now

	if err := sm.Permissions.UpsertPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("persist permission: %w", err)
	}
	return p, nil
}

// RejectPermission transitions a pending permission to REJECTED.
func (sm *ApprovalStateMachine) RejectPermission(ctx context.Context, id PermissionID, rejecterID, reason string) (*Permission, error) {
	p, err := sm.Permissions.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, &InvalidStateTransitionError{ID: string(id), Current: p.Status}
	}

	now := time.Now().UTC()
	p.Status = StatusRejected
	p.DecidedBy = rejecterID
	p.DecidedAt = &now
	p.RejectionReason = reason
	p.UpdatedAt = now

	if err := sm.Permissions.UpsertPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("persist permission: %w", err)
	}
	return p, nil
}

// =============================================================================
// BATCH DECISIONS - Per-item results, no cross-item rollback
// =============================================================================

// BatchResult is one item's outcome in a batch decision. Err is nil on
// success; partial batch failures are reported here, never as a single
// aggregate error.
type BatchResult struct {
	ID  string
	Err error
}

// BatchApproveLeaves approves each id independently. A failed item never
// rolls back ledger commits already made for earlier items.
func (sm *ApprovalStateMachine) BatchApproveLeaves(ctx context.Context, ids []LeaveID, approverID string) []BatchResult {
	results := make([]BatchResult, len(ids))
	for i, id := range ids {
		_, err := sm.ApproveLeave(ctx, id, approverID)
		results[i] = BatchResult{ID: string(id), Err: err}
	}
	return results
}

// BatchRejectLeaves rejects each id independently.
func (sm *ApprovalStateMachine) BatchRejectLeaves(ctx context.Context, ids []LeaveID, rejecterID, reason string) []BatchResult {
	results := make([]BatchResult, len(ids))
	for i, id := range ids {
		_, err := sm.RejectLeave(ctx, id, rejecterID, reason)
		results[i] = BatchResult{ID: string(id), Err: err}
	}
	return results
}

// BatchApprovePermissions approves each id independently.
func (sm *ApprovalStateMachine) BatchApprovePermissions(ctx context.Context, ids []PermissionID, approverID string) []BatchResult {
	results := make([]BatchResult, len(ids))
	for i, id := range ids {
		_, err := sm.ApprovePermission(ctx, id, approverID)
		results[i] = BatchResult{ID: string(id), Err: err}
	}
	return results
}

// BatchRejectPermissions rejects each id independently.
func (sm *ApprovalStateMachine) BatchRejectPermissions(ctx context.Context, ids []PermissionID, rejecterID, reason string) []BatchResult {
	results := make([]BatchResult, len(ids))
	for i, id := range ids {
		_, err := sm.RejectPermission(ctx, id, rejecterID, reason)
		results[i] = BatchResult{ID: string(id), Err: err}
	}
	return results
}
