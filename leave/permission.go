/*
permission.go - Short-absence permissions and their make-up slots

PURPOSE:
  A permission is a same-day absence measured in minutes. The employee
  declares replacement slots that pay the time back within the same
  calendar week. This service derives durations, enforces slot placement,
  and flags (but does not block) unbalanced declarations.

SEE ALSO:
  - engine/replacement.go: Slot duration and placement rules
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// PERMISSION SERVICE
// =============================================================================

type PermissionService struct {
	Permissions engine.PermissionStore
	Log         *zap.Logger
}

// SlotInput is one declared make-up block. Duration is derived, never
// supplied by the caller.
type SlotInput struct {
	Date  engine.Date
	Start engine.ClockTime
	End   engine.ClockTime
}

type SubmitPermissionInput struct {
	EmployeeID engine.EmployeeID
	Date       engine.Date
	Start      engine.ClockTime
	End        engine.ClockTime
	Reason     string
	Slots      []SlotInput
}

// PermissionResult is the saved permission plus the balance warning.
// Balanced=false means the declared make-up time does not equal the
// absence duration; the permission is saved regardless.
type PermissionResult struct {
	Permission *engine.Permission
	Balanced   bool
}

// Submit validates slot placement and persists a new pending permission.
// An imbalance between absence and make-up time is reported, not rejected.
func (s *PermissionService) Submit(ctx context.Context, in SubmitPermissionInput) (*PermissionResult, error) {
	slots, err := buildSlots(in.Slots, in.Date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &engine.Permission{
		ID:               engine.PermissionID(uuid.NewString()),
		EmployeeID:       in.EmployeeID,
		Date:             in.Date,
		Start:            in.Start,
		End:              in.End,
		DurationMinutes:  engine.SlotDuration(in.Start, in.End),
		Reason:           in.Reason,
		Status:           engine.StatusPending,
		ReplacementSlots: slots,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.Permissions.UpsertPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("persist permission: %w", err)
	}

	balanced := engine.IsBalanced(p.DurationMinutes, p.ReplacementSlots)
	if !balanced {
		s.log().Warn("permission saved with unbalanced make-up time",
			zap.String("permission_id", string(p.ID)),
			zap.Int("duration_minutes", p.DurationMinutes),
			zap.Int("replacement_minutes", engine.TotalReplacementMinutes(p.ReplacementSlots)))
	}
	return &PermissionResult{Permission: p, Balanced: balanced}, nil
}

// Edit replaces a pending permission's window and slots wholesale.
func (s *PermissionService) Edit(ctx context.Context, id engine.PermissionID, in SubmitPermissionInput) (*PermissionResult, error) {
	p, err := s.Permissions.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != engine.StatusPending {
		return nil, &engine.InvalidStateTransitionError{ID: string(id), Current: p.Status}
	}

	slots, err := buildSlots(in.Slots, in.Date)
	if err != nil {
		return nil, err
	}

	p.Date = in.Date
	p.Start = in.Start
	p.End = in.End
	p.DurationMinutes = engine.SlotDuration(in.Start, in.End)
	p.Reason = in.Reason
	p.ReplacementSlots = slots
	p.UpdatedAt = time.Now().UTC()

	if err := s.Permissions.UpsertPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("persist permission: %w", err)
	}
	return &PermissionResult{Permission: p, Balanced: engine.IsBalanced(p.DurationMinutes, p.ReplacementSlots)}, nil
}

// Delete removes a permission. Allowed only while pending.
func (s *PermissionService) Delete(ctx context.Context, id engine.PermissionID) error {
	p, err := s.Permissions.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != engine.StatusPending {
		return &engine.InvalidStateTransitionError{ID: string(id), Current: p.Status}
	}
	return s.Permissions.DeletePermission(ctx, id)
}

// buildSlots derives durations and validates placement for the declared
// make-up blocks.
func buildSlots(inputs []SlotInput, permissionDate engine.Date) ([]engine.ReplacementSlot, error) {
	slots := make([]engine.ReplacementSlot, len(inputs))
	for i, in := range inputs {
		slots[i] = engine.ReplacementSlot{
			ID:              engine.SlotID(uuid.NewString()),
			Date:            in.Date,
			Start:           in.Start,
			End:             in.End,
			DurationMinutes: engine.SlotDuration(in.Start, in.End),
		}
	}
	if err := engine.ValidateSlots(slots, permissionDate); err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *PermissionService) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
