/*
Package leave orchestrates the leave request lifecycle on top of the engine.

PURPOSE:
  Implements the control flow around a request:

    build (duration calculator) -> conflict check -> affordability check
      -> persist PENDING -> later decided by the approval state machine

  Services here own ID generation and persistence sequencing; all the
  arithmetic and validation rules live in the engine package.

EXPLICITNESS:
  Every operation takes the employee id explicitly. There is no ambient
  "current user" and no cached dataset: each validation queries the stores
  for exactly the active records it needs. The caller is expected to
  serialize writes per employee externally; the service re-validates
  against the store immediately before persisting (optimistic, not locked).
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// REQUEST SERVICE - Leave submission, editing, deletion
// =============================================================================

type RequestService struct {
	Holidays engine.HolidaySource
	Leaves   engine.LeaveStore
	Ledger   *engine.BalanceLedger
	Certs    engine.CertificateStore
	Log      *zap.Logger
}

// SubmitLeaveInput carries everything needed to build a leave request.
// Units may pre-select half-day choices by date; days not listed default
// to FULL.
type SubmitLeaveInput struct {
	EmployeeID engine.EmployeeID
	Type       engine.LeaveType
	StartDate  engine.Date
	EndDate    engine.Date
	Units      []engine.HalfDayOption
	Reason     string
}

// SubmitResult is the saved leave plus the holiday disclosure: a request
// spanning a holiday must surface which named holiday was skipped.
type SubmitResult struct {
	Leave            *engine.Leave
	ExcludedHolidays []engine.Holiday
}

// Submit builds, validates, and persists a new leave in PENDING state.
// Validation failures (invalid range, sick boundary, conflict, insufficient
// balance) are returned to the caller; nothing is persisted on failure.
func (s *RequestService) Submit(ctx context.Context, in SubmitLeaveInput) (*SubmitResult, error) {
	schedule, excluded, err := s.buildSchedule(ctx, in.StartDate, in.EndDate, in.Units, in.Type)
	if err != nil {
		return nil, err
	}

	if err := s.validate(ctx, in.EmployeeID, in.Type, in.StartDate, in.EndDate, schedule.TotalUnits, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leave := &engine.Leave{
		ID:             engine.LeaveID(uuid.NewString()),
		EmployeeID:     in.EmployeeID,
		Type:           in.Type,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		HalfDayOptions: schedule.Options,
		Status:         engine.StatusPending,
		Reason:         in.Reason,
		TotalUnits:     schedule.TotalUnits,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Leaves.UpsertLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("persist leave: %w", err)
	}

	s.log().Info("leave submitted",
		zap.String("leave_id", string(leave.ID)),
		zap.String("employee_id", string(leave.EmployeeID)),
		zap.String("type", string(leave.Type)),
		zap.String("total_units", leave.TotalUnits.String()))

	return &SubmitResult{Leave: leave, ExcludedHolidays: excluded}, nil
}

// Edit recomputes a pending leave's derived fields for a new range or type.
// Previously chosen half-day units are preserved by date; switching the type
// to sick re-forces every unit to FULL. Only pending leaves may be edited.
func (s *RequestService) Edit(ctx context.Context, id engine.LeaveID, in SubmitLeaveInput) (*SubmitResult, error) {
	leave, err := s.Leaves.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != engine.StatusPending {
		return nil, &engine.InvalidStateTransitionError{ID: string(id), Current: leave.Status}
	}

	// Explicit unit choices in the input win over the stored ones.
	previous := append(append([]engine.HalfDayOption(nil), leave.HalfDayOptions...), in.Units...)

	schedule, excluded, err := s.buildSchedule(ctx, in.StartDate, in.EndDate, previous, in.Type)
	if err != nil {
		return nil, err
	}

	// The leave being edited must not conflict with itself or reserve
	// pending balance against itself.
	if err := s.validate(ctx, leave.EmployeeID, in.Type, in.StartDate, in.EndDate, schedule.TotalUnits, id); err != nil {
		return nil, err
	}

	leave.Type = in.Type
	leave.StartDate = in.StartDate
	leave.EndDate = in.EndDate
	leave.HalfDayOptions = schedule.Options
	leave.TotalUnits = schedule.TotalUnits
	leave.Reason = in.Reason
	leave.UpdatedAt = time.Now().UTC()

	if err := s.Leaves.UpsertLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("persist leave: %w", err)
	}
	return &SubmitResult{Leave: leave, ExcludedHolidays: excluded}, nil
}

// Delete removes a leave. Allowed only while pending; decided leaves are
// part of the balance history and stay.
func (s *RequestService) Delete(ctx context.Context, id engine.LeaveID) error {
	leave, err := s.Leaves.GetLeave(ctx, id)
	if err != nil {
		return err
	}
	if leave.Status != engine.StatusPending {
		return &engine.InvalidStateTransitionError{ID: string(id), Current: leave.Status}
	}
	return s.Leaves.DeleteLeave(ctx, id)
}

// AttachCertificate records a medical certificate reference on the leave.
// The engine never sees the file; transfer happens elsewhere.
func (s *RequestService) AttachCertificate(ctx context.Context, id engine.LeaveID, ref string) (*engine.Leave, error) {
	leave, err := s.Leaves.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Certs.SaveRef(ctx, id, ref); err != nil {
		return nil, fmt.Errorf("save certificate ref: %w", err)
	}

	leave.CertificateRef = ref
	leave.UpdatedAt = time.Now().UTC()
	if err := s.Leaves.UpsertLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("persist leave: %w", err)
	}
	return leave, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *RequestService) buildSchedule(ctx context.Context, start, end engine.Date, previous []engine.HalfDayOption, leaveType engine.LeaveType) (*engine.Schedule, []engine.Holiday, error) {
	if start.After(end) {
		return nil, nil, &engine.InvalidRangeError{Start: start, End: end}
	}

	holidayList, err := s.Holidays.ListHolidays(ctx, start.Year(), end.Year())
	if err != nil {
		return nil, nil, fmt.Errorf("list holidays: %w", err)
	}
	holidays := engine.NewHolidaySet(holidayList)

	schedule, err := engine.BuildSchedule(start, end, previous, leaveType, holidays)
	if err != nil {
		return nil, nil, err
	}
	return schedule, schedule.ExcludedHolidays, nil
}

// validate runs the conflict and affordability checks. exclude skips one
// leave id in both checks (the leave being edited).
func (s *RequestService) validate(ctx context.Context, employeeID engine.EmployeeID, leaveType engine.LeaveType, start, end engine.Date, totalUnits decimal.Decimal, exclude engine.LeaveID) error {
	active, err := s.Leaves.ListLeaves(ctx, engine.ActiveLeaves(employeeID))
	if err != nil {
		return fmt.Errorf("list active leaves: %w", err)
	}

	candidate := engine.DateRange{Start: start, End: end}
	if existing := engine.FindConflict(candidate, active, exclude); existing != nil {
		return &engine.ConflictError{EmployeeID: employeeID, Candidate: candidate, Existing: existing}
	}

	cat, ok := leaveType.Category()
	if !ok {
		return nil // unpaid leave consumes no balance
	}

	year := start.Year()
	affordable, avail, err := s.Ledger.CanAfford(ctx, employeeID, year, cat, totalUnits, exclude)
	if err != nil {
		return err
	}
	if !affordable {
		return &engine.InsufficientBalanceError{
			EmployeeID: employeeID,
			Year:       year,
			Category:   cat,
			Requested:  totalUnits,
			Remaining:  avail.ApprovedRemaining,
			Pending:    avail.PendingConsumed,
		}
	}
	return nil
}

func (s *RequestService) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
