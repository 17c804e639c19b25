/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All validation failures the engine can raise, in one place. Every error
  here is recoverable by the caller: nothing in this package is fatal to
  the process, and nothing is retried silently. The surrounding application
  translates these into user-facing messages.

ERROR CATEGORIES:
  1. Range/calendar errors - malformed or disallowed date inputs
  2. Balance errors - insufficient or missing ledger records
  3. Workflow errors - illegal state transitions, conflicts
  4. Permission errors - invalid make-up slot placement

USAGE:
  Callers match with errors.Is/errors.As:

    if errors.Is(err, engine.ErrInsufficientBalance) { ... }

    var conflict *engine.ConflictError
    if errors.As(err, &conflict) {
        show(conflict.Existing)
    }

SEE ALSO:
  - duration.go, ledger.go, approval.go, replacement.go: raise these errors
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when an end date precedes its start date.
	ErrInvalidRange = errors.New("invalid range: end date before start date")

	// ErrHolidayBoundary is returned when a sick leave starts or ends on a
	// non-workday. Sick leave has no partial-day concept to fall back on.
	ErrHolidayBoundary = errors.New("sick leave may not start or end on a holiday")

	// ErrConflict is returned when an overlapping active leave exists.
	ErrConflict = errors.New("overlapping active leave exists")

	// ErrInsufficientBalance is returned when requested units plus pending
	// consumption exceed the approved remaining balance.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrWeekendReplacement is returned when a permission make-up slot falls
	// on a weekend.
	ErrWeekendReplacement = errors.New("replacement slot falls on a weekend")

	// ErrReplacementOutsideWeek is returned when a make-up slot is not in the
	// same calendar week as its permission.
	ErrReplacementOutsideWeek = errors.New("replacement slot outside permission week")

	// ErrNoBalanceRecord is returned when a carry-over references a year with
	// no existing ledger row.
	ErrNoBalanceRecord = errors.New("no balance record for year")

	// ErrInvalidStateTransition is returned when approving/rejecting a
	// request that is not pending, or deleting a decided request.
	ErrInvalidStateTransition = errors.New("request is not pending")

	// ErrCertificateRequired is returned when a sick leave above the
	// certificate threshold is approved without a certificate reference.
	ErrCertificateRequired = errors.New("medical certificate required")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports a range whose end precedes its start.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// HolidayBoundaryError reports a sick leave touching a non-workday boundary.
type HolidayBoundaryError struct {
	Date    Date
	Holiday string // holiday name, empty when the boundary is a weekend
}

func (e *HolidayBoundaryError) Error() string {
	if e.Holiday != "" {
		return fmt.Sprintf("sick leave may not start or end on holiday %q (%s)", e.Holiday, e.Date)
	}
	return fmt.Sprintf("sick leave may not start or end on non-workday %s", e.Date)
}

func (e *HolidayBoundaryError) Unwrap() error { return ErrHolidayBoundary }

// ConflictError reports an overlap with an existing active leave.
type ConflictError struct {
	EmployeeID EmployeeID
	Candidate  DateRange
	Existing   *Leave
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("request %s overlaps %s leave %s %s",
		e.Candidate, e.Existing.Status, e.Existing.ID, e.Existing.Range())
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InsufficientBalanceError reports a balance shortage. Remaining and Pending
// are included for user disclosure.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Year       int
	Category   BalanceCategory
	Requested  decimal.Decimal
	Remaining  decimal.Decimal
	Pending    decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %d: requested %s, remaining %s, already pending %s",
		e.Category, e.Year, e.Requested, e.Remaining, e.Pending)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// WeekendReplacementError reports a make-up slot on a weekend day.
type WeekendReplacementError struct {
	Date Date
}

func (e *WeekendReplacementError) Error() string {
	return fmt.Sprintf("replacement slot on %s falls on a weekend", e.Date)
}

func (e *WeekendReplacementError) Unwrap() error { return ErrWeekendReplacement }

// NoBalanceRecordError reports a missing employee-year ledger row.
type NoBalanceRecordError struct {
	EmployeeID EmployeeID
	Year       int
}

func (e *NoBalanceRecordError) Error() string {
	return fmt.Sprintf("no balance record for employee %s year %d", e.EmployeeID, e.Year)
}

func (e *NoBalanceRecordError) Unwrap() error { return ErrNoBalanceRecord }

// InvalidStateTransitionError reports a decision on a non-pending request.
type InvalidStateTransitionError struct {
	ID      string // leave or permission id
	Current RequestStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("request %s is %s, only pending requests can transition", e.ID, e.Current)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// CertificateRequiredError reports a sick leave approval blocked on the
// missing certificate reference.
type CertificateRequiredError struct {
	LeaveID   LeaveID
	Units     decimal.Decimal
	Threshold decimal.Decimal
}

func (e *CertificateRequiredError) Error() string {
	return fmt.Sprintf("sick leave %s (%s units) exceeds the %s-unit threshold and has no certificate",
		e.LeaveID, e.Units, e.Threshold)
}

func (e *CertificateRequiredError) Unwrap() error { return ErrCertificateRequired }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is a validation failure caused by
// the caller's input, as opposed to a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrHolidayBoundary) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrWeekendReplacement) ||
		errors.Is(err, ErrReplacementOutsideWeek) ||
		errors.Is(err, ErrNoBalanceRecord) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrCertificateRequired)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
