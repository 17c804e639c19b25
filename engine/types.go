/*
Package engine provides the core leave accounting and scheduling engine.

PURPOSE:
  This package contains the computation and state-transition logic for
  employee time-off: expanding date ranges into consumable work-units,
  maintaining per-employee per-year balances, detecting request conflicts,
  driving the approval state machine, and reconciling permission make-up
  time.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar day (no time-of-day component)
  - ClockTime: A minute-of-day used for permission time windows
  - Leave / Permission: The two request kinds and their derived fields
  - LeaveBalance: Per-employee, per-year entitlement bookkeeping

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for leave units (half days are exact)
  2. Type Safety: Strong typing for IDs prevents mixing employee/leave IDs
  3. Explicitness: Every operation takes employee/year parameters; there is
     no ambient "current user" anywhere in the engine
  4. Purity: Calendar and duration computations are pure functions over
     immutable inputs

SEE ALSO:
  - calendar.go: Workday classification against a holiday set
  - duration.go: Range expansion and half-day unit assignment
  - ledger.go: Balance availability and consumption commits
  - approval.go: The pending -> approved/rejected state machine
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar day (the engine's time unit for leaves)
// =============================================================================

// Date is a calendar day. Time-of-day is always zero, location is UTC.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates any timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now().UTC()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic and properties
func (d Date) AddDays(n int) Date       { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) Year() int                { return d.t.Year() }
func (d Date) Month() time.Month        { return d.t.Month() }
func (d Date) Day() int                 { return d.t.Day() }
func (d Date) Weekday() time.Weekday    { return d.t.Weekday() }
func (d Date) ISOWeek() (int, int)      { return d.t.ISOWeek() }
func (d Date) IsZero() bool             { return d.t.IsZero() }
func (d Date) Time() time.Time          { return d.t }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// DateRange is a closed interval of calendar days [Start, End].
type DateRange struct {
	Start Date
	End   Date
}

func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// CLOCK TIME - Minute of day, for permission windows and make-up slots
// =============================================================================

// ClockTime is a minute offset from midnight (0..1439).
type ClockTime int

// ParseClock parses an HH:MM string.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (use HH:MM): %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type LeaveID string
type PermissionID string
type SlotID string
type HolidayID string

// =============================================================================
// LEAVE - Multi-day absence request
// =============================================================================

type LeaveType string

const (
	LeavePaid   LeaveType = "paid"
	LeaveSick   LeaveType = "sick"
	LeaveUnpaid LeaveType = "unpaid"
)

// BalanceCategory identifies which ledger bucket a leave consumes.
type BalanceCategory string

const (
	CategoryPaid BalanceCategory = "paid"
	CategorySick BalanceCategory = "sick"
)

// Category returns the ledger category for a leave type.
// Unpaid leave consumes no balance and has no category.
func (t LeaveType) Category() (BalanceCategory, bool) {
	switch t {
	case LeavePaid:
		return CategoryPaid, true
	case LeaveSick:
		return CategorySick, true
	default:
		return "", false
	}
}

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// HalfDayUnit is the consumption granularity for a single workday.
type HalfDayUnit string

const (
	UnitFull HalfDayUnit = "full" // whole workday, 1.0 units
	UnitAM   HalfDayUnit = "am"   // morning only, 0.5 units
	UnitPM   HalfDayUnit = "pm"   // afternoon only, 0.5 units
	UnitNone HalfDayUnit = "none" // excluded day, 0 units
)

var (
	decimalOne  = decimal.NewFromInt(1)
	decimalHalf = decimal.New(5, -1)
)

// Units returns the consumption value of the unit.
func (u HalfDayUnit) Units() decimal.Decimal {
	switch u {
	case UnitFull:
		return decimalOne
	case UnitAM, UnitPM:
		return decimalHalf
	default:
		return decimal.Zero
	}
}

// HalfDayOption records the chosen unit for one workday in a leave's range.
// Owned exclusively by the leave that declares it.
type HalfDayOption struct {
	Date Date
	Unit HalfDayUnit
}

// Leave is a multi-day time-off request. HalfDayOptions and TotalUnits are
// derived from the range by the duration calculator and must stay consistent
// with StartDate..EndDate. Status changes only through the approval state
// machine; deletion is allowed only while pending.
type Leave struct {
	ID             LeaveID
	EmployeeID     EmployeeID
	Type           LeaveType
	StartDate      Date
	EndDate        Date
	HalfDayOptions []HalfDayOption
	Status         RequestStatus
	Reason         string
	CertificateRef string // opaque reference into the certificate store; empty = none
	TotalUnits     decimal.Decimal

	DecidedBy       string
	DecidedAt       *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Range returns the leave's closed date interval.
func (l *Leave) Range() DateRange { return DateRange{Start: l.StartDate, End: l.EndDate} }

// IsActive reports whether the leave still reserves or consumes balance.
// Rejected leaves never conflict and never count.
func (l *Leave) IsActive() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}

// =============================================================================
// PERMISSION - Short same-day absence with mandatory make-up time
// =============================================================================

// ReplacementSlot is a block of make-up time declared against a permission.
// DurationMinutes is derived from Start/End and clamped at zero.
type ReplacementSlot struct {
	ID              SlotID
	Date            Date
	Start           ClockTime
	End             ClockTime
	DurationMinutes int
}

// Permission is a short absence measured in minutes, offset by replacement
// slots within the same calendar week. Permissions are time-debt, not
// day-balance consumption: approval never touches the leave ledger.
type Permission struct {
	ID               PermissionID
	EmployeeID       EmployeeID
	Date             Date
	Start            ClockTime
	End              ClockTime
	DurationMinutes  int
	Reason           string
	Status           RequestStatus
	ReplacementSlots []ReplacementSlot

	DecidedBy       string
	DecidedAt       *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// BALANCE - Per-employee, per-year entitlement record
// =============================================================================

// LeaveBalance is one employee-year row of the ledger.
//
// Invariant: RemainingPaid = max(0, InitialPaid + CarriedIn - approved
// consumption). Carry-over is additive bookkeeping: CarriedOut on the source
// year never debits that year's own remaining. Sick leave has no carry-over
// in the observed policy, so CarriedIn/CarriedOut apply to paid leave only.
type LeaveBalance struct {
	ID         string
	EmployeeID EmployeeID
	Year       int

	InitialPaid decimal.Decimal
	InitialSick decimal.Decimal

	RemainingPaid decimal.Decimal
	RemainingSick decimal.Decimal

	CarriedIn  decimal.Decimal // carried over from the previous year
	CarriedOut decimal.Decimal // carried over to the next year
}

// Remaining returns the approved-remaining amount for a category, clamped
// at zero.
func (b *LeaveBalance) Remaining(cat BalanceCategory) decimal.Decimal {
	var r decimal.Decimal
	switch cat {
	case CategoryPaid:
		r = b.RemainingPaid
	case CategorySick:
		r = b.RemainingSick
	}
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Debit reduces the category's remaining amount, clamping at zero.
func (b *LeaveBalance) Debit(cat BalanceCategory, units decimal.Decimal) {
	switch cat {
	case CategoryPaid:
		b.RemainingPaid = b.RemainingPaid.Sub(units)
		if b.RemainingPaid.IsNegative() {
			b.RemainingPaid = decimal.Zero
		}
	case CategorySick:
		b.RemainingSick = b.RemainingSick.Sub(units)
		if b.RemainingSick.IsNegative() {
			b.RemainingSick = decimal.Zero
		}
	}
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee carries a denormalized current-year balance cache alongside the
// identity fields. The cache is populated by the store from the current
// year's LeaveBalance row on read; the full history lives in BalanceStore.
type Employee struct {
	ID       EmployeeID
	Name     string
	Email    string
	HireDate Date

	// Current-year convenience cache
	PaidLeaveBalance decimal.Decimal
	SickLeaveBalance decimal.Decimal

	CreatedAt time.Time
}
