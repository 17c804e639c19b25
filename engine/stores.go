/*
stores.go - Collaborator contracts consumed by the engine

PURPOSE:
  Defines the interfaces between the engine and the system of record.
  The engine never holds its own cached copy of the dataset: every
  validation queries a store for exactly the records it needs, and the
  caller re-validates immediately before commit (optimistic concurrency -
  the engine provides no cross-process mutual exclusion).

NORMALIZATION BOUNDARY:
  These interfaces are the single adapter seam per collaborator. Whatever
  transport or envelope the surrounding application speaks, the engine
  only ever sees these shapes.

IMPLEMENTATIONS:
  - store (memory):  In-memory, for tests and development
  - store/sqlite:    SQLite-backed production store
*/
package engine

import "context"

// =============================================================================
// HOLIDAY SOURCE - Read-only reference data
// =============================================================================

type HolidaySource interface {
	// ListHolidays returns holidays whose date falls in [fromYear, toYear],
	// plus all recurring holidays.
	ListHolidays(ctx context.Context, fromYear, toYear int) ([]Holiday, error)
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

type EmployeeFilter struct {
	Name string // substring match, empty = all
}

type EmployeeDirectory interface {
	// GetEmployee returns the employee including the current-year balance
	// cache. Returns ErrNotFound if the employee does not exist.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error)

	SaveEmployee(ctx context.Context, e Employee) error
}

// =============================================================================
// LEAVE / PERMISSION STORES
// =============================================================================

// LeaveFilter narrows a leave listing. Zero values mean "any".
type LeaveFilter struct {
	EmployeeID EmployeeID
	Statuses   []RequestStatus
	Types      []LeaveType
	Year       int // matched on the leave's start date
}

// ActiveLeaves is the filter used for conflict checking: the employee's
// pending and approved leaves.
func ActiveLeaves(employeeID EmployeeID) LeaveFilter {
	return LeaveFilter{
		EmployeeID: employeeID,
		Statuses:   []RequestStatus{StatusPending, StatusApproved},
	}
}

type LeaveStore interface {
	GetLeave(ctx context.Context, id LeaveID) (*Leave, error)
	ListLeaves(ctx context.Context, filter LeaveFilter) ([]Leave, error)
	UpsertLeave(ctx context.Context, leave *Leave) error
	DeleteLeave(ctx context.Context, id LeaveID) error
}

type PermissionFilter struct {
	EmployeeID EmployeeID
	Statuses   []RequestStatus
	Year       int
}

type PermissionStore interface {
	GetPermission(ctx context.Context, id PermissionID) (*Permission, error)
	ListPermissions(ctx context.Context, filter PermissionFilter) ([]Permission, error)
	UpsertPermission(ctx context.Context, p *Permission) error
	DeletePermission(ctx context.Context, id PermissionID) error
}

// =============================================================================
// BALANCE STORE
// =============================================================================

type BalanceStore interface {
	// GetBalance returns the employee-year row. Returns ErrNotFound when the
	// year has not been provisioned.
	GetBalance(ctx context.Context, employeeID EmployeeID, year int) (*LeaveBalance, error)

	// ListBalances returns all rows for a year (employeeID empty) or all
	// years for an employee (year zero).
	ListBalances(ctx context.Context, employeeID EmployeeID, year int) ([]LeaveBalance, error)

	UpsertBalance(ctx context.Context, b *LeaveBalance) error
}

// =============================================================================
// CERTIFICATE STORE - Opaque blob references keyed by leave id
// =============================================================================

// CertificateStore records medical certificate references. The engine never
// inspects file content; upload/download transport is external.
type CertificateStore interface {
	SaveRef(ctx context.Context, leaveID LeaveID, ref string) error

	// Ref returns the stored reference, or ErrNotFound.
	Ref(ctx context.Context, leaveID LeaveID) (string, error)
}
