/*
ledger.go - Per-employee, per-year balance accounting

PURPOSE:
  Answers "how much can this employee still request?" and commits approved
  consumption. The central rule is that PENDING consumption counts against
  the remaining balance at submission time:

    CanAfford = requested + pendingConsumed <= approvedRemaining

  This prevents two concurrently submitted requests from jointly
  overdrawing a balance even though only one has been approved.

BALANCE COMPONENTS:
  ApprovedRemaining: max(0, entitlement - approvedConsumed), where
                     entitlement = initial + carriedIn (paid only; sick
                     leave has no carry-over in the observed policy)
  PendingConsumed:   sum of TotalUnits over the employee's PENDING leaves
                     of the same category and year, derived from the leave
                     store at evaluation time - never cached

COMMIT SEMANTICS:
  On transition to APPROVED the leave's TotalUnits are debited from the
  year's remaining balance. Rejection writes nothing: a rejected request
  simply stops counting as pending.

CONCURRENCY:
  The ledger mutates shared per-employee-year state; callers serialize
  writes per employee-year externally (row-level locking or equivalent).
  Reads observe whatever snapshot the store provides.

SEE ALSO:
  - carryover.go: Year-end transfer between balance rows
  - approval.go: Invokes Commit synchronously on approval
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AVAILABILITY - What a balance query returns
// =============================================================================

// Availability is the balance view for one employee, year, and category.
type Availability struct {
	EmployeeID        EmployeeID
	Year              int
	Category          BalanceCategory
	ApprovedRemaining decimal.Decimal
	PendingConsumed   decimal.Decimal
}

// =============================================================================
// BALANCE LEDGER
// =============================================================================

// BalanceLedger computes availability and commits approved consumption.
type BalanceLedger struct {
	Balances BalanceStore
	Leaves   LeaveStore
}

// Available returns the approved-remaining and pending-consumed amounts for
// the employee, year, and category. Fails with NoBalanceRecordError when the
// year has not been provisioned.
func (bl *BalanceLedger) Available(ctx context.Context, employeeID EmployeeID, year int, cat BalanceCategory) (Availability, error) {
	return bl.availableExcluding(ctx, employeeID, year, cat, "")
}

func (bl *BalanceLedger) availableExcluding(ctx context.Context, employeeID EmployeeID, year int, cat BalanceCategory, exclude LeaveID) (Availability, error) {
	balance, err := bl.Balances.GetBalance(ctx, employeeID, year)
	if err != nil {
		if IsNotFound(err) {
			return Availability{}, &NoBalanceRecordError{EmployeeID: employeeID, Year: year}
		}
		return Availability{}, fmt.Errorf("load balance: %w", err)
	}

	pending, err := bl.pendingConsumed(ctx, employeeID, year, cat, exclude)
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		EmployeeID:        employeeID,
		Year:              year,
		Category:          cat,
		ApprovedRemaining: balance.Remaining(cat),
		PendingConsumed:   pending,
	}, nil
}

// pendingConsumed sums TotalUnits over the employee's pending leaves of the
// category's type for the year, optionally skipping one leave (the one being
// edited, which would otherwise reserve against itself).
func (bl *BalanceLedger) pendingConsumed(ctx context.Context, employeeID EmployeeID, year int, cat BalanceCategory, exclude LeaveID) (decimal.Decimal, error) {
	leaveType := LeavePaid
	if cat == CategorySick {
		leaveType = LeaveSick
	}

	pendingLeaves, err := bl.Leaves.ListLeaves(ctx, LeaveFilter{
		EmployeeID: employeeID,
		Statuses:   []RequestStatus{StatusPending},
		Types:      []LeaveType{leaveType},
		Year:       year,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list pending leaves: %w", err)
	}

	pending := decimal.Zero
	for _, l := range pendingLeaves {
		if l.ID == exclude {
			continue
		}
		pending = pending.Add(l.TotalUnits)
	}
	return pending, nil
}

// CanAfford reports whether requested units fit within the remaining balance
// once pending consumption is reserved. exclude skips one pending leave from
// the reservation (pass the leave's own id when re-validating an edit, empty
// otherwise). The returned Availability carries the amounts for disclosure.
func (bl *BalanceLedger) CanAfford(ctx context.Context, employeeID EmployeeID, year int, cat BalanceCategory, requested decimal.Decimal, exclude LeaveID) (bool, Availability, error) {
	avail, err := bl.availableExcluding(ctx, employeeID, year, cat, exclude)
	if err != nil {
		return false, Availability{}, err
	}
	ok := requested.Add(avail.PendingConsumed).LessThanOrEqual(avail.ApprovedRemaining)
	return ok, avail, nil
}

// Commit debits the leave's TotalUnits from the year's remaining balance.
// Called synchronously when a leave transitions to APPROVED. Unpaid leaves
// have no category and commit nothing. The year is taken from the leave's
// start date.
func (bl *BalanceLedger) Commit(ctx context.Context, leave *Leave) error {
	cat, ok := leave.Type.Category()
	if !ok {
		return nil
	}

	year := leave.StartDate.Year()
	balance, err := bl.Balances.GetBalance(ctx, leave.EmployeeID, year)
	if err != nil {
		if IsNotFound(err) {
			return &NoBalanceRecordError{EmployeeID: leave.EmployeeID, Year: year}
		}
		return fmt.Errorf("load balance: %w", err)
	}

	balance.Debit(cat, leave.TotalUnits)

	if err := bl.Balances.UpsertBalance(ctx, balance); err != nil {
		return fmt.Errorf("persist balance: %w", err)
	}
	return nil
}
