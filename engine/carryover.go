/*
carryover.go - Year-end transfer of unused paid entitlement

PURPOSE:
  Transfers unused paid-leave days from one year's balance row into the
  next year's. Carry-over is additive bookkeeping: the source year's own
  remaining field is untouched; only the CarriedOut marker is written
  there, while the target year gains CarriedIn and the matching bump to
  its remaining amount so that

    remaining(next) = initial(next) + carriedIn(next) - approvedConsumed(next)

  keeps holding.

CLAMPING:
  The requested amount is clamped to [0, remaining(fromYear)]. The clamp
  is enforced here, server-side, not left to UI input limits.

SCOPE:
  Paid leave only. Sick leave has no carry-over in the observed policy.
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CarryoverEngine performs year-end balance transfers.
type CarryoverEngine struct {
	Balances  BalanceStore
	Directory EmployeeDirectory
}

// CarryOver transfers up to days of unused paid leave from fromYear into
// fromYear+1 for one employee. Both years' balance rows must already exist;
// a missing row fails with NoBalanceRecordError. Returns the amount actually
// applied after clamping.
//
// Re-running replaces the previous carry-over rather than stacking it: the
// target year's remaining is adjusted by the delta between the new and old
// carried-in amounts.
func (ce *CarryoverEngine) CarryOver(ctx context.Context, employeeID EmployeeID, fromYear int, days decimal.Decimal) (decimal.Decimal, error) {
	from, err := ce.Balances.GetBalance(ctx, employeeID, fromYear)
	if err != nil {
		if IsNotFound(err) {
			return decimal.Zero, &NoBalanceRecordError{EmployeeID: employeeID, Year: fromYear}
		}
		return decimal.Zero, fmt.Errorf("load %d balance: %w", fromYear, err)
	}

	to, err := ce.Balances.GetBalance(ctx, employeeID, fromYear+1)
	if err != nil {
		if IsNotFound(err) {
			return decimal.Zero, &NoBalanceRecordError{EmployeeID: employeeID, Year: fromYear + 1}
		}
		return decimal.Zero, fmt.Errorf("load %d balance: %w", fromYear+1, err)
	}

	// Clamp to [0, remaining of the source year].
	applied := days
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	if remaining := from.Remaining(CategoryPaid); applied.GreaterThan(remaining) {
		applied = remaining
	}

	delta := applied.Sub(to.CarriedIn)

	from.CarriedOut = applied
	to.CarriedIn = applied
	to.RemainingPaid = to.RemainingPaid.Add(delta)
	if to.RemainingPaid.IsNegative() {
		to.RemainingPaid = decimal.Zero
	}

	if err := ce.Balances.UpsertBalance(ctx, from); err != nil {
		return decimal.Zero, fmt.Errorf("persist %d balance: %w", fromYear, err)
	}
	if err := ce.Balances.UpsertBalance(ctx, to); err != nil {
		return decimal.Zero, fmt.Errorf("persist %d balance: %w", fromYear+1, err)
	}
	return applied, nil
}

// CarryoverResult records the outcome of one employee's year-end transfer.
type CarryoverResult struct {
	EmployeeID EmployeeID
	Applied    decimal.Decimal
	Err        error
}

// RunYearEnd carries the full clamped remaining forward for every employee
// that has balance rows for both fromYear and fromYear+1. Employees missing
// either row are reported in their result and do not stop the run.
func (ce *CarryoverEngine) RunYearEnd(ctx context.Context, fromYear int) ([]CarryoverResult, error) {
	balances, err := ce.Balances.ListBalances(ctx, "", fromYear)
	if err != nil {
		return nil, fmt.Errorf("list %d balances: %w", fromYear, err)
	}

	results := make([]CarryoverResult, 0, len(balances))
	for _, b := range balances {
		applied, err := ce.CarryOver(ctx, b.EmployeeID, fromYear, b.Remaining(CategoryPaid))
		results = append(results, CarryoverResult{EmployeeID: b.EmployeeID, Applied: applied, Err: err})
	}
	return results, nil
}
