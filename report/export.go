/*
Package report exports balance data to spreadsheet form.

PURPOSE:
  Produces the year-end balance report administrators hand to payroll:
  one row per employee with initial grants, carry-over, consumption, and
  remaining amounts for the requested year.
*/
package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// BALANCE REPORT
// =============================================================================

var balanceHeaders = []string{
	"Employee", "Email", "Year",
	"Initial Paid", "Carried In", "Remaining Paid",
	"Initial Sick", "Remaining Sick", "Carried Out",
}

type BalanceReporter struct {
	Directory engine.EmployeeDirectory
	Balances  engine.BalanceStore
}

// BuildWorkbook renders every balance row for the year into an xlsx
// workbook. Employees without a provisioned row for the year are omitted.
func (r *BalanceReporter) BuildWorkbook(ctx context.Context, year int) (*excelize.File, error) {
	balances, err := r.Balances.ListBalances(ctx, "", year)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	f := excelize.NewFile()
	sheet := fmt.Sprintf("Balances %d", year)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range balanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, b := range balances {
		name, email := "", ""
		if e, err := r.Directory.GetEmployee(ctx, b.EmployeeID); err == nil {
			name, email = e.Name, e.Email
		} else {
			name = string(b.EmployeeID)
		}

		values := []interface{}{
			name, email, b.Year,
			b.InitialPaid.String(), b.CarriedIn.String(), b.RemainingPaid.String(),
			b.InitialSick.String(), b.RemainingSick.String(), b.CarriedOut.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}
	return f, nil
}
