/*
provision.go - Employee onboarding and balance provisioning

PURPOSE:
  Creates employees together with their first balance row, and opens new
  year rows with the policy's initial grants. Provisioning is where the
  configured entitlement policy (initial paid/sick days) enters the system;
  everything downstream just reads balance rows.
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// PROVISION SERVICE
// =============================================================================

type ProvisionService struct {
	Directory engine.EmployeeDirectory
	Balances  engine.BalanceStore

	// Initial grants for a freshly provisioned year.
	InitialPaid decimal.Decimal
	InitialSick decimal.Decimal
}

type CreateEmployeeInput struct {
	Name     string
	Email    string
	HireDate engine.Date
}

// CreateEmployee registers an employee and provisions the current year's
// balance row with the initial grants.
func (s *ProvisionService) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*engine.Employee, error) {
	e := engine.Employee{
		ID:        engine.EmployeeID(uuid.NewString()),
		Name:      in.Name,
		Email:     in.Email,
		HireDate:  in.HireDate,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Directory.SaveEmployee(ctx, e); err != nil {
		return nil, fmt.Errorf("save employee: %w", err)
	}
	if _, err := s.ProvisionYear(ctx, e.ID, engine.Today().Year()); err != nil {
		return nil, err
	}
	e.PaidLeaveBalance = s.InitialPaid
	e.SickLeaveBalance = s.InitialSick
	return &e, nil
}

// ProvisionYear opens a balance row for the employee-year with the initial
// grants. Idempotent: an existing row is returned untouched.
func (s *ProvisionService) ProvisionYear(ctx context.Context, employeeID engine.EmployeeID, year int) (*engine.LeaveBalance, error) {
	existing, err := s.Balances.GetBalance(ctx, employeeID, year)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, engine.ErrNotFound) {
		return nil, err
	}

	b := &engine.LeaveBalance{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		Year:          year,
		InitialPaid:   s.InitialPaid,
		InitialSick:   s.InitialSick,
		RemainingPaid: s.InitialPaid,
		RemainingSick: s.InitialSick,
	}
	if err := s.Balances.UpsertBalance(ctx, b); err != nil {
		return nil, fmt.Errorf("provision balance: %w", err)
	}
	return b, nil
}

// ProvisionAll opens the given year for every registered employee. Used by
// the year-end flow before carry-over runs.
func (s *ProvisionService) ProvisionAll(ctx context.Context, year int) error {
	employees, err := s.Directory.ListEmployees(ctx, engine.EmployeeFilter{})
	if err != nil {
		return fmt.Errorf("list employees: %w", err)
	}
	for _, e := range employees {
		if _, err := s.ProvisionYear(ctx, e.ID, year); err != nil {
			return err
		}
	}
	return nil
}
