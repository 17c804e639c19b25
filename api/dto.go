/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract. Dates are
  YYYY-MM-DD strings, clock times are HH:MM strings, and decimal amounts
  travel as strings to keep half-day precision exact.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Parsing and validation happen in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h engine.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        string(h.ID),
		Name:      h.Name,
		Date:      h.Date.String(),
		Recurring: h.Recurring,
	}
}

func toHolidayDTOs(hs []engine.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		dtos[i] = toHolidayDTO(h)
	}
	return dtos
}

// =============================================================================
// EMPLOYEES AND BALANCES
// =============================================================================

type EmployeeDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	HireDate         string `json:"hire_date"`
	PaidLeaveBalance string `json:"paid_leave_balance"`
	SickLeaveBalance string `json:"sick_leave_balance"`
	CreatedAt        string `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	HireDate string `json:"hire_date"`
}

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               string(e.ID),
		Name:             e.Name,
		Email:            e.Email,
		HireDate:         e.HireDate.String(),
		PaidLeaveBalance: e.PaidLeaveBalance.String(),
		SickLeaveBalance: e.SickLeaveBalance.String(),
		CreatedAt:        formatTimestamp(e.CreatedAt),
	}
}

type BalanceDTO struct {
	EmployeeID    string `json:"employee_id"`
	Year          int    `json:"year"`
	InitialPaid   string `json:"initial_paid"`
	InitialSick   string `json:"initial_sick"`
	RemainingPaid string `json:"remaining_paid"`
	RemainingSick string `json:"remaining_sick"`
	CarriedIn     string `json:"carried_in"`
	CarriedOut    string `json:"carried_out"`
}

func toBalanceDTO(b engine.LeaveBalance) BalanceDTO {
	return BalanceDTO{
		EmployeeID:    string(b.EmployeeID),
		Year:          b.Year,
		InitialPaid:   b.InitialPaid.String(),
		InitialSick:   b.InitialSick.String(),
		RemainingPaid: b.RemainingPaid.String(),
		RemainingSick: b.RemainingSick.String(),
		CarriedIn:     b.CarriedIn.String(),
		CarriedOut:    b.CarriedOut.String(),
	}
}

// =============================================================================
// LEAVES
// =============================================================================

type HalfDayOptionDTO struct {
	Date string `json:"date"`
	Unit string `json:"unit"`
}

type LeaveDTO struct {
	ID              string             `json:"id"`
	EmployeeID      string             `json:"employee_id"`
	Type            string             `json:"type"`
	StartDate       string             `json:"start_date"`
	EndDate         string             `json:"end_date"`
	HalfDayOptions  []HalfDayOptionDTO `json:"half_day_options"`
	Status          string             `json:"status"`
	Reason          string             `json:"reason,omitempty"`
	CertificateRef  string             `json:"certificate_ref,omitempty"`
	TotalUnits      string             `json:"total_units"`
	DecidedBy       string             `json:"decided_by,omitempty"`
	DecidedAt       string             `json:"decided_at,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CreatedAt       string             `json:"created_at,omitempty"`
	UpdatedAt       string             `json:"updated_at,omitempty"`
}

// SubmitLeaveRequest creates or edits a leave. Units may pre-select
// half-day choices by date; unlisted days default to "full".
type SubmitLeaveRequest struct {
	EmployeeID string             `json:"employee_id"`
	Type       string             `json:"type"`
	StartDate  string             `json:"start_date"`
	EndDate    string             `json:"end_date"`
	Units      []HalfDayOptionDTO `json:"units,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// SubmitLeaveResponse includes the holiday disclosure: named holidays in
// the range that were not charged.
type SubmitLeaveResponse struct {
	Leave            LeaveDTO     `json:"leave"`
	ExcludedHolidays []HolidayDTO `json:"excluded_holidays"`
}

type AttachCertificateRequest struct {
	Ref string `json:"ref"`
}

func toLeaveDTO(l *engine.Leave) LeaveDTO {
	options := make([]HalfDayOptionDTO, len(l.HalfDayOptions))
	for i, o := range l.HalfDayOptions {
		options[i] = HalfDayOptionDTO{Date: o.Date.String(), Unit: string(o.Unit)}
	}
	return LeaveDTO{
		ID:              string(l.ID),
		EmployeeID:      string(l.EmployeeID),
		Type:            string(l.Type),
		StartDate:       l.StartDate.String(),
		EndDate:         l.EndDate.String(),
		HalfDayOptions:  options,
		Status:          string(l.Status),
		Reason:          l.Reason,
		CertificateRef:  l.CertificateRef,
		TotalUnits:      l.TotalUnits.String(),
		DecidedBy:       l.DecidedBy,
		DecidedAt:       formatTimestampPtr(l.DecidedAt),
		RejectionReason: l.RejectionReason,
		CreatedAt:       formatTimestamp(l.CreatedAt),
		UpdatedAt:       formatTimestamp(l.UpdatedAt),
	}
}

// =============================================================================
// PERMISSIONS
// =============================================================================

type SlotDTO struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type SlotRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type PermissionDTO struct {
	ID               string    `json:"id"`
	EmployeeID       string    `json:"employee_id"`
	Date             string    `json:"date"`
	Start            string    `json:"start"`
	End              string    `json:"end"`
	DurationMinutes  int       `json:"duration_minutes"`
	Reason           string    `json:"reason,omitempty"`
	Status           string    `json:"status"`
	ReplacementSlots []SlotDTO `json:"replacement_slots"`
	DecidedBy        string    `json:"decided_by,omitempty"`
	DecidedAt        string    `json:"decided_at,omitempty"`
	RejectionReason  string    `json:"rejection_reason,omitempty"`
	CreatedAt        string    `json:"created_at,omitempty"`
	UpdatedAt        string    `json:"updated_at,omitempty"`
}

type SubmitPermissionRequest struct {
	EmployeeID string        `json:"employee_id"`
	Date       string        `json:"date"`
	Start      string        `json:"start"`
	End        string        `json:"end"`
	Reason     string        `json:"reason,omitempty"`
	Slots      []SlotRequest `json:"slots,omitempty"`
}

// PermissionResponse carries the imbalance warning alongside the saved
// permission. Balanced=false never blocks the save.
type PermissionResponse struct {
	Permission PermissionDTO `json:"permission"`
	Balanced   bool          `json:"balanced"`
	Warning    string        `json:"warning,omitempty"`
}

func toPermissionDTO(p *engine.Permission) PermissionDTO {
	slots := make([]SlotDTO, len(p.ReplacementSlots))
	for i, s := range p.ReplacementSlots {
		slots[i] = SlotDTO{
			ID:              string(s.ID),
			Date:            s.Date.String(),
			Start:           s.Start.String(),
			End:             s.End.String(),
			DurationMinutes: s.DurationMinutes,
		}
	}
	return PermissionDTO{
		ID:               string(p.ID),
		EmployeeID:       string(p.EmployeeID),
		Date:             p.Date.String(),
		Start:            p.Start.String(),
		End:              p.End.String(),
		DurationMinutes:  p.DurationMinutes,
		Reason:           p.Reason,
		Status:           string(p.Status),
		ReplacementSlots: slots,
		DecidedBy:        p.DecidedBy,
		DecidedAt:        formatTimestampPtr(p.DecidedAt),
		RejectionReason:  p.RejectionReason,
		CreatedAt:        formatTimestamp(p.CreatedAt),
		UpdatedAt:        formatTimestamp(p.UpdatedAt),
	}
}

// =============================================================================
// DECISIONS
// =============================================================================

type DecisionRequest struct {
	DecidedBy string `json:"decided_by"`
	Reason    string `json:"reason,omitempty"` // rejection reason
}

type BatchDecisionRequest struct {
	IDs       []string `json:"ids"`
	DecidedBy string   `json:"decided_by"`
	Reason    string   `json:"reason,omitempty"`
}

// BatchResultDTO is one id's outcome. Batches are not atomic; each item
// reports independently.
type BatchResultDTO struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func toBatchResultDTOs(results []engine.BatchResult) []BatchResultDTO {
	dtos := make([]BatchResultDTO, len(results))
	for i, r := range results {
		dtos[i] = BatchResultDTO{ID: r.ID, OK: r.Err == nil}
		if r.Err != nil {
			dtos[i].Error = r.Err.Error()
		}
	}
	return dtos
}

// =============================================================================
// ADMIN
// =============================================================================

// CarryoverRequest triggers a carry-over. With EmployeeID set, carries the
// given Days (or the full remainder when empty) for that employee; without
// it, runs the year-end sweep for everyone.
type CarryoverRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	FromYear   int    `json:"from_year"`
	Days       string `json:"days,omitempty"`
}

type CarryoverResultDTO struct {
	EmployeeID string `json:"employee_id"`
	Applied    string `json:"applied"`
	Error      string `json:"error,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTimestampPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTimestamp(*t)
}
