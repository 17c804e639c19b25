/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the leave services and the engine.

ENDPOINTS:
  Holidays:
    GET    /api/holidays               List holidays (?from=&to= years)
    POST   /api/holidays               Create holiday
    DELETE /api/holidays/{id}          Delete holiday

  Employees:
    GET    /api/employees              List employees (?name= substring)
    POST   /api/employees              Create employee + current-year balance
    GET    /api/employees/{id}         Get employee with balance cache
    GET    /api/employees/{id}/balances Balance history

  Leaves:
    POST   /api/leaves                 Submit leave request
    GET    /api/leaves                 List (?employee_id=&status=&type=&year=)
    GET    /api/leaves/{id}            Get leave
    PUT    /api/leaves/{id}            Edit pending leave
    DELETE /api/leaves/{id}            Delete pending leave
    POST   /api/leaves/{id}/certificate Attach certificate reference
    POST   /api/leaves/{id}/approve    Approve (commits balance)
    POST   /api/leaves/{id}/reject     Reject
    POST   /api/leaves/batch/approve   Batch approve (per-item results)
    POST   /api/leaves/batch/reject    Batch reject

  Permissions:
    Mirror of leaves minus certificates, at /api/permissions.

  Admin:
    POST   /api/admin/carryover        Single or year-end carry-over
    GET    /api/admin/reports/balances Balance report xlsx (?year=)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Conflicts and illegal state transitions
  - 422: Insufficient balance, certificate gate
  - 500: Store failures

SECURITY NOTE:
  No authentication middleware. Approver identity comes from the request
  body (decided_by); wire real auth before exposing this publicly.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HolidayWriter is the write side of the holiday calendar. Both stores
// implement it alongside engine.HolidaySource.
type HolidayWriter interface {
	SaveHoliday(ctx context.Context, h engine.Holiday) error
	DeleteHoliday(ctx context.Context, id engine.HolidayID) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Requests    *leave.RequestService
	Permissions *leave.PermissionService
	Provision   *leave.ProvisionService
	Approvals   *engine.ApprovalStateMachine
	Carryover   *engine.CarryoverEngine
	Reporter    *report.BalanceReporter

	Holidays        engine.HolidaySource
	HolidayWriter   HolidayWriter
	Directory       engine.EmployeeDirectory
	LeaveStore      engine.LeaveStore
	PermissionStore engine.PermissionStore
	Balances        engine.BalanceStore

	Log *zap.Logger
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays in the requested year window, defaulting
// to the current year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := engine.Today().Year()
	from := queryInt(r, "from", year)
	to := queryInt(r, "to", from)

	holidays, err := h.Holidays.ListHolidays(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(holidays))
}

// CreateHoliday registers a holiday. Recurring holidays apply to the same
// month/day every year.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Holiday name is required", nil)
		return
	}
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	holiday := engine.Holiday{
		ID:        engine.HolidayID(uuid.NewString()),
		Name:      req.Name,
		Date:      date,
		Recurring: req.Recurring,
	}
	if err := h.HolidayWriter.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a holiday from the calendar.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := engine.HolidayID(chi.URLParam(r, "id"))
	if err := h.HolidayWriter.DeleteHoliday(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees, optionally filtered by name substring.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := engine.EmployeeFilter{Name: r.URL.Query().Get("name")}
	employees, err := h.Directory.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee and provisions the current year's
// balance with the configured initial grants.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Employee name is required", nil)
		return
	}
	hireDate, err := engine.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire date", err)
		return
	}

	e, err := h.Provision.CreateEmployee(r.Context(), leave.CreateEmployeeInput{
		Name:     req.Name,
		Email:    req.Email,
		HireDate: hireDate,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*e))
}

// GetEmployee returns a single employee with the current-year balance cache.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	e, err := h.Directory.GetEmployee(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

// ListEmployeeBalances returns the employee's full balance history.
func (h *Handler) ListEmployeeBalances(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	balances, err := h.Balances.ListBalances(r.Context(), id, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list balances", err)
		return
	}

	dtos := make([]BalanceDTO, len(balances))
	for i, b := range balances {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave creates a pending leave request. The response discloses any
// named holidays the range skipped.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeLeaveInput(w, r)
	if !ok {
		return
	}

	result, err := h.Requests.Submit(r.Context(), in)
	if err != nil {
		writeEngineError(w, "Failed to submit leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitLeaveResponse{
		Leave:            toLeaveDTO(result.Leave),
		ExcludedHolidays: toHolidayDTOs(result.ExcludedHolidays),
	})
}

// ListLeaves returns leaves matching the query filters.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := engine.LeaveFilter{
		EmployeeID: engine.EmployeeID(q.Get("employee_id")),
		Year:       queryInt(r, "year", 0),
	}
	if s := q.Get("status"); s != "" {
		filter.Statuses = []engine.RequestStatus{engine.RequestStatus(s)}
	}
	if t := q.Get("type"); t != "" {
		filter.Types = []engine.LeaveType{engine.LeaveType(t)}
	}

	leaves, err := h.LeaveStore.ListLeaves(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leaves", err)
		return
	}

	dtos := make([]LeaveDTO, len(leaves))
	for i := range leaves {
		dtos[i] = toLeaveDTO(&leaves[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeave returns a single leave.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id := engine.LeaveID(chi.URLParam(r, "id"))
	l, err := h.LeaveStore.GetLeave(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(l))
}

// EditLeave recomputes a pending leave for a new range or type.
func (h *Handler) EditLeave(w http.ResponseWriter, r *http.Request) {
	id := engine.LeaveID(chi.URLParam(r, "id"))
	in, ok := h.decodeLeaveInput(w, r)
	if !ok {
		return
	}

	result, err := h.Requests.Edit(r.Context(), id, in)
	if err != nil {
		writeEngineError(w, "Failed to edit leave", err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitLeaveResponse{
		Leave:            toLeaveDTO(result.Leave),
		ExcludedHolidays: toHolidayDTOs(result.ExcludedHolidays),
	})
}

// DeleteLeave removes a pending leave.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	id := engine.LeaveID(chi.URLParam(r, "id"))
	if err := h.Requests.Delete(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachCertificate stores a medical certificate reference on a sick leave.
func (h *Handler) AttachCertificate(w http.ResponseWriter, r *http.Request) {
	id := engine.LeaveID(chi.URLParam(r, "id"))
	var req AttachCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Ref == "" {
		writeError(w, http.StatusBadRequest, "Certificate reference is required", nil)
		return
	}

	l, err := h.Requests.AttachCertificate(r.Context(), id, req.Ref)
	if err != nil {
		writeEngineError(w, "Failed to attach certificate", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(l))
}

// ApproveLeave approves a pending leave and commits its consumption.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	id := engine.LeaveID(chi.URLParam(r, "id"))
	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	l, err := h.Approvals.ApproveLeave(r.Context(), id, req.DecidedBy)
	if err != nil {
		writeEngineError(w, "Failed to approve leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(l))
}

// RejectLeave rejects a pending leave. No balance is touched.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	id := engine.LeaveID(chi.URLParam(r, "id"))
	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	l, err := h.Approvals.RejectLeave(r.Context(), id, req.DecidedBy, req.Reason)
	if err != nil {
		writeEngineError(w, "Failed to reject leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(l))
}

// BatchApproveLeaves approves each id independently and reports per-item
// outcomes. Successes stand even when other items fail.
func (h *Handler) BatchApproveLeaves(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	ids := make([]engine.LeaveID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = engine.LeaveID(id)
	}
	results := h.Approvals.BatchApproveLeaves(r.Context(), ids, req.DecidedBy)
	writeJSON(w, http.StatusOK, toBatchResultDTOs(results))
}

// BatchRejectLeaves rejects each id independently.
func (h *Handler) BatchRejectLeaves(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	ids := make([]engine.LeaveID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = engine.LeaveID(id)
	}
	results := h.Approvals.BatchRejectLeaves(r.Context(), ids, req.DecidedBy, req.Reason)
	writeJSON(w, http.StatusOK, toBatchResultDTOs(results))
}

// =============================================================================
// PERMISSION HANDLERS
// =============================================================================

// SubmitPermission creates a pending permission. An unbalanced make-up
// declaration is a warning in the response, never a rejection.
func (h *Handler) SubmitPermission(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePermissionInput(w, r)
	if !ok {
		return
	}

	result, err := h.Permissions.Submit(r.Context(), in)
	if err != nil {
		writeEngineError(w, "Failed to submit permission", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPermissionResponse(result))
}

// ListPermissions returns permissions matching the query filters.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := engine.PermissionFilter{
		EmployeeID: engine.EmployeeID(q.Get("employee_id")),
		Year:       queryInt(r, "year", 0),
	}
	if s := q.Get("status"); s != "" {
		filter.Statuses = []engine.RequestStatus{engine.RequestStatus(s)}
	}

	permissions, err := h.PermissionStore.ListPermissions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list permissions", err)
		return
	}

	dtos := make([]PermissionDTO, len(permissions))
	for i := range permissions {
		dtos[i] = toPermissionDTO(&permissions[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPermission returns a single permission.
func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id := engine.PermissionID(chi.URLParam(r, "id"))
	p, err := h.PermissionStore.GetPermission(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get permission", err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionDTO(p))
}

// EditPermission replaces a pending permission's window and slots.
func (h *Handler) EditPermission(w http.ResponseWriter, r *http.Request) {
	id := engine.PermissionID(chi.URLParam(r, "id"))
	in, ok := h.decodePermissionInput(w, r)
	if !ok {
		return
	}

	result, err := h.Permissions.Edit(r.Context(), id, in)
	if err != nil {
		writeEngineError(w, "Failed to edit permission", err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionResponse(result))
}

// DeletePermission removes a pending permission.
func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id := engine.PermissionID(chi.URLParam(r, "id"))
	if err := h.Permissions.Delete(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to delete permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApprovePermission approves a pending permission. No ledger involvement.
func (h *Handler) ApprovePermission(w http.ResponseWriter, r *http.Request) {
	id := engine.PermissionID(chi.URLParam(r, "id"))
	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	p, err := h.Approvals.ApprovePermission(r.Context(), id, req.DecidedBy)
	if err != nil {
		writeEngineError(w, "Failed to approve permission", err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionDTO(p))
}

// RejectPermission rejects a pending permission.
func (h *Handler) RejectPermission(w http.ResponseWriter, r *http.Request) {
	id := engine.PermissionID(chi.URLParam(r, "id"))
	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	p, err := h.Approvals.RejectPermission(r.Context(), id, req.DecidedBy, req.Reason)
	if err != nil {
		writeEngineError(w, "Failed to reject permission", err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionDTO(p))
}

// BatchApprovePermissions approves each id independently.
func (h *Handler) BatchApprovePermissions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	ids := make([]engine.PermissionID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = engine.PermissionID(id)
	}
	results := h.Approvals.BatchApprovePermissions(r.Context(), ids, req.DecidedBy)
	writeJSON(w, http.StatusOK, toBatchResultDTOs(results))
}

// BatchRejectPermissions rejects each id independently.
func (h *Handler) BatchRejectPermissions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	ids := make([]engine.PermissionID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = engine.PermissionID(id)
	}
	results := h.Approvals.BatchRejectPermissions(r.Context(), ids, req.DecidedBy, req.Reason)
	writeJSON(w, http.StatusOK, toBatchResultDTOs(results))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunCarryover carries remaining paid days into the next year. With an
// employee id it carries the requested amount (clamped to the remainder);
// without one it sweeps every balance row of the source year. Target-year
// rows are provisioned with the initial grants first, so a fresh year
// never fails on missing balance records.
func (h *Handler) RunCarryover(w http.ResponseWriter, r *http.Request) {
	var req CarryoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.FromYear == 0 {
		writeError(w, http.StatusBadRequest, "from_year is required", nil)
		return
	}

	if req.EmployeeID != "" {
		employeeID := engine.EmployeeID(req.EmployeeID)
		var days decimal.Decimal
		if req.Days != "" {
			var err error
			days, err = decimal.NewFromString(req.Days)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid days amount", err)
				return
			}
		} else {
			// No amount given: carry the full clamped remainder.
			b, err := h.Balances.GetBalance(r.Context(), employeeID, req.FromYear)
			if err != nil {
				writeEngineError(w, "Failed to load balance", err)
				return
			}
			days = b.Remaining(engine.CategoryPaid)
		}
		if _, err := h.Provision.ProvisionYear(r.Context(), employeeID, req.FromYear+1); err != nil {
			writeEngineError(w, "Failed to provision target year", err)
			return
		}
		applied, err := h.Carryover.CarryOver(r.Context(), employeeID, req.FromYear, days)
		if err != nil {
			writeEngineError(w, "Failed to carry over", err)
			return
		}
		writeJSON(w, http.StatusOK, []CarryoverResultDTO{{
			EmployeeID: req.EmployeeID,
			Applied:    applied.String(),
		}})
		return
	}

	if err := h.Provision.ProvisionAll(r.Context(), req.FromYear+1); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to provision target year", err)
		return
	}
	results, err := h.Carryover.RunYearEnd(r.Context(), req.FromYear)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Year-end carry-over failed", err)
		return
	}

	dtos := make([]CarryoverResultDTO, len(results))
	for i, res := range results {
		dtos[i] = CarryoverResultDTO{
			EmployeeID: string(res.EmployeeID),
			Applied:    res.Applied.String(),
		}
		if res.Err != nil {
			dtos[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportBalanceReport streams the year's balance report as an xlsx file.
func (h *Handler) ExportBalanceReport(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", engine.Today().Year())

	workbook, err := h.Reporter.BuildWorkbook(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="balances-%d.xlsx"`, year))
	if err := workbook.Write(w); err != nil {
		h.log().Error("writing report response", zap.Error(err))
	}
}

// =============================================================================
// REQUEST DECODING
// =============================================================================

func (h *Handler) decodeLeaveInput(w http.ResponseWriter, r *http.Request) (leave.SubmitLeaveInput, bool) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return leave.SubmitLeaveInput{}, false
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return leave.SubmitLeaveInput{}, false
	}

	leaveType := engine.LeaveType(req.Type)
	switch leaveType {
	case engine.LeavePaid, engine.LeaveSick, engine.LeaveUnpaid:
	default:
		writeError(w, http.StatusBadRequest, "Unknown leave type", nil)
		return leave.SubmitLeaveInput{}, false
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return leave.SubmitLeaveInput{}, false
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return leave.SubmitLeaveInput{}, false
	}

	units := make([]engine.HalfDayOption, len(req.Units))
	for i, u := range req.Units {
		d, err := engine.ParseDate(u.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unit date", err)
			return leave.SubmitLeaveInput{}, false
		}
		unit := engine.HalfDayUnit(u.Unit)
		switch unit {
		case engine.UnitFull, engine.UnitAM, engine.UnitPM, engine.UnitNone:
		default:
			writeError(w, http.StatusBadRequest, "Unknown half-day unit", nil)
			return leave.SubmitLeaveInput{}, false
		}
		units[i] = engine.HalfDayOption{Date: d, Unit: unit}
	}

	return leave.SubmitLeaveInput{
		EmployeeID: engine.EmployeeID(req.EmployeeID),
		Type:       leaveType,
		StartDate:  start,
		EndDate:    end,
		Units:      units,
		Reason:     req.Reason,
	}, true
}

func (h *Handler) decodePermissionInput(w http.ResponseWriter, r *http.Request) (leave.SubmitPermissionInput, bool) {
	var req SubmitPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return leave.SubmitPermissionInput{}, false
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return leave.SubmitPermissionInput{}, false
	}

	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return leave.SubmitPermissionInput{}, false
	}
	start, err := engine.ParseClock(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start time", err)
		return leave.SubmitPermissionInput{}, false
	}
	end, err := engine.ParseClock(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end time", err)
		return leave.SubmitPermissionInput{}, false
	}

	slots := make([]leave.SlotInput, len(req.Slots))
	for i, s := range req.Slots {
		d, err := engine.ParseDate(s.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid slot date", err)
			return leave.SubmitPermissionInput{}, false
		}
		ss, err := engine.ParseClock(s.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid slot start time", err)
			return leave.SubmitPermissionInput{}, false
		}
		se, err := engine.ParseClock(s.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid slot end time", err)
			return leave.SubmitPermissionInput{}, false
		}
		slots[i] = leave.SlotInput{Date: d, Start: ss, End: se}
	}

	return leave.SubmitPermissionInput{
		EmployeeID: engine.EmployeeID(req.EmployeeID),
		Date:       date,
		Start:      start,
		End:        end,
		Reason:     req.Reason,
		Slots:      slots,
	}, true
}

func decodeDecision(w http.ResponseWriter, r *http.Request) (DecisionRequest, bool) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return DecisionRequest{}, false
	}
	if req.DecidedBy == "" {
		writeError(w, http.StatusBadRequest, "decided_by is required", nil)
		return DecisionRequest{}, false
	}
	return req, true
}

func decodeBatch(w http.ResponseWriter, r *http.Request) (BatchDecisionRequest, bool) {
	var req BatchDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return BatchDecisionRequest{}, false
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required", nil)
		return BatchDecisionRequest{}, false
	}
	if req.DecidedBy == "" {
		writeError(w, http.StatusBadRequest, "decided_by is required", nil)
		return BatchDecisionRequest{}, false
	}
	return req, true
}

func toPermissionResponse(result *leave.PermissionResult) PermissionResponse {
	resp := PermissionResponse{
		Permission: toPermissionDTO(result.Permission),
		Balanced:   result.Balanced,
	}
	if !result.Balanced {
		resp.Warning = fmt.Sprintf("replacement time (%d min) does not match absence duration (%d min)",
			engine.TotalReplacementMinutes(result.Permission.ReplacementSlots),
			result.Permission.DurationMinutes)
	}
	return resp
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case engine.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConflict), errors.Is(err, engine.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInsufficientBalance), errors.Is(err, engine.ErrCertificateRequired):
		return http.StatusUnprocessableEntity
	case engine.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
