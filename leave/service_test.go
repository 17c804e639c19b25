package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	mem       *store.Memory
	requests  *leave.RequestService
	approvals *engine.ApprovalStateMachine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	ledger := &engine.BalanceLedger{Balances: mem, Leaves: mem}
	return &fixture{
		mem: mem,
		requests: &leave.RequestService{
			Holidays: mem,
			Leaves:   mem,
			Ledger:   ledger,
			Certs:    mem,
		},
		approvals: &engine.ApprovalStateMachine{
			Leaves:      mem,
			Permissions: mem,
			Ledger:      ledger,
		},
	}
}

func (f *fixture) seedBalance(t *testing.T, emp string, year int, paid, sick int64) {
	t.Helper()
	err := f.mem.UpsertBalance(context.Background(), &engine.LeaveBalance{
		ID:            emp + "-bal",
		EmployeeID:    engine.EmployeeID(emp),
		Year:          year,
		InitialPaid:   decimal.NewFromInt(paid),
		InitialSick:   decimal.NewFromInt(sick),
		RemainingPaid: decimal.NewFromInt(paid),
		RemainingSick: decimal.NewFromInt(sick),
	})
	require.NoError(t, err)
}

func (f *fixture) seedHoliday(t *testing.T, name string, d engine.Date) {
	t.Helper()
	err := f.mem.SaveHoliday(context.Background(), engine.Holiday{
		ID:   engine.HolidayID(name),
		Name: name,
		Date: d,
	})
	require.NoError(t, err)
}

func paidRequest(emp string, start, end engine.Date) leave.SubmitLeaveInput {
	return leave.SubmitLeaveInput{
		EmployeeID: engine.EmployeeID(emp),
		Type:       engine.LeavePaid,
		StartDate:  start,
		EndDate:    end,
		Reason:     "vacation",
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmit_WeekSpanningRangeWithHoliday(t *testing.T) {
	// GIVEN: 20 paid days and a Mon-Sun request with a Wednesday holiday
	// WHEN: Submitting
	// THEN: 4 units charged, the holiday disclosed by name, status PENDING

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)
	f.seedHoliday(t, "Spring Festival", engine.NewDate(2025, time.March, 12))

	result, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 16)))
	require.NoError(t, err)

	assert.Equal(t, engine.StatusPending, result.Leave.Status)
	assert.True(t, result.Leave.TotalUnits.Equal(decimal.NewFromInt(4)))
	assert.NotEmpty(t, result.Leave.ID)
	require.Len(t, result.ExcludedHolidays, 1)
	assert.Equal(t, "Spring Festival", result.ExcludedHolidays[0].Name)
}

func TestSubmit_HalfDaySelections(t *testing.T) {
	// GIVEN: A Mon-Wed request with AM on Monday
	// WHEN: Submitting
	// THEN: 2.5 units charged

	f := newFixture(t)
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	in := paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12))
	in.Units = []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitAM},
	}

	result, err := f.requests.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Leave.TotalUnits.Equal(decimal.New(25, -1)))
}

func TestSubmit_ConflictWithActiveLeave(t *testing.T) {
	// GIVEN: An approved leave on March 10-12
	// WHEN: Submitting an overlapping request
	// THEN: ConflictError naming the existing leave; nothing persisted

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	first, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)
	_, err = f.approvals.ApproveLeave(ctx, first.Leave.ID, "manager-1")
	require.NoError(t, err)

	_, err = f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 12), engine.NewDate(2025, time.March, 14)))
	assert.ErrorIs(t, err, engine.ErrConflict)

	var conflict *engine.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.Leave.ID, conflict.Existing.ID)

	leaves, _ := f.mem.ListLeaves(ctx, engine.LeaveFilter{EmployeeID: "emp-1"})
	assert.Len(t, leaves, 1, "failed submission persists nothing")
}

func TestSubmit_RejectedLeaveDoesNotBlock(t *testing.T) {
	// GIVEN: A rejected leave on the requested days
	// WHEN: Submitting again for the same range
	// THEN: Accepted

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	first, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)
	_, err = f.approvals.RejectLeave(ctx, first.Leave.ID, "manager-1", "busy period")
	require.NoError(t, err)

	_, err = f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	assert.NoError(t, err)
}

func TestSubmit_PendingReservesBalance(t *testing.T) {
	// GIVEN: 5 paid days and a pending 3-day request
	// WHEN: Submitting another 3-day request
	// THEN: InsufficientBalanceError disclosing remaining and pending

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 5, 0)

	_, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)

	_, err = f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 24), engine.NewDate(2025, time.March, 26)))
	assert.ErrorIs(t, err, engine.ErrInsufficientBalance)

	var short *engine.InsufficientBalanceError
	require.ErrorAs(t, err, &short)
	assert.True(t, short.Remaining.Equal(decimal.NewFromInt(5)))
	assert.True(t, short.Pending.Equal(decimal.NewFromInt(3)))
	assert.True(t, short.Requested.Equal(decimal.NewFromInt(3)))
}

func TestSubmit_UnpaidNeedsNoBalance(t *testing.T) {
	// GIVEN: An employee with no balance row at all
	// WHEN: Submitting unpaid leave
	// THEN: Accepted; unpaid consumes nothing

	f := newFixture(t)
	in := paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12))
	in.Type = engine.LeaveUnpaid

	result, err := f.requests.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.Leave.TotalUnits.Equal(decimal.NewFromInt(3)))
}

func TestSubmit_InvalidRange(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	_, err := f.requests.Submit(context.Background(), paidRequest("emp-1",
		engine.NewDate(2025, time.March, 14), engine.NewDate(2025, time.March, 10)))
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestSubmit_SickStartingOnHoliday(t *testing.T) {
	f := newFixture(t)
	f.seedBalance(t, "emp-1", 2025, 20, 10)
	f.seedHoliday(t, "Spring Festival", engine.NewDate(2025, time.March, 12))

	in := paidRequest("emp-1", engine.NewDate(2025, time.March, 12), engine.NewDate(2025, time.March, 14))
	in.Type = engine.LeaveSick

	_, err := f.requests.Submit(context.Background(), in)
	assert.ErrorIs(t, err, engine.ErrHolidayBoundary)
}

// =============================================================================
// EDITING
// =============================================================================

func TestEdit_PreservesHalfDayChoices(t *testing.T) {
	// GIVEN: A pending Mon-Wed leave with AM on Monday
	// WHEN: Extending to Thursday
	// THEN: Monday keeps AM, Thursday defaults to FULL, total 3.5

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	in := paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12))
	in.Units = []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitAM},
	}
	submitted, err := f.requests.Submit(ctx, in)
	require.NoError(t, err)

	edit := paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 13))
	result, err := f.requests.Edit(ctx, submitted.Leave.ID, edit)
	require.NoError(t, err)

	assert.True(t, result.Leave.TotalUnits.Equal(decimal.New(35, -1)))
	assert.Equal(t, engine.UnitAM, result.Leave.HalfDayOptions[0].Unit)
}

func TestEdit_SwitchToSickForcesFull(t *testing.T) {
	// GIVEN: A pending paid leave with a PM half-day
	// WHEN: Editing the type to sick
	// THEN: Every unit snaps back to FULL

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	in := paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12))
	in.Units = []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 11), Unit: engine.UnitPM},
	}
	submitted, err := f.requests.Submit(ctx, in)
	require.NoError(t, err)

	edit := in
	edit.Type = engine.LeaveSick
	edit.Units = nil
	result, err := f.requests.Edit(ctx, submitted.Leave.ID, edit)
	require.NoError(t, err)

	assert.True(t, result.Leave.TotalUnits.Equal(decimal.NewFromInt(3)))
	for _, o := range result.Leave.HalfDayOptions {
		assert.Equal(t, engine.UnitFull, o.Unit)
	}
}

func TestEdit_DoesNotSelfConflictOrSelfReserve(t *testing.T) {
	// GIVEN: A pending 3-day leave consuming 3 of 4 days
	// WHEN: Shifting it by one day and growing it to 4 days
	// THEN: Accepted; the leave neither collides with itself nor reserves
	//       pending balance against itself

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 4, 0)

	submitted, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)

	edit := paidRequest("emp-1", engine.NewDate(2025, time.March, 11), engine.NewDate(2025, time.March, 14))
	result, err := f.requests.Edit(ctx, submitted.Leave.ID, edit)
	require.NoError(t, err)
	assert.True(t, result.Leave.TotalUnits.Equal(decimal.NewFromInt(4)))
}

func TestEdit_DecidedLeaveRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	submitted, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)
	_, err = f.approvals.ApproveLeave(ctx, submitted.Leave.ID, "manager-1")
	require.NoError(t, err)

	_, err = f.requests.Edit(ctx, submitted.Leave.ID,
		paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 13)))
	assert.ErrorIs(t, err, engine.ErrInvalidStateTransition)
}

// =============================================================================
// DELETION
// =============================================================================

func TestDelete_PendingOnly(t *testing.T) {
	// GIVEN: One pending and one approved leave
	// WHEN: Deleting each
	// THEN: The pending one goes, the approved one stays

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	pending, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)
	approved, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.April, 1), engine.NewDate(2025, time.April, 2)))
	require.NoError(t, err)
	_, err = f.approvals.ApproveLeave(ctx, approved.Leave.ID, "manager-1")
	require.NoError(t, err)

	assert.NoError(t, f.requests.Delete(ctx, pending.Leave.ID))

	err = f.requests.Delete(ctx, approved.Leave.ID)
	assert.ErrorIs(t, err, engine.ErrInvalidStateTransition)

	_, err = f.mem.GetLeave(ctx, pending.Leave.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDelete_FreesPendingReservation(t *testing.T) {
	// GIVEN: A pending 3-day leave on a 5-day balance
	// WHEN: Deleting it and submitting a 5-day request
	// THEN: The new request is affordable again

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 5, 0)

	pending, err := f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 12)))
	require.NoError(t, err)
	require.NoError(t, f.requests.Delete(ctx, pending.Leave.ID))

	_, err = f.requests.Submit(ctx, paidRequest("emp-1",
		engine.NewDate(2025, time.March, 24), engine.NewDate(2025, time.March, 28)))
	assert.NoError(t, err)
}

// =============================================================================
// CERTIFICATES
// =============================================================================

func TestAttachCertificate_UnblocksApproval(t *testing.T) {
	// GIVEN: A pending 4-unit sick leave (over the 3-unit threshold)
	// WHEN: Approving before and after attaching a certificate
	// THEN: Blocked first, approved after

	f := newFixture(t)
	ctx := context.Background()
	f.seedBalance(t, "emp-1", 2025, 20, 10)

	in := paidRequest("emp-1", engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 13))
	in.Type = engine.LeaveSick
	submitted, err := f.requests.Submit(ctx, in)
	require.NoError(t, err)
	require.True(t, submitted.Leave.TotalUnits.Equal(decimal.NewFromInt(4)))

	_, err = f.approvals.ApproveLeave(ctx, submitted.Leave.ID, "manager-1")
	assert.ErrorIs(t, err, engine.ErrCertificateRequired)

	_, err = f.requests.AttachCertificate(ctx, submitted.Leave.ID, "certs/emp-1/march.pdf")
	require.NoError(t, err)

	ref, err := f.mem.Ref(ctx, submitted.Leave.ID)
	require.NoError(t, err)
	assert.Equal(t, "certs/emp-1/march.pdf", ref)

	approved, err := f.approvals.ApproveLeave(ctx, submitted.Leave.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusApproved, approved.Status)
}
