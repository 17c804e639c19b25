package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newPermissionService(t *testing.T) (*leave.PermissionService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return &leave.PermissionService{Permissions: mem}, mem
}

func clock(t *testing.T, s string) engine.ClockTime {
	t.Helper()
	c, err := engine.ParseClock(s)
	require.NoError(t, err)
	return c
}

// twoHourAbsence is a Tuesday 09:00-11:00 permission.
func twoHourAbsence(t *testing.T, slots ...leave.SlotInput) leave.SubmitPermissionInput {
	return leave.SubmitPermissionInput{
		EmployeeID: "emp-1",
		Date:       engine.NewDate(2025, time.March, 11),
		Start:      clock(t, "09:00"),
		End:        clock(t, "11:00"),
		Reason:     "appointment",
		Slots:      slots,
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitPermission_BalancedAcrossDays(t *testing.T) {
	// GIVEN: A 2-hour absence with two 1-hour make-up slots later that week
	// WHEN: Submitting
	// THEN: Saved pending, derived durations, balanced

	svc, _ := newPermissionService(t)

	result, err := svc.Submit(context.Background(), twoHourAbsence(t,
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 12), Start: clock(t, "17:00"), End: clock(t, "18:00")},
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 13), Start: clock(t, "17:00"), End: clock(t, "18:00")},
	))
	require.NoError(t, err)

	p := result.Permission
	assert.Equal(t, engine.StatusPending, p.Status)
	assert.Equal(t, 120, p.DurationMinutes)
	assert.True(t, result.Balanced)
	require.Len(t, p.ReplacementSlots, 2)
	assert.Equal(t, 60, p.ReplacementSlots[0].DurationMinutes)
	assert.NotEmpty(t, p.ReplacementSlots[0].ID)
}

func TestSubmitPermission_ImbalanceIsWarningNotError(t *testing.T) {
	// GIVEN: A 2-hour absence with only 30 minutes of make-up time
	// WHEN: Submitting
	// THEN: Saved anyway, flagged unbalanced

	svc, mem := newPermissionService(t)

	result, err := svc.Submit(context.Background(), twoHourAbsence(t,
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 12), Start: clock(t, "17:00"), End: clock(t, "17:30")},
	))
	require.NoError(t, err)
	assert.False(t, result.Balanced)

	saved, err := mem.GetPermission(context.Background(), result.Permission.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusPending, saved.Status)
}

func TestSubmitPermission_NoSlotsAllowed(t *testing.T) {
	// Declaring no make-up time at submission is allowed, just unbalanced.

	svc, _ := newPermissionService(t)
	result, err := svc.Submit(context.Background(), twoHourAbsence(t))
	require.NoError(t, err)
	assert.False(t, result.Balanced)
}

func TestSubmitPermission_WeekendSlotRejected(t *testing.T) {
	// GIVEN: A make-up slot on Saturday
	// WHEN: Submitting
	// THEN: Hard error, nothing saved

	svc, mem := newPermissionService(t)

	_, err := svc.Submit(context.Background(), twoHourAbsence(t,
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 15), Start: clock(t, "10:00"), End: clock(t, "12:00")},
	))
	assert.ErrorIs(t, err, engine.ErrWeekendReplacement)

	saved, err := mem.ListPermissions(context.Background(), engine.PermissionFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSubmitPermission_SlotOutsideWeekRejected(t *testing.T) {
	svc, _ := newPermissionService(t)

	_, err := svc.Submit(context.Background(), twoHourAbsence(t,
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 18), Start: clock(t, "17:00"), End: clock(t, "18:00")},
	))
	assert.ErrorIs(t, err, engine.ErrReplacementOutsideWeek)
}

func TestSubmitPermission_InvertedSlotContributesZero(t *testing.T) {
	// GIVEN: A slot whose end precedes its start
	// WHEN: Submitting
	// THEN: Its duration clamps to zero and the permission is unbalanced

	svc, _ := newPermissionService(t)

	result, err := svc.Submit(context.Background(), twoHourAbsence(t,
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 12), Start: clock(t, "18:00"), End: clock(t, "17:00")},
	))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Permission.ReplacementSlots[0].DurationMinutes)
	assert.False(t, result.Balanced)
}

// =============================================================================
// EDIT AND DELETE
// =============================================================================

func TestEditPermission_ReplacesSlotsWholesale(t *testing.T) {
	// GIVEN: A pending unbalanced permission
	// WHEN: Editing with full make-up declared
	// THEN: Slots replaced, now balanced

	svc, _ := newPermissionService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, twoHourAbsence(t))
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, submitted.Permission.ID, twoHourAbsence(t,
		leave.SlotInput{Date: engine.NewDate(2025, time.March, 13), Start: clock(t, "16:00"), End: clock(t, "18:00")},
	))
	require.NoError(t, err)
	assert.True(t, edited.Balanced)
	assert.Len(t, edited.Permission.ReplacementSlots, 1)
}

func TestEditPermission_DecidedRejected(t *testing.T) {
	svc, mem := newPermissionService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, twoHourAbsence(t))
	require.NoError(t, err)

	p, err := mem.GetPermission(ctx, submitted.Permission.ID)
	require.NoError(t, err)
	p.Status = engine.StatusApproved
	require.NoError(t, mem.UpsertPermission(ctx, p))

	_, err = svc.Edit(ctx, p.ID, twoHourAbsence(t))
	assert.ErrorIs(t, err, engine.ErrInvalidStateTransition)
}

func TestDeletePermission_PendingOnly(t *testing.T) {
	svc, mem := newPermissionService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, twoHourAbsence(t))
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, submitted.Permission.ID))

	second, err := svc.Submit(ctx, twoHourAbsence(t))
	require.NoError(t, err)
	p, _ := mem.GetPermission(ctx, second.Permission.ID)
	p.Status = engine.StatusRejected
	require.NoError(t, mem.UpsertPermission(ctx, p))

	err = svc.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, engine.ErrInvalidStateTransition)
}
