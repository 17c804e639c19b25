package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/engine"
)

func noHolidays() *engine.HolidaySet { return engine.NewHolidaySet(nil) }

// =============================================================================
// RANGE EXPANSION
// =============================================================================

func TestExpandRange_InclusiveChronological(t *testing.T) {
	// GIVEN: A five-day range
	// WHEN: Expanding it
	// THEN: Every day appears once, in order, boundaries included

	start := engine.NewDate(2025, time.March, 10)
	end := engine.NewDate(2025, time.March, 14)

	days, err := engine.ExpandRange(start, end)
	require.NoError(t, err)
	require.Len(t, days, 5)
	assert.True(t, days[0].Equal(start))
	assert.True(t, days[4].Equal(end))
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i-1].Before(days[i]), "days must be chronological")
	}
}

func TestExpandRange_SingleDay(t *testing.T) {
	d := engine.NewDate(2025, time.March, 10)
	days, err := engine.ExpandRange(d, d)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestExpandRange_EndBeforeStart_Rejected(t *testing.T) {
	// GIVEN: End date before start date
	// WHEN: Expanding
	// THEN: InvalidRangeError, no partial result

	days, err := engine.ExpandRange(engine.NewDate(2025, time.March, 14), engine.NewDate(2025, time.March, 10))
	assert.Nil(t, days)
	assert.ErrorIs(t, err, engine.ErrInvalidRange)

	var rangeErr *engine.InvalidRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestClassify_WeekendsDroppedSilently_HolidaysDisclosed(t *testing.T) {
	// GIVEN: Mon-Sun range with a holiday on Wednesday
	// WHEN: Classifying
	// THEN: Weekend days vanish without mention; the holiday is named

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Spring Festival", Date: engine.NewDate(2025, time.March, 12)},
	})
	days, err := engine.ExpandRange(engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 16))
	require.NoError(t, err)

	workdays, excluded := engine.Classify(days, holidays)

	assert.Len(t, workdays, 4, "Mon, Tue, Thu, Fri")
	require.Len(t, excluded, 1)
	assert.Equal(t, "Spring Festival", excluded[0].Name)
}

func TestClassify_Idempotent(t *testing.T) {
	// GIVEN: A fixed range and holiday set
	// WHEN: Classifying twice
	// THEN: Identical results both times

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Holiday", Date: engine.NewDate(2025, time.March, 11)},
	})
	days, err := engine.ExpandRange(engine.NewDate(2025, time.March, 10), engine.NewDate(2025, time.March, 14))
	require.NoError(t, err)

	w1, e1 := engine.Classify(days, holidays)
	w2, e2 := engine.Classify(days, holidays)
	assert.Equal(t, w1, w2)
	assert.Equal(t, e1, e2)
}

// =============================================================================
// UNIT ASSIGNMENT
// =============================================================================

func TestAssignUnits_DefaultsToFull(t *testing.T) {
	workdays := []engine.Date{
		engine.NewDate(2025, time.March, 10),
		engine.NewDate(2025, time.March, 11),
	}
	options := engine.AssignUnits(workdays, nil, engine.LeavePaid)
	require.Len(t, options, 2)
	for _, o := range options {
		assert.Equal(t, engine.UnitFull, o.Unit)
	}
}

func TestAssignUnits_PreservesPreviousChoices(t *testing.T) {
	// GIVEN: A previous AM choice on March 10
	// WHEN: Reassigning over a wider range
	// THEN: March 10 keeps AM, new days default to FULL

	workdays := []engine.Date{
		engine.NewDate(2025, time.March, 10),
		engine.NewDate(2025, time.March, 11),
	}
	previous := []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitAM},
	}

	options := engine.AssignUnits(workdays, previous, engine.LeavePaid)
	assert.Equal(t, engine.UnitAM, options[0].Unit)
	assert.Equal(t, engine.UnitFull, options[1].Unit)
}

func TestAssignUnits_SickForcesFull(t *testing.T) {
	// GIVEN: Previous half-day choices
	// WHEN: Assigning for a sick leave
	// THEN: Every unit is FULL regardless of history

	workdays := []engine.Date{
		engine.NewDate(2025, time.March, 10),
		engine.NewDate(2025, time.March, 11),
	}
	previous := []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitPM},
		{Date: engine.NewDate(2025, time.March, 11), Unit: engine.UnitNone},
	}

	options := engine.AssignUnits(workdays, previous, engine.LeaveSick)
	for _, o := range options {
		assert.Equal(t, engine.UnitFull, o.Unit)
	}
}

func TestTotalUnits_Values(t *testing.T) {
	// GIVEN: One of each unit kind
	// WHEN: Summing
	// THEN: full=1.0, am=pm=0.5, none=0 so the total is 2.0

	options := []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitFull},
		{Date: engine.NewDate(2025, time.March, 11), Unit: engine.UnitAM},
		{Date: engine.NewDate(2025, time.March, 12), Unit: engine.UnitPM},
		{Date: engine.NewDate(2025, time.March, 13), Unit: engine.UnitNone},
	}
	assert.True(t, engine.TotalUnits(options).Equal(decimal.NewFromInt(2)))
}

func TestTotalUnits_OrderInvariant(t *testing.T) {
	a := []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitAM},
		{Date: engine.NewDate(2025, time.March, 11), Unit: engine.UnitFull},
	}
	b := []engine.HalfDayOption{a[1], a[0]}
	assert.True(t, engine.TotalUnits(a).Equal(engine.TotalUnits(b)))
}

// =============================================================================
// FULL SCHEDULE PIPELINE
// =============================================================================

func TestBuildSchedule_WeekSpanningRange(t *testing.T) {
	// GIVEN: Mon-Sun paid leave with a Wednesday holiday
	// WHEN: Building the schedule
	// THEN: 4 chargeable days, holiday disclosed, weekend silent

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Spring Festival", Date: engine.NewDate(2025, time.March, 12)},
	})

	s, err := engine.BuildSchedule(
		engine.NewDate(2025, time.March, 10),
		engine.NewDate(2025, time.March, 16),
		nil, engine.LeavePaid, holidays)
	require.NoError(t, err)

	assert.True(t, s.TotalUnits.Equal(decimal.NewFromInt(4)))
	assert.Len(t, s.Options, 4)
	require.Len(t, s.ExcludedHolidays, 1)
	assert.Equal(t, "Spring Festival", s.ExcludedHolidays[0].Name)
}

func TestBuildSchedule_SickOnHolidayBoundary_Rejected(t *testing.T) {
	// GIVEN: A sick leave starting on a holiday
	// WHEN: Building the schedule
	// THEN: HolidayBoundaryError naming the holiday

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Spring Festival", Date: engine.NewDate(2025, time.March, 12)},
	})

	_, err := engine.BuildSchedule(
		engine.NewDate(2025, time.March, 12),
		engine.NewDate(2025, time.March, 14),
		nil, engine.LeaveSick, holidays)

	assert.ErrorIs(t, err, engine.ErrHolidayBoundary)
	var boundary *engine.HolidayBoundaryError
	require.ErrorAs(t, err, &boundary)
	assert.Equal(t, "Spring Festival", boundary.Holiday)
}

func TestBuildSchedule_SickEndingOnWeekend_Rejected(t *testing.T) {
	// GIVEN: A sick leave ending on a Saturday
	// WHEN: Building the schedule
	// THEN: Rejected; the boundary error carries no holiday name

	_, err := engine.BuildSchedule(
		engine.NewDate(2025, time.March, 13),
		engine.NewDate(2025, time.March, 15),
		nil, engine.LeaveSick, noHolidays())

	assert.ErrorIs(t, err, engine.ErrHolidayBoundary)
	var boundary *engine.HolidayBoundaryError
	require.ErrorAs(t, err, &boundary)
	assert.Empty(t, boundary.Holiday)
}

func TestBuildSchedule_PaidOnHolidayBoundary_Allowed(t *testing.T) {
	// GIVEN: A paid leave starting on a holiday
	// WHEN: Building the schedule
	// THEN: Allowed; the holiday day is just not charged

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Spring Festival", Date: engine.NewDate(2025, time.March, 12)},
	})

	s, err := engine.BuildSchedule(
		engine.NewDate(2025, time.March, 12),
		engine.NewDate(2025, time.March, 14),
		nil, engine.LeavePaid, holidays)
	require.NoError(t, err)
	assert.True(t, s.TotalUnits.Equal(decimal.NewFromInt(2)), "Thu and Fri chargeable")
}

func TestBuildSchedule_HalfDaysAcrossRange(t *testing.T) {
	// GIVEN: Mon-Wed with AM on Monday and PM on Wednesday
	// WHEN: Building the schedule
	// THEN: Total is 0.5 + 1 + 0.5 = 2

	previous := []engine.HalfDayOption{
		{Date: engine.NewDate(2025, time.March, 10), Unit: engine.UnitAM},
		{Date: engine.NewDate(2025, time.March, 12), Unit: engine.UnitPM},
	}
	s, err := engine.BuildSchedule(
		engine.NewDate(2025, time.March, 10),
		engine.NewDate(2025, time.March, 12),
		previous, engine.LeavePaid, noHolidays())
	require.NoError(t, err)
	assert.True(t, s.TotalUnits.Equal(decimal.NewFromInt(2)))
}
