package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// WEEKEND / WORKDAY CLASSIFICATION
// =============================================================================

func TestCalendar_WeekendClassification(t *testing.T) {
	// GIVEN: A week of dates
	// WHEN: Classifying each day
	// THEN: Exactly Saturday and Sunday are weekends

	monday := engine.NewDate(2025, time.March, 3)
	for i := 0; i < 5; i++ {
		d := monday.AddDays(i)
		assert.False(t, d.IsWeekend(), "%s (%s) should be a workday", d, d.Weekday())
	}
	assert.True(t, monday.AddDays(5).IsWeekend(), "Saturday should be a weekend")
	assert.True(t, monday.AddDays(6).IsWeekend(), "Sunday should be a weekend")
}

func TestCalendar_WeekendPartition_LongWindow(t *testing.T) {
	// GIVEN: A 400-day window
	// WHEN: Classifying every day
	// THEN: Every day is either weekend or non-weekend, and consecutive
	//       weekend days come in Saturday/Sunday pairs

	start := engine.NewDate(2025, time.January, 1)
	weekends := 0
	for i := 0; i < 400; i++ {
		d := start.AddDays(i)
		if d.IsWeekend() {
			weekends++
			wd := d.Weekday()
			assert.True(t, wd == time.Saturday || wd == time.Sunday)
		}
	}
	// 400 days span 57 full weeks plus one day.
	assert.GreaterOrEqual(t, weekends, 114)
	assert.LessOrEqual(t, weekends, 116)
}

// =============================================================================
// HOLIDAY SET
// =============================================================================

func TestHolidaySet_FixedAndRecurring(t *testing.T) {
	// GIVEN: A fixed holiday in 2025 and a recurring New Year holiday
	// WHEN: Looking up dates across years
	// THEN: The fixed one matches only its year, the recurring one every year

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Founding Day", Date: engine.NewDate(2025, time.June, 5)},
		{ID: "h2", Name: "New Year", Date: engine.NewDate(2020, time.January, 1), Recurring: true},
	})

	assert.True(t, holidays.Contains(engine.NewDate(2025, time.June, 5)))
	assert.False(t, holidays.Contains(engine.NewDate(2026, time.June, 5)), "fixed holiday is year-bound")

	assert.True(t, holidays.Contains(engine.NewDate(2025, time.January, 1)), "recurring applies to 2025")
	assert.True(t, holidays.Contains(engine.NewDate(2030, time.January, 1)), "recurring applies to 2030")

	h, ok := holidays.HolidayOn(engine.NewDate(2027, time.January, 1))
	assert.True(t, ok)
	assert.Equal(t, "New Year", h.Name)
}

func TestHolidaySet_FixedWinsOverRecurring(t *testing.T) {
	// GIVEN: A fixed holiday on the same day a recurring one lands
	// WHEN: Looking up that date
	// THEN: The fixed entry's name is reported

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Recurring Day", Date: engine.NewDate(2020, time.May, 1), Recurring: true},
		{ID: "h2", Name: "Special Observance", Date: engine.NewDate(2025, time.May, 1)},
	})

	h, ok := holidays.HolidayOn(engine.NewDate(2025, time.May, 1))
	assert.True(t, ok)
	assert.Equal(t, "Special Observance", h.Name)
}

func TestHolidaySet_NilIsEmpty(t *testing.T) {
	// GIVEN: A holiday set built from nothing
	// WHEN: Looking up any date
	// THEN: No day is a holiday

	holidays := engine.NewHolidaySet(nil)
	assert.False(t, holidays.Contains(engine.NewDate(2025, time.January, 1)))
}

func TestIsWorkday(t *testing.T) {
	// GIVEN: A calendar with one holiday on a Thursday
	// WHEN: Checking workday status
	// THEN: Weekdays are workdays except the holiday; weekends never are

	holidays := engine.NewHolidaySet([]engine.Holiday{
		{ID: "h1", Name: "Holiday", Date: engine.NewDate(2025, time.March, 6)},
	})

	assert.True(t, engine.IsWorkday(engine.NewDate(2025, time.March, 5), holidays), "plain Wednesday")
	assert.False(t, engine.IsWorkday(engine.NewDate(2025, time.March, 6), holidays), "holiday Thursday")
	assert.False(t, engine.IsWorkday(engine.NewDate(2025, time.March, 8), holidays), "Saturday")
}

// =============================================================================
// DATE BASICS
// =============================================================================

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := engine.ParseDate("2025-03-10")
	assert.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())
	assert.Equal(t, 2025, d.Year())

	_, err = engine.ParseDate("10/03/2025")
	assert.Error(t, err, "only YYYY-MM-DD is accepted")
}

func TestDate_AddDaysAcrossMonthBoundary(t *testing.T) {
	d := engine.NewDate(2025, time.January, 30)
	assert.Equal(t, "2025-02-02", d.AddDays(3).String())
}

func TestClockTime_ParseAndFormat(t *testing.T) {
	c, err := engine.ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, engine.ClockTime(570), c)
	assert.Equal(t, "09:30", c.String())

	_, err = engine.ParseClock("25:00")
	assert.Error(t, err)
}
