/*
duration.go - Date range expansion and half-day unit assignment

PURPOSE:
  Computes how many work-units a leave's date range actually consumes.
  The pipeline is:

    ExpandRange -> Classify -> AssignUnits -> TotalUnits

  1. ExpandRange: inclusive chronological day list for [start, end]
  2. Classify:    partition days into workdays and excluded holidays
  3. AssignUnits: one HalfDayOption per workday (FULL unless chosen
                  otherwise; SICK forces FULL everywhere)
  4. TotalUnits:  FULL=1.0, AM/PM=0.5, NONE=0

HOLIDAY DISCLOSURE:
  Classify reports the named holidays it skipped so the caller can tell
  the employee which days were not charged. Re-classifying the same range
  with the same holiday set always yields the same exclusions.

EDIT-IN-PLACE:
  AssignUnits preserves previously chosen units by date, so editing a
  leave's range keeps the employee's half-day choices for the days that
  survive the edit. Changing the type to SICK re-forces FULL retroactively.

SICK BOUNDARY RULE:
  A sick leave may not begin or end on a non-workday: sick leave has no
  partial-day concept to absorb the boundary, so the request is rejected
  outright with HolidayBoundaryError.
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// RANGE EXPANSION
// =============================================================================

// ExpandRange returns every calendar day in [start, end], inclusive and
// chronological. Fails with InvalidRangeError when start > end.
func ExpandRange(start, end Date) ([]Date, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	var days []Date
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days, nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify partitions days into workdays and excluded holidays, preserving
// order. Weekend days are dropped silently; holidays are reported back for
// disclosure. Idempotent for a fixed holiday set.
func Classify(days []Date, holidays *HolidaySet) (workdays []Date, excluded []Holiday) {
	for _, d := range days {
		if d.IsWeekend() {
			continue
		}
		if h, ok := holidays.HolidayOn(d); ok {
			excluded = append(excluded, h)
			continue
		}
		workdays = append(workdays, d)
	}
	return workdays, excluded
}

// =============================================================================
// UNIT ASSIGNMENT
// =============================================================================

// AssignUnits produces one HalfDayOption per workday. Units previously
// chosen for a date are preserved to support edit-in-place; new days default
// to FULL. Sick leave has no half-day granularity, so every unit is forced
// to FULL regardless of previous choices - this re-applies retroactively
// when the type changes after dates were chosen.
func AssignUnits(workdays []Date, previous []HalfDayOption, leaveType LeaveType) []HalfDayOption {
	prevByDate := make(map[string]HalfDayUnit, len(previous))
	for _, p := range previous {
		prevByDate[p.Date.String()] = p.Unit
	}

	options := make([]HalfDayOption, len(workdays))
	for i, d := range workdays {
		unit := UnitFull
		if u, ok := prevByDate[d.String()]; ok {
			unit = u
		}
		if leaveType == LeaveSick {
			unit = UnitFull
		}
		options[i] = HalfDayOption{Date: d, Unit: unit}
	}
	return options
}

// TotalUnits sums the consumption value of the options. Non-negative,
// monotonic in the number of FULL/half entries, and invariant to the order
// of the list.
func TotalUnits(options []HalfDayOption) decimal.Decimal {
	total := decimal.Zero
	for _, o := range options {
		total = total.Add(o.Unit.Units())
	}
	return total
}

// =============================================================================
// SCHEDULE - The full pipeline in one call
// =============================================================================

// Schedule is the derived consumption plan for a leave's range.
type Schedule struct {
	Options          []HalfDayOption
	ExcludedHolidays []Holiday
	TotalUnits       decimal.Decimal
}

// BuildSchedule runs the full expansion pipeline and enforces the sick
// boundary rule.
func BuildSchedule(start, end Date, previous []HalfDayOption, leaveType LeaveType, holidays *HolidaySet) (*Schedule, error) {
	days, err := ExpandRange(start, end)
	if err != nil {
		return nil, err
	}

	if leaveType == LeaveSick {
		for _, boundary := range []Date{start, end} {
			if IsWorkday(boundary, holidays) {
				continue
			}
			name := ""
			if h, ok := holidays.HolidayOn(boundary); ok {
				name = h.Name
			}
			return nil, &HolidayBoundaryError{Date: boundary, Holiday: name}
		}
	}

	workdays, excluded := Classify(days, holidays)
	options := AssignUnits(workdays, previous, leaveType)

	return &Schedule{
		Options:          options,
		ExcludedHolidays: excluded,
		TotalUnits:       TotalUnits(options),
	}, nil
}
