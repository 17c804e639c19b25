/*
replacement.go - Permission make-up time reconciliation

PURPOSE:
  A permission is a short absence measured in minutes; the employee owes
  the same amount of make-up ("replacement") time within the same calendar
  week. This file derives slot durations, validates slot placement, and
  reports whether declared make-up time balances the absence.

BALANCE IS A WARNING, NOT A BLOCKER:
  isBalanced mismatches are surfaced to the caller as a warning state; an
  unbalanced permission can still be saved. Slot placement rules (weekend,
  wrong week) ARE hard errors.

DURATION DERIVATION:
  A slot's duration is max(0, end - start) minutes. A slot whose end is at
  or before its start contributes zero, never a negative value and never a
  midnight wraparound.
*/
package engine

// SlotDuration derives a slot's minutes as max(0, end - start).
func SlotDuration(start, end ClockTime) int {
	d := int(end) - int(start)
	if d < 0 {
		return 0
	}
	return d
}

// TotalReplacementMinutes sums the derived durations of the slots.
func TotalReplacementMinutes(slots []ReplacementSlot) int {
	total := 0
	for _, s := range slots {
		total += s.DurationMinutes
	}
	return total
}

// IsBalanced reports exact equality between the permission's declared
// duration and the sum of its replacement slots.
func IsBalanced(permissionDurationMinutes int, slots []ReplacementSlot) bool {
	return TotalReplacementMinutes(slots) == permissionDurationMinutes
}

// ValidateSlots checks slot placement: every slot must fall in the same ISO
// week as the permission's date and must not fall on a weekend. Returns the
// first violation found.
func ValidateSlots(slots []ReplacementSlot, permissionDate Date) error {
	permYear, permWeek := permissionDate.ISOWeek()
	for _, s := range slots {
		if s.Date.IsWeekend() {
			return &WeekendReplacementError{Date: s.Date}
		}
		year, week := s.Date.ISOWeek()
		if year != permYear || week != permWeek {
			return ErrReplacementOutsideWeek
		}
	}
	return nil
}
