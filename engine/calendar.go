/*
calendar.go - Workday classification against a holiday set

PURPOSE:
  Answers the single question every duration computation depends on:
  is this calendar day a workday? A day is a workday when it is neither
  a weekend day (Saturday/Sunday) nor present in the supplied holiday set.

HOLIDAY MATCHING:
  Holidays match on the calendar day, ignoring any time-of-day component
  of the stored date. Recurring holidays match their month/day in every
  year. A date matching multiple holiday entries is still a single
  exclusion; lookups return the first declared match for disclosure.

PURITY:
  Everything here is a pure function over immutable inputs. The holiday
  list itself comes from a HolidaySource collaborator (see stores.go);
  the engine never fetches it implicitly.
*/
package engine

// =============================================================================
// HOLIDAY - Immutable reference data
// =============================================================================

// Holiday is a declared non-working day. Created and deleted by an
// administrator; consumed read-only by the calendar.
type Holiday struct {
	ID        HolidayID
	Name      string
	Date      Date
	Recurring bool // same month/day every year
}

// =============================================================================
// HOLIDAY SET - Day-keyed lookup over a holiday list
// =============================================================================

// HolidaySet indexes holidays for calendar-day lookups.
type HolidaySet struct {
	fixed     map[string]Holiday // "2006-01-02" -> holiday
	recurring map[string]Holiday // "01-02" -> holiday
}

// NewHolidaySet builds a set from a holiday list. Later duplicates for the
// same day do not replace the first entry.
func NewHolidaySet(holidays []Holiday) *HolidaySet {
	s := &HolidaySet{
		fixed:     make(map[string]Holiday, len(holidays)),
		recurring: make(map[string]Holiday),
	}
	for _, h := range holidays {
		if h.Recurring {
			k := h.Date.Time().Format("01-02")
			if _, ok := s.recurring[k]; !ok {
				s.recurring[k] = h
			}
			continue
		}
		k := h.Date.String()
		if _, ok := s.fixed[k]; !ok {
			s.fixed[k] = h
		}
	}
	return s
}

// HolidayOn returns the holiday covering the given day, if any.
// Fixed-date entries win over recurring ones.
func (s *HolidaySet) HolidayOn(d Date) (Holiday, bool) {
	if s == nil {
		return Holiday{}, false
	}
	if h, ok := s.fixed[d.String()]; ok {
		return h, true
	}
	if h, ok := s.recurring[d.Time().Format("01-02")]; ok {
		return h, true
	}
	return Holiday{}, false
}

// Contains reports whether the day is a holiday.
func (s *HolidaySet) Contains(d Date) bool {
	_, ok := s.HolidayOn(d)
	return ok
}

// =============================================================================
// WORKDAY CLASSIFICATION
// =============================================================================

// IsWorkday reports whether the day is neither a weekend nor a holiday.
// Total for all valid dates, no side effects.
func IsWorkday(d Date, holidays *HolidaySet) bool {
	if d.IsWeekend() {
		return false
	}
	return !holidays.Contains(d)
}
