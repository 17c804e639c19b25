/*
conflict.go - Date-range overlap detection between leave requests

PURPOSE:
  Detects whether a candidate request collides with an employee's existing
  active (pending or approved) leaves. Rejected leaves and other employees'
  leaves never conflict.

OVERLAP RULE:
  Closed-interval overlap: two ranges collide when
    candidateStart <= existingEnd && candidateEnd >= existingStart
  The relation is symmetric.
*/
package engine

// Overlaps reports closed-interval overlap between [aStart, aEnd] and
// [bStart, bEnd]. Symmetric in its two range arguments.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && aEnd.AfterOrEqual(bStart)
}

// FindConflict returns the first active leave overlapping the candidate
// range, skipping the leave identified by exclude (used when editing a
// leave so it does not conflict with itself). The caller supplies the
// employee's own leaves; rejected entries are ignored. Search order follows
// the input slice, so results are deterministic for a given listing.
func FindConflict(candidate DateRange, activeLeaves []Leave, exclude LeaveID) *Leave {
	for i := range activeLeaves {
		l := &activeLeaves[i]
		if l.ID == exclude || !l.IsActive() {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, l.StartDate, l.EndDate) {
			return l
		}
	}
	return nil
}
