package pipeline

import "time"

// Window is the months-back retention window. A statement is retained
// when its period overlaps [Now - MonthsBack months, Now]; statements
// spanning a boundary are retained in full.
type Window struct {
	MonthsBack int
	Now        time.Time
}

// Contains reports whether a statement period overlaps the window.
// MonthsBack <= 0 disables filtering.
func (w Window) Contains(periodStart, periodEnd time.Time) bool {
	if w.MonthsBack <= 0 {
		return true
	}
	start := w.Now.AddDate(0, -w.MonthsBack, 0)
	return !periodEnd.Before(start) && !periodStart.After(w.Now)
}
