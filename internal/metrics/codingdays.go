package metrics

import "time"

// CodingDays counts, for each week segment of w, the distinct calendar
// dates on which a commit was made, and returns the per-week counts with
// their sum. Dates are deduplicated within a week only, so each week
// contributes at most 7. Commits outside the window are ignored.
func CodingDays(commits []time.Time, w Window) (weekly []int, total int) {
	weeks := w.Weeks()
	if len(weeks) == 0 {
		return nil, 0
	}

	seen := make([]map[time.Time]struct{}, len(weeks))
	for _, c := range commits {
		if !w.Contains(c) {
			continue
		}
		d := w.Date(c)
		idx := int(d.Sub(w.Start)/day) / 7
		if seen[idx] == nil {
			seen[idx] = make(map[time.Time]struct{})
		}
		seen[idx][d] = struct{}{}
	}

	weekly = make([]int, len(weeks))
	for i, dates := range seen {
		weekly[i] = len(dates)
		total += weekly[i]
	}
	return weekly, total
}
