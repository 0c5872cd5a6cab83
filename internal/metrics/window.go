package metrics

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

// Window is an inclusive range of calendar dates. Start and End are stored
// as UTC midnights so day arithmetic is exact; Location decides which
// calendar date a timestamp falls on.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// NewWindow builds a window from two calendar dates, interpreted in loc.
// A nil loc means UTC.
func NewWindow(start, end time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	return Window{Start: civil(start, loc), End: civil(end, loc), Location: loc}
}

// TrailingWeeks returns the last n complete Monday–Sunday weeks before the
// week containing now. n <= 0 yields an empty window ending on the most
// recent Sunday.
func TrailingWeeks(now time.Time, n int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	today := civil(now, loc)
	sinceMonday := (int(today.Weekday()) + 6) % 7
	end := today.AddDate(0, 0, -sinceMonday-1)
	start := end.AddDate(0, 0, 1)
	if n > 0 {
		start = end.AddDate(0, 0, -(n*7 - 1))
	}
	return Window{Start: start, End: end, Location: loc}
}

// ParseWindow parses YYYY-MM-DD bounds in loc and widens them to whole
// weeks: since moves back to its Monday and until forward to its Sunday.
func ParseWindow(since, until string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(dateLayout, since, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD): %w", since, err)
	}
	end, err := time.ParseInLocation(dateLayout, until, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q (expected YYYY-MM-DD): %w", until, err)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("end date %s is before start date %s", until, since)
	}
	w := NewWindow(start, end, loc)
	w.Start = w.Start.AddDate(0, 0, -((int(w.Start.Weekday())+6)%7))
	w.End = w.End.AddDate(0, 0, (7-int(w.End.Weekday()))%7)
	return w, nil
}

// Days returns the number of calendar days in the window, 0 when empty.
func (w Window) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start)/day) + 1
}

// Empty reports whether the window contains no days.
func (w Window) Empty() bool {
	return w.Days() == 0
}

// Weeks splits the window into consecutive 7-day segments starting at
// Start. The final segment is shorter when Days is not a multiple of 7.
func (w Window) Weeks() []Window {
	var weeks []Window
	for s := w.Start; !s.After(w.End); s = s.AddDate(0, 0, 7) {
		e := s.AddDate(0, 0, 6)
		if e.After(w.End) {
			e = w.End
		}
		weeks = append(weeks, Window{Start: s, End: e, Location: w.Location})
	}
	return weeks
}

// Date returns the calendar date of t in the window's location.
func (w Window) Date(t time.Time) time.Time {
	return civil(t, w.location())
}

// Contains reports whether t falls on a date inside the window.
func (w Window) Contains(t time.Time) bool {
	d := w.Date(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Since is the first instant of the window in its location.
func (w Window) Since() time.Time {
	return time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, w.location())
}

// Until is the first instant after the window in its location.
func (w Window) Until() time.Time {
	next := w.End.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, w.location())
}

// StartDate formats the first day as YYYY-MM-DD.
func (w Window) StartDate() string { return w.Start.Format(dateLayout) }

// EndDate formats the inclusive end as YYYY-MM-DD.
func (w Window) EndDate() string { return w.End.Format(dateLayout) }

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.StartDate(), w.EndDate())
}

// MarshalJSON renders the window as dates plus its size.
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Days  int    `json:"days"`
		Weeks int    `json:"weeks"`
	}{w.StartDate(), w.EndDate(), w.Days(), len(w.Weeks())})
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
