package metrics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTrailingWeeks(t *testing.T) {
	tests := []struct {
		name      string
		now       string
		weeks     int
		wantStart string
		wantEnd   string
	}{
		{"monday", "2026-10-19T09:00:00Z", 1, "2026-10-12", "2026-10-18"},
		{"wednesday", "2026-10-21T23:59:00Z", 1, "2026-10-12", "2026-10-18"},
		{"sunday is not complete", "2026-10-18T12:00:00Z", 1, "2026-10-05", "2026-10-11"},
		{"two weeks", "2026-10-19T09:00:00Z", 2, "2026-10-05", "2026-10-18"},
		{"four weeks", "2026-10-19T09:00:00Z", 4, "2026-09-21", "2026-10-18"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := TrailingWeeks(at(tt.now), tt.weeks, time.UTC)
			if w.StartDate() != tt.wantStart || w.EndDate() != tt.wantEnd {
				t.Errorf("got %s, want %s..%s", w, tt.wantStart, tt.wantEnd)
			}
			if w.Start.Weekday() != time.Monday {
				t.Errorf("start %s is a %s", w.StartDate(), w.Start.Weekday())
			}
			if w.End.Weekday() != time.Sunday {
				t.Errorf("end %s is a %s", w.EndDate(), w.End.Weekday())
			}
			if w.Days() != tt.weeks*7 {
				t.Errorf("expected %d days, got %d", tt.weeks*7, w.Days())
			}
		})
	}
}

func TestTrailingWeeksZeroIsEmpty(t *testing.T) {
	w := TrailingWeeks(at("2026-10-19T09:00:00Z"), 0, time.UTC)
	if !w.Empty() {
		t.Errorf("expected empty window, got %s (%d days)", w, w.Days())
	}
	if len(w.Weeks()) != 0 {
		t.Errorf("expected no week segments, got %d", len(w.Weeks()))
	}
}

func TestTrailingWeeksUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// Sunday 20:00 UTC is already Monday in Tokyo.
	w := TrailingWeeks(at("2026-10-18T20:00:00Z"), 1, tokyo)
	if w.StartDate() != "2026-10-12" || w.EndDate() != "2026-10-18" {
		t.Errorf("got %s", w)
	}
}

func TestWeeksPartialSegment(t *testing.T) {
	w := NewWindow(date("2024-01-01"), date("2024-01-10"), nil)
	weeks := w.Weeks()
	if len(weeks) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(weeks))
	}
	if weeks[0].Days() != 7 || weeks[1].Days() != 3 {
		t.Errorf("segment sizes = %d, %d; want 7, 3", weeks[0].Days(), weeks[1].Days())
	}
	if weeks[1].StartDate() != "2024-01-08" || weeks[1].EndDate() != "2024-01-10" {
		t.Errorf("second segment = %s", weeks[1])
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2024-01-01", "2024-01-14", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if w.Days() != 14 {
		t.Errorf("expected 14 days, got %d", w.Days())
	}

	if _, err := ParseWindow("2024-01-14", "2024-01-01", time.UTC); err == nil {
		t.Error("expected error for reversed window")
	}
	if _, err := ParseWindow("01/01/2024", "2024-01-14", time.UTC); err == nil {
		t.Error("expected error for bad date format")
	}
}

func TestParseWindowSnapsToWeeks(t *testing.T) {
	tests := []struct {
		since, until       string
		wantStart, wantEnd string
	}{
		{"2024-01-03", "2024-01-10", "2024-01-01", "2024-01-14"},
		{"2024-01-01", "2024-01-07", "2024-01-01", "2024-01-07"},
		{"2024-01-07", "2024-01-08", "2024-01-01", "2024-01-14"},
		{"2024-01-04", "2024-01-04", "2024-01-01", "2024-01-07"},
	}
	for _, tt := range tests {
		w, err := ParseWindow(tt.since, tt.until, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if w.StartDate() != tt.wantStart || w.EndDate() != tt.wantEnd {
			t.Errorf("ParseWindow(%s, %s) = %s, want %s..%s", tt.since, tt.until, w, tt.wantStart, tt.wantEnd)
		}
		for _, seg := range w.Weeks() {
			if seg.Start.Weekday() != time.Monday || seg.End.Weekday() != time.Sunday {
				t.Errorf("segment %s is not a Monday-Sunday week", seg)
			}
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := NewWindow(date("2024-01-01"), date("2024-01-07"), nil)
	if !w.Contains(at("2024-01-07T23:59:59Z")) {
		t.Error("last second of the end date should be inside")
	}
	if w.Contains(at("2024-01-08T00:00:00Z")) {
		t.Error("day after the end should be outside")
	}
	if w.Contains(at("2023-12-31T23:59:59Z")) {
		t.Error("day before the start should be outside")
	}
	if !w.Until().Equal(at("2024-01-08T00:00:00Z")) {
		t.Errorf("Until = %s", w.Until())
	}
}

func TestWindowJSON(t *testing.T) {
	w := NewWindow(date("2024-01-01"), date("2024-01-14"), nil)
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"start":"2024-01-01"`, `"end":"2024-01-14"`, `"days":14`, `"weeks":2`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
}
