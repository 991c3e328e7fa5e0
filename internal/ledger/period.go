package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Range is a closed interval: an entry is inside when Start <= RecordedAt <= End.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// endOfDay is 23:59:59 plus the rest of that second, so sub-second timestamps stay inside.
const endOfDayNanos = int(time.Second - time.Nanosecond)

// DayRange covers the calendar day of d in d's location.
func DayRange(d time.Time) Range {
	y, m, day := d.Date()
	loc := d.Location()
	return Range{
		Start: time.Date(y, m, day, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, day, 23, 59, 59, endOfDayNanos, loc),
	}
}

// MonthRange covers the whole calendar month. The last day is found as day 0
// of the following month, which rolls December into January correctly.
func MonthRange(year int, month time.Month, loc *time.Location) Range {
	return Range{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, month+1, 0, 23, 59, 59, endOfDayNanos, loc),
	}
}

// PastDaysRange starts at local midnight n calendar days before now and ends at now.
func PastDaysRange(now time.Time, n int) Range {
	y, m, d := now.Date()
	return Range{
		Start: time.Date(y, m, d-n, 0, 0, 0, 0, now.Location()),
		End:   now,
	}
}

// Scope selects a time window for summaries and listings.
type Scope interface {
	// Label is the Thai description shown in reply headers.
	Label() string
	isScope()
}

type ScopeToday struct{}

type ScopeDay struct {
	Year  int
	Month time.Month
	Day   int
}

type ScopeMonth struct {
	Year  int
	Month time.Month
}

// ScopeThisMonth is the calendar month containing now.
type ScopeThisMonth struct{}

type ScopePastDays struct {
	Days int
}

// ScopeAll spans every entry of a conversation; it is resolved from the data, not the clock.
type ScopeAll struct{}

func (ScopeToday) isScope()     {}
func (ScopeDay) isScope()       {}
func (ScopeMonth) isScope()     {}
func (ScopeThisMonth) isScope() {}
func (ScopePastDays) isScope()  {}
func (ScopeAll) isScope()       {}

func (ScopeToday) Label() string { return "วันนี้" }

func (s ScopeDay) Label() string {
	return fmt.Sprintf("วันที่ %04d-%02d-%02d", s.Year, int(s.Month), s.Day)
}

func (s ScopeMonth) Label() string {
	return fmt.Sprintf("เดือน %04d-%02d", s.Year, int(s.Month))
}

func (ScopeThisMonth) Label() string { return "เดือนนี้" }

func (s ScopePastDays) Label() string {
	return fmt.Sprintf("ย้อนหลัง %d วัน", s.Days)
}

func (ScopeAll) Label() string { return "ทั้งหมด" }

// Resolve turns a scope into a concrete range in now's location.
// It reports false for ScopeAll, which needs the stored data to resolve.
func Resolve(s Scope, now time.Time) (Range, bool) {
	loc := now.Location()
	switch s := s.(type) {
	case ScopeToday:
		return DayRange(now), true
	case ScopeDay:
		return DayRange(time.Date(s.Year, s.Month, s.Day, 0, 0, 0, 0, loc)), true
	case ScopeMonth:
		return MonthRange(s.Year, s.Month, loc), true
	case ScopeThisMonth:
		return MonthRange(now.Year(), now.Month(), loc), true
	case ScopePastDays:
		return PastDaysRange(now, s.Days), true
	}
	return Range{}, false
}

// ParseDate accepts YYYY-MM-DD and rejects dates that do not exist (2025-02-30).
func ParseDate(s string) (ScopeDay, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ScopeDay{}, false
	}
	return ScopeDay{Year: t.Year(), Month: t.Month(), Day: t.Day()}, true
}

// ParseMonth accepts YYYY-MM.
func ParseMonth(s string) (ScopeMonth, bool) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return ScopeMonth{}, false
	}
	return ScopeMonth{Year: t.Year(), Month: t.Month()}, true
}

// ParseScope reads the scope tokens used by the admin API:
// "today", "month", "all", "past:N", "YYYY-MM-DD" or "YYYY-MM".
func ParseScope(s string) (Scope, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "today":
		return ScopeToday{}, nil
	case "month":
		return ScopeThisMonth{}, nil
	case "all":
		return ScopeAll{}, nil
	}
	if rest, ok := strings.CutPrefix(s, "past:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid past days %q", rest)
		}
		return ScopePastDays{Days: n}, nil
	}
	if d, ok := ParseDate(s); ok {
		return d, nil
	}
	if m, ok := ParseMonth(s); ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown scope %q", s)
}
