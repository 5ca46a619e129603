package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar converts between wall-clock days in one time zone and the Unix
// instants used as storage keys.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a calendar for loc. A nil loc means time.Local.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// LocalCalendar returns a calendar in the process's local time zone.
func LocalCalendar() Calendar {
	return NewCalendar(time.Local)
}

// Location returns the calendar's time zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Day returns local midnight of the given calendar day.
func (c Calendar) Day(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, c.Location())}
}

// Truncate strips the time of day from t after moving it into the
// calendar's zone.
func (c Calendar) Truncate(t time.Time) Date {
	local := t.In(c.Location())
	return c.Day(local.Year(), local.Month(), local.Day())
}

// ToInstant returns the Unix seconds of local midnight of d. Only d's
// calendar fields are used, so a Date built in another zone still maps to
// midnight here.
func (c Calendar) ToInstant(d Date) int64 {
	return c.Day(d.Year(), d.Time.Month(), d.Time.Day()).Unix()
}

// FromInstant interprets sec in the calendar's zone and truncates it to the
// day.
func (c Calendar) FromInstant(sec int64) Date {
	return c.Truncate(time.Unix(sec, 0))
}

// MonthStart returns local midnight of the first day of ym.
func (c Calendar) MonthStart(ym YearMonth) Date {
	return c.Day(ym.Year, ym.Month, 1)
}

// MonthRange returns [first of ym, first of the following month).
func (c Calendar) MonthRange(ym YearMonth) DateRange {
	return c.SpanRange(ym, ym)
}

// SpanRange covers every day from the first of first to the end of last.
func (c Calendar) SpanRange(first, last YearMonth) DateRange {
	return DateRange{
		Start: c.MonthStart(first),
		End:   c.MonthStart(last.AddMonths(1)),
		cal:   c,
	}
}

// MonthOf returns the local month the instant sec falls in.
func (c Calendar) MonthOf(sec int64) YearMonth {
	return MonthOfDate(c.FromInstant(sec))
}

// MonthSequence returns count consecutive months ending at end, oldest
// first. It returns nil when count < 1.
func MonthSequence(end YearMonth, count int) []YearMonth {
	if count < 1 {
		return nil
	}
	months := make([]YearMonth, count)
	for i := range months {
		months[i] = end.AddMonths(i - count + 1)
	}
	return months
}

// DateRange is a half-open interval of local days.
type DateRange struct {
	Start Date
	End   Date
	cal   Calendar
}

// Instants returns the range as storage instants [start, end).
func (r DateRange) Instants() (start, end int64) {
	return r.cal.ToInstant(r.Start), r.cal.ToInstant(r.End)
}

// Contains reports whether the storage instant sec lies in the range.
func (r DateRange) Contains(sec int64) bool {
	start, end := r.Instants()
	return sec >= start && sec < end
}

// YearMonth identifies a calendar month independent of any time zone.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth normalizes month overflow, so (2024, 13) is 2025-01.
func NewYearMonth(year int, month time.Month) YearMonth {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// MonthOfDate returns the month d belongs to.
func MonthOfDate(d Date) YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Time.Month()}
}

// AddMonths returns the month n months after ym; n may be negative.
func (ym YearMonth) AddMonths(n int) YearMonth {
	return NewYearMonth(ym.Year, ym.Month+time.Month(n))
}

// Before reports whether ym is earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// String renders ym as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// ParseYearMonth parses YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	y, m, ok := strings.Cut(s, "-")
	if !ok || len(y) != 4 || len(m) < 1 || len(m) > 2 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}
