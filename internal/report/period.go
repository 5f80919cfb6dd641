package report

import (
	"fmt"
	"time"
)

// PeriodUnit identifies the reporting granularity.
type PeriodUnit string

const (
	UnitWeek    PeriodUnit = "week"
	UnitMonth   PeriodUnit = "month"
	UnitQuarter PeriodUnit = "quarter"
)

// WeekRefinement controls how a caller-supplied week window is adjusted.
type WeekRefinement string

const (
	// RefinementFull keeps the caller-supplied seven day window untouched.
	RefinementFull WeekRefinement = "full"
	// RefinementClipMonth clips the window to the calendar month of its start day.
	RefinementClipMonth WeekRefinement = "clipped-to-month"
)

// Period is one concrete reporting window. Start and End are closed-inclusive
// UTC instants: Start at 00:00:00.000 and End at 23:59:59.999.
type Period struct {
	Year  int        `json:"year"`
	Unit  PeriodUnit `json:"unit"`
	Index int        `json:"index"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

// PeriodSet bundles the current window with its comparison windows.
// PreviousYear is nil for week reports.
type PeriodSet struct {
	Current      Period  `json:"current"`
	Previous     Period  `json:"previous"`
	PreviousYear *Period `json:"previous_year,omitempty"`
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func firstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func lastOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, -1)
}

// ISOWeekOf returns the ISO-8601 week-year and week number for t. Dates near a
// year boundary resolve to the year of the Thursday of their week, so
// 2024-12-31 belongs to week 1 of 2025.
func ISOWeekOf(t time.Time) (isoYear, isoWeek int) {
	return t.UTC().ISOWeek()
}

// WeekKey renders the ISO week identity as "{isoYear}-W{isoWeek}".
func WeekKey(t time.Time) string {
	year, week := ISOWeekOf(t)
	return fmt.Sprintf("%d-W%d", year, week)
}

func clipToMonth(start, end time.Time) (time.Time, time.Time) {
	monthFirst := firstOfMonth(start)
	monthLast := lastOfMonth(start)
	if start.Before(monthFirst) {
		start = monthFirst
	}
	if end.After(monthLast) {
		end = monthLast
	}
	return start, end
}

// ResolveWeek builds the current and previous periods for a week report. The
// caller supplies the selected week's date range; the previous window is the
// same range shifted back seven days, with the clipping rule re-applied
// against the shifted window's own month.
func ResolveWeek(year, week int, start, end time.Time, mode WeekRefinement) PeriodSet {
	curStart, curEnd := startOfDay(start), startOfDay(end)
	prevStart, prevEnd := curStart.AddDate(0, 0, -7), curEnd.AddDate(0, 0, -7)

	if mode == RefinementClipMonth {
		curStart, curEnd = clipToMonth(curStart, curEnd)
		prevStart, prevEnd = clipToMonth(prevStart, prevEnd)
	}

	prevYear, prevWeek := ISOWeekOf(prevStart)
	return PeriodSet{
		Current: Period{
			Year:  year,
			Unit:  UnitWeek,
			Index: week,
			Start: curStart,
			End:   endOfDay(curEnd),
		},
		Previous: Period{
			Year:  prevYear,
			Unit:  UnitWeek,
			Index: prevWeek,
			Start: prevStart,
			End:   endOfDay(prevEnd),
		},
	}
}

func monthPeriod(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Year:  year,
		Unit:  UnitMonth,
		Index: month,
		Start: start,
		End:   endOfDay(lastOfMonth(start)),
	}
}

// ResolveMonth builds current, previous and previous-year periods for a
// month report. Month 1 wraps to December of the prior year.
func ResolveMonth(year, month int) PeriodSet {
	prevYear, prevMonth := year, month-1
	if prevMonth < 1 {
		prevYear, prevMonth = year-1, 12
	}
	py := monthPeriod(year-1, month)
	return PeriodSet{
		Current:      monthPeriod(year, month),
		Previous:     monthPeriod(prevYear, prevMonth),
		PreviousYear: &py,
	}
}

func quarterPeriod(year, quarter int) Period {
	startMonth := (quarter-1)*3 + 1
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	return Period{
		Year:  year,
		Unit:  UnitQuarter,
		Index: quarter,
		Start: start,
		End:   endOfDay(end),
	}
}

// ResolveQuarter builds current, previous and previous-year periods for a
// quarter report. Quarter 1 wraps to quarter 4 of the prior year.
func ResolveQuarter(year, quarter int) PeriodSet {
	prevYear, prevQuarter := year, quarter-1
	if prevQuarter < 1 {
		prevYear, prevQuarter = year-1, 4
	}
	py := quarterPeriod(year-1, quarter)
	return PeriodSet{
		Current:      quarterPeriod(year, quarter),
		Previous:     quarterPeriod(prevYear, prevQuarter),
		PreviousYear: &py,
	}
}

// mondayOf returns the Monday of t's ISO week.
func mondayOf(t time.Time) time.Time {
	t = startOfDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return t.AddDate(0, 0, 1-weekday)
}
