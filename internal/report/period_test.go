package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWeekFull(t *testing.T) {
	set := ResolveWeek(2025, 10, date(2025, time.March, 3), date(2025, time.March, 9), RefinementFull)

	require.Equal(t, date(2025, time.March, 3), set.Current.Start)
	require.Equal(t, 2025, set.Current.Year)
	require.Equal(t, 10, set.Current.Index)
	require.Equal(t, 23, set.Current.End.Hour())
	require.Equal(t, 59, set.Current.End.Minute())
	require.Equal(t, 59, set.Current.End.Second())
	require.Equal(t, int(999*time.Millisecond), set.Current.End.Nanosecond())

	require.Equal(t, date(2025, time.February, 24), set.Previous.Start)
	require.Equal(t, 9, set.Previous.Index)
	require.Equal(t, 2025, set.Previous.Year)
	require.Nil(t, set.PreviousYear)

	// Consecutive windows must not overlap and must not leave a gap larger
	// than the millisecond between .999 and the next midnight.
	require.True(t, set.Previous.End.Before(set.Current.Start))
	require.Equal(t, time.Millisecond, set.Current.Start.Sub(set.Previous.End))
}

func TestResolveWeekClippedToMonth(t *testing.T) {
	// The selected week straddles April/May; clipping confines the current
	// window to May and the shifted previous window to April.
	set := ResolveWeek(2025, 19, date(2025, time.May, 5), date(2025, time.May, 11), RefinementClipMonth)

	require.Equal(t, date(2025, time.May, 5), set.Current.Start)
	require.Equal(t, 11, set.Current.End.Day())
	require.Equal(t, time.May, set.Current.End.Month())

	require.Equal(t, date(2025, time.April, 28), set.Previous.Start)
	require.Equal(t, time.April, set.Previous.End.Month())
	require.Equal(t, 30, set.Previous.End.Day())
	require.Equal(t, 18, set.Previous.Index)
}

func TestISOWeekYearBoundary(t *testing.T) {
	year, week := ISOWeekOf(date(2024, time.December, 31))
	require.Equal(t, 2025, year)
	require.Equal(t, 1, week)
	require.Equal(t, "2025-W1", WeekKey(date(2024, time.December, 31)))
}

func TestResolveMonthWrapsToPriorYear(t *testing.T) {
	set := ResolveMonth(2025, 1)

	require.Equal(t, date(2025, time.January, 1), set.Current.Start)
	require.Equal(t, 2024, set.Previous.Year)
	require.Equal(t, 12, set.Previous.Index)
	require.Equal(t, date(2024, time.December, 1), set.Previous.Start)

	require.NotNil(t, set.PreviousYear)
	require.Equal(t, 2024, set.PreviousYear.Year)
	require.Equal(t, 1, set.PreviousYear.Index)
}

func TestResolveMonthLeapFebruary(t *testing.T) {
	set := ResolveMonth(2024, 2)
	require.Equal(t, 29, set.Current.End.Day())
	require.Equal(t, time.February, set.Current.End.Month())
}

func TestResolveQuarterWrapsToPriorYear(t *testing.T) {
	set := ResolveQuarter(2025, 1)

	require.Equal(t, date(2025, time.January, 1), set.Current.Start)
	require.Equal(t, time.March, set.Current.End.Month())
	require.Equal(t, 31, set.Current.End.Day())

	require.Equal(t, 2024, set.Previous.Year)
	require.Equal(t, 4, set.Previous.Index)
	require.Equal(t, date(2024, time.October, 1), set.Previous.Start)
	require.Equal(t, 31, set.Previous.End.Day())
	require.Equal(t, time.December, set.Previous.End.Month())

	require.NotNil(t, set.PreviousYear)
	require.Equal(t, 2024, set.PreviousYear.Year)
	require.Equal(t, 1, set.PreviousYear.Index)
}

func TestMondayOf(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	require.Equal(t, date(2025, time.March, 3), mondayOf(date(2025, time.March, 9)))
	require.Equal(t, date(2025, time.March, 3), mondayOf(date(2025, time.March, 3)))
}
