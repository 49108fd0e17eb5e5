package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildDateSpineLeapYear(t *testing.T) {
	t.Parallel()

	spine := BuildDateSpine(2024, 2024)
	require.Len(t, spine, 366)

	require.Equal(t, "20240101", spine[0].DateKey)
	require.Equal(t, "20241231", spine[len(spine)-1].DateKey)

	// Feb 29 exists and sits at the right day-of-year offset.
	leap := spine[31+28]
	require.Equal(t, "20240229", leap.DateKey)
	require.Equal(t, 60, leap.DayOfYear)
	require.True(t, leap.IsLastDayOfMonth)
}

func TestBuildDateSpineISOFields(t *testing.T) {
	t.Parallel()

	spine := BuildDateSpine(2024, 2025)
	byKey := map[string]int{}
	for i, d := range spine {
		byKey[d.DateKey] = i
	}

	// 2024-12-31 is a Tuesday that already belongs to ISO week 1 of 2025.
	d := spine[byKey["20241231"]]
	require.Equal(t, 1, d.WeekOfYear)
	require.Equal(t, 2, d.DayOfWeek)
	require.Equal(t, "Tuesday", d.DayName)
	require.False(t, d.IsWeekend)
	require.Equal(t, 4, d.Quarter)
	require.Equal(t, "2024-12", d.YearMonth)
	require.Equal(t, "2024-Q4", d.YearQuarter)
	require.True(t, d.IsLastDayOfMonth)
	require.False(t, d.IsFirstDayOfMonth)

	// Sundays map to 7, not 0.
	sun := spine[byKey["20250831"]]
	require.Equal(t, time.Sunday, sun.DateDay.Weekday())
	require.Equal(t, 7, sun.DayOfWeek)
	require.True(t, sun.IsWeekend)
}

func TestBuildDateSpineEmptyRange(t *testing.T) {
	t.Parallel()

	require.Nil(t, BuildDateSpine(2025, 2024))
}
