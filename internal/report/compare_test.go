package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrowthRateFormatting(t *testing.T) {
	cases := []struct {
		current, previous float64
		want              string
	}{
		{0, 0, "0.0"},
		{5, 0, "+100.0"},
		{100, 100, "0.0"},
		{150, 100, "+50.0"},
		{50, 100, "-50.0"},
		{100, 3, "+3233.3"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, GrowthRate(tc.current, tc.previous))
		require.Equal(t, tc.want+"%", GrowthPercent(tc.current, tc.previous))
	}
}

func TestMergeRowsPairsByKey(t *testing.T) {
	current := []SiteRow{
		{SiteID: "s1", Revenue: 200, Orders: 4, Quantity: 10},
		{SiteID: "s2", Revenue: 100, Orders: 1, Quantity: 2},
	}
	previous := []SiteRow{
		{SiteID: "s1", Revenue: 100, Orders: 2, Quantity: 10},
	}

	rows := MergeRows(current, previous, nil)
	require.Len(t, rows, 2)

	require.Equal(t, "s1", rows[0].Current.SiteID)
	require.Equal(t, 100.0, rows[0].Previous.Revenue)
	require.Equal(t, "+100.0%", rows[0].Growth.Revenue)
	require.Equal(t, "+100.0%", rows[0].Growth.Orders)
	require.Equal(t, "0.0%", rows[0].Growth.Quantity)
	require.Nil(t, rows[0].PreviousYear)
	require.Nil(t, rows[0].YoYGrowth)

	// s2 is new: it compares against zero metrics.
	require.Equal(t, Metrics{}, rows[1].Previous)
	require.Equal(t, "+100.0%", rows[1].Growth.Revenue)
}

func TestMergeRowsIdenticalPeriodsAreFlat(t *testing.T) {
	rows := []SiteRow{{SiteID: "s1", Revenue: 100, Orders: 2, Quantity: 5}}
	merged := MergeRows(rows, rows, rows)
	require.Len(t, merged, 1)
	require.Equal(t, "0.0%", merged[0].Growth.Revenue)
	require.Equal(t, "0.0%", merged[0].Growth.Orders)
	require.NotNil(t, merged[0].YoYGrowth)
	require.Equal(t, "0.0%", merged[0].YoYGrowth.Revenue)
}

func TestMergeRowsPopulatesYoYForEmptyNonNilBaseline(t *testing.T) {
	current := []SiteRow{{SiteID: "s1", Revenue: 100, Orders: 1, Quantity: 1}}
	merged := MergeRows(current, nil, []SiteRow{})
	require.NotNil(t, merged[0].PreviousYear)
	require.Equal(t, "+100.0%", merged[0].YoYGrowth.Revenue)
}

func TestCompareSummaries(t *testing.T) {
	current := Summary{Orders: 2, Revenue: 300, Quantity: 6, AvgOrderValue: 150}
	previous := Summary{Orders: 4, Revenue: 200, Quantity: 6, AvgOrderValue: 50}

	cmp := CompareSummaries(current, previous, nil)
	// Summary-level strings carry no percent sign.
	require.Equal(t, "-50.0", cmp.Growth.Orders)
	require.Equal(t, "+50.0", cmp.Growth.Revenue)
	require.Equal(t, "0.0", cmp.Growth.Quantity)
	require.Equal(t, "+200.0", cmp.Growth.AvgOrderValue)
	require.Nil(t, cmp.PreviousYear)

	yoy := Summary{Orders: 2, Revenue: 300, Quantity: 6, AvgOrderValue: 150}
	cmp = CompareSummaries(current, previous, &yoy)
	require.NotNil(t, cmp.YoYGrowth)
	require.Equal(t, "0.0", cmp.YoYGrowth.Revenue)
}
