package report

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-ops/meridian-ops/internal/orders"
)

func order(id, siteID, siteName string, total float64, created time.Time, lines ...orders.LineItem) orders.Order {
	return orders.Order{
		ID:        id,
		SiteID:    siteID,
		SiteName:  siteName,
		Status:    orders.OrderStatusCompleted,
		Total:     total,
		CreatedAt: created,
		Lines:     lines,
	}
}

func TestBuildAggregateDeduplicatesOrders(t *testing.T) {
	cfg := testConfig()
	created := date(2025, time.March, 5)

	// The same order fetched from two pages: count and revenue once, line
	// quantity from every record.
	list := []orders.Order{
		order("1", "s1", "Meridian Store", 100, created, orders.LineItem{Name: "Oak Shelf", Quantity: 2, Total: 50}),
		order("1", "s1", "Meridian Store", 100, created, orders.LineItem{Name: "Oak Shelf", Quantity: 2, Total: 50}),
	}

	agg := BuildAggregate(cfg, list, false)
	require.Equal(t, 1, agg.Summary.Orders)
	require.Equal(t, 100.0, agg.Summary.Revenue)
	require.Equal(t, 4.0, agg.Summary.Quantity)
	require.Equal(t, 100.0, agg.Summary.AvgOrderValue)

	require.Len(t, agg.BySite, 1)
	require.Equal(t, 1, agg.BySite[0].Orders)
	require.Equal(t, 100.0, agg.BySite[0].Revenue)

	require.Len(t, agg.ByProductGroup, 1)
	require.Equal(t, "Oak Shelf", agg.ByProductGroup[0].Group)
	require.Equal(t, 1, agg.ByProductGroup[0].Orders)
	require.Equal(t, 100.0, agg.ByProductGroup[0].Revenue)
	require.Equal(t, 4.0, agg.ByProductGroup[0].RawQuantity)
}

func TestBuildAggregateRankingAndShares(t *testing.T) {
	cfg := testConfig()
	cfg.RetailSites["Meridian US"] = true
	created := date(2025, time.March, 5)

	list := []orders.Order{
		order("1", "s1", "Meridian Store", 300, created),
		order("2", "s2", "Meridian EU", 100, created),
		order("3", "s3", "Meridian US", 100, created),
	}

	agg := BuildAggregate(cfg, list, false)
	require.Len(t, agg.BySite, 3)
	require.Equal(t, []int{1, 2, 3}, []int{agg.BySite[0].Rank, agg.BySite[1].Rank, agg.BySite[2].Rank})
	require.Equal(t, "s1", agg.BySite[0].SiteID)
	require.InDelta(t, 60.0, agg.BySite[0].RevenueShare, 1e-9)
	require.InDelta(t, 20.0, agg.BySite[1].RevenueShare, 1e-9)
	require.InDelta(t, 20.0, agg.BySite[2].RevenueShare, 1e-9)
	// Revenue ties break on site id for a stable order.
	require.Equal(t, "s2", agg.BySite[1].SiteID)
	require.Equal(t, "s3", agg.BySite[2].SiteID)
}

func TestBuildAggregateDropsUnchanneledSitesFromBreakdown(t *testing.T) {
	cfg := testConfig()
	created := date(2025, time.March, 5)

	list := []orders.Order{
		order("1", "s1", "Meridian Store", 100, created),
		order("2", "s9", "Pop-up Kiosk", 40, created),
	}

	agg := BuildAggregate(cfg, list, false)
	// The kiosk order still counts toward the summary but owns no site row.
	require.Equal(t, 2, agg.Summary.Orders)
	require.Equal(t, 140.0, agg.Summary.Revenue)
	require.Len(t, agg.BySite, 1)
	require.Equal(t, "s1", agg.BySite[0].SiteID)
	require.InDelta(t, 100.0, agg.BySite[0].RevenueShare, 1e-9)
}

func TestBuildAggregateCountryFallback(t *testing.T) {
	cfg := testConfig()
	created := date(2025, time.March, 5)

	shipped := order("1", "s1", "Meridian Store", 100, created)
	shipped.ShippingCountry = "DE"
	shipped.BillingCountry = "FR"
	billed := order("2", "s1", "Meridian Store", 50, created)
	billed.BillingCountry = "FR"
	blank := order("3", "s1", "Meridian Store", 25, created)

	agg := BuildAggregate(cfg, []orders.Order{shipped, billed, blank}, false)
	require.Len(t, agg.ByCountry, 3)
	require.Equal(t, "DE", agg.ByCountry[0].Country)
	require.Equal(t, 1, agg.ByCountry[0].Rank)
	require.Equal(t, "FR", agg.ByCountry[1].Country)
	require.Equal(t, "Unknown", agg.ByCountry[2].Country)
	require.Equal(t, []string{"Meridian Store"}, agg.ByCountry[0].Sites)
}

func TestBuildAggregateQuantityConversion(t *testing.T) {
	cfg := testConfig()
	created := date(2025, time.March, 5)

	retail := order("1", "s1", "Meridian Store", 100, created,
		orders.LineItem{Name: "Aurora Lamp", Quantity: 2, Total: 100})
	wholesale := order("2", "s2", "Meridian B2B", 600, created,
		orders.LineItem{Name: "Aurora Lamp", Quantity: 3, Total: 600})

	agg := BuildAggregate(cfg, []orders.Order{retail, wholesale}, false)
	// Retail units count 1:1, wholesale cartons expand by the table factor.
	require.Equal(t, 2.0+3*6, agg.Summary.Quantity)

	require.Len(t, agg.ByProductGroup, 1)
	row := agg.ByProductGroup[0]
	require.Equal(t, "Aurora", row.Group)
	require.Equal(t, 5.0, row.RawQuantity)
	require.Equal(t, 20.0, row.Quantity)
	// 3 wholesale raw vs 2 retail raw: the wholesale factor is reported.
	require.Equal(t, 6.0, row.Multiplier)
}

func TestBuildAggregateDayRows(t *testing.T) {
	cfg := testConfig()

	list := []orders.Order{
		order("1", "s1", "Meridian Store", 100, time.Date(2025, time.March, 5, 23, 30, 0, 0, time.UTC)),
		order("2", "s2", "Meridian B2B", 200, date(2025, time.March, 6)),
		order("3", "s1", "Meridian Store", 50, date(2025, time.March, 6)),
	}

	agg := BuildAggregate(cfg, list, false)
	require.Len(t, agg.ByDay, 2)
	require.Equal(t, "2025-03-05", agg.ByDay[0].Date)
	require.Equal(t, "2025-03-06", agg.ByDay[1].Date)
	require.Equal(t, 1, agg.ByDay[1].RetailOrders)
	require.Equal(t, 1, agg.ByDay[1].WholesaleOrders)
	require.Equal(t, 50.0, agg.ByDay[1].RetailRevenue)
	require.Equal(t, 200.0, agg.ByDay[1].WholesaleRevenue)
}

func TestBuildAggregateWeekRows(t *testing.T) {
	cfg := testConfig()

	list := []orders.Order{
		order("1", "s1", "Meridian Store", 100, date(2025, time.March, 5)),
		order("2", "s1", "Meridian Store", 50, date(2025, time.March, 9)), // Sunday, same ISO week
		order("3", "s1", "Meridian Store", 75, date(2025, time.March, 10)),
	}

	agg := BuildAggregate(cfg, list, true)
	require.Len(t, agg.ByWeek, 2)

	first := agg.ByWeek[0]
	require.Equal(t, "2025-W10", first.ID)
	require.Equal(t, "2025-03-03", first.WeekStart)
	require.Equal(t, "2025-03-09", first.WeekEnd)
	require.Equal(t, "3月第1周", first.Label)
	require.Equal(t, 2, first.Orders)
	require.Equal(t, 150.0, first.Revenue)

	require.Equal(t, "2025-W11", agg.ByWeek[1].ID)
	require.Equal(t, "3月第2周", agg.ByWeek[1].Label)

	// No week rows unless asked for.
	require.Nil(t, BuildAggregate(cfg, list, false).ByWeek)
}

func TestBuildAggregateGuardsMalformedNumbers(t *testing.T) {
	cfg := testConfig()
	bad := order("1", "s1", "Meridian Store", math.NaN(), date(2025, time.March, 5),
		orders.LineItem{Name: "Oak Shelf", Quantity: math.Inf(1), Total: 10})

	agg := BuildAggregate(cfg, []orders.Order{bad}, false)
	require.Equal(t, 0.0, agg.Summary.Revenue)
	require.Equal(t, 0.0, agg.Summary.Quantity)
	require.Equal(t, 1, agg.Summary.Orders)
}
