package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meridian-ops/meridian-ops/internal/orders"
)

// Metrics is the comparable core of every breakdown row.
type Metrics struct {
	Orders   int     `json:"orders"`
	Revenue  float64 `json:"revenue"`
	Quantity float64 `json:"quantity"`
}

// Summary aggregates a whole slice.
type Summary struct {
	Orders        int     `json:"orders"`
	Revenue       float64 `json:"revenue"`
	Quantity      float64 `json:"quantity"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// SiteRow is one sales site within a slice. Sites without a recognized
// channel are dropped from this breakdown.
type SiteRow struct {
	SiteID       string      `json:"site_id"`
	SiteName     string      `json:"site_name"`
	Channel      ChannelType `json:"channel"`
	Orders       int         `json:"orders"`
	Revenue      float64     `json:"revenue"`
	Quantity     float64     `json:"quantity"`
	Rank         int         `json:"rank"`
	RevenueShare float64     `json:"revenue_share"`
}

func (r SiteRow) Key() string { return r.SiteID }

func (r SiteRow) Metrics() Metrics {
	return Metrics{Orders: r.Orders, Revenue: r.Revenue, Quantity: r.Quantity}
}

// CountryRow groups orders by destination country, falling back from
// shipping to billing country and finally to "Unknown".
type CountryRow struct {
	Country           string   `json:"country"`
	Orders            int      `json:"orders"`
	Revenue           float64  `json:"revenue"`
	Quantity          float64  `json:"quantity"`
	RetailQuantity    float64  `json:"retail_quantity"`
	WholesaleQuantity float64  `json:"wholesale_quantity"`
	Sites             []string `json:"sites"`
	Rank              int      `json:"rank"`
}

func (r CountryRow) Key() string { return r.Country }

func (r CountryRow) Metrics() Metrics {
	return Metrics{Orders: r.Orders, Revenue: r.Revenue, Quantity: r.Quantity}
}

// ProductGroupRow groups line items by canonical product group (SPU).
// Revenue here is line-item revenue, not order totals. Multiplier is the
// informational group-level factor chosen by channel dominance; per-item
// conversion always uses the order's own channel.
type ProductGroupRow struct {
	Group       string  `json:"group"`
	SurpriseBox bool    `json:"surprise_box"`
	Orders      int     `json:"orders"`
	Revenue     float64 `json:"revenue"`
	Quantity    float64 `json:"quantity"`
	RawQuantity float64 `json:"raw_quantity"`
	Multiplier  float64 `json:"multiplier"`
	Rank        int     `json:"rank"`
}

func (r ProductGroupRow) Key() string { return r.Group }

func (r ProductGroupRow) Metrics() Metrics {
	return Metrics{Orders: r.Orders, Revenue: r.Revenue, Quantity: r.Quantity}
}

// DayRow groups orders by UTC calendar day with retail/wholesale sub-totals.
type DayRow struct {
	Date              string  `json:"date"`
	Orders            int     `json:"orders"`
	Revenue           float64 `json:"revenue"`
	Quantity          float64 `json:"quantity"`
	RetailOrders      int     `json:"retail_orders"`
	WholesaleOrders   int     `json:"wholesale_orders"`
	RetailRevenue     float64 `json:"retail_revenue"`
	WholesaleRevenue  float64 `json:"wholesale_revenue"`
	RetailQuantity    float64 `json:"retail_quantity"`
	WholesaleQuantity float64 `json:"wholesale_quantity"`
}

func (r DayRow) Key() string { return r.Date }

func (r DayRow) Metrics() Metrics {
	return Metrics{Orders: r.Orders, Revenue: r.Revenue, Quantity: r.Quantity}
}

// WeekRow groups orders by ISO week. Used by quarter reports only.
type WeekRow struct {
	ID                string  `json:"id"`
	ISOYear           int     `json:"iso_year"`
	ISOWeek           int     `json:"iso_week"`
	WeekStart         string  `json:"week_start"`
	WeekEnd           string  `json:"week_end"`
	Label             string  `json:"label"`
	Orders            int     `json:"orders"`
	Revenue           float64 `json:"revenue"`
	Quantity          float64 `json:"quantity"`
	RetailOrders      int     `json:"retail_orders"`
	WholesaleOrders   int     `json:"wholesale_orders"`
	RetailRevenue     float64 `json:"retail_revenue"`
	WholesaleRevenue  float64 `json:"wholesale_revenue"`
	RetailQuantity    float64 `json:"retail_quantity"`
	WholesaleQuantity float64 `json:"wholesale_quantity"`
}

func (r WeekRow) Key() string { return r.ID }

func (r WeekRow) Metrics() Metrics {
	return Metrics{Orders: r.Orders, Revenue: r.Revenue, Quantity: r.Quantity}
}

// SliceAggregate is the aggregation result for one period and one slice.
type SliceAggregate struct {
	Summary        Summary           `json:"summary"`
	BySite         []SiteRow         `json:"by_site"`
	ByCountry      []CountryRow      `json:"by_country"`
	ByProductGroup []ProductGroupRow `json:"by_product_group"`
	ByDay          []DayRow          `json:"by_day"`
	ByWeek         []WeekRow         `json:"by_week,omitempty"`
}

// num guards against malformed monetary and quantity fields.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func countryOf(o orders.Order) string {
	if o.ShippingCountry != "" {
		return o.ShippingCountry
	}
	if o.BillingCountry != "" {
		return o.BillingCountry
	}
	return "Unknown"
}

type groupAccumulator struct {
	row          ProductGroupRow
	retailRaw    float64
	wholesaleRaw float64
	seenOrders   map[string]bool
}

// BuildAggregate rolls one period's order set up into a slice aggregate.
// Order count and revenue count each distinct order id exactly once; line
// item quantity is summed from every record, duplicate or not. Week rows are
// produced only when withWeeks is set (quarter reports).
func BuildAggregate(cfg *Config, list []orders.Order, withWeeks bool) SliceAggregate {
	var summary Summary
	seen := make(map[string]bool, len(list))

	sites := make(map[string]*SiteRow)
	countries := make(map[string]*CountryRow)
	countrySites := make(map[string]map[string]bool)
	groups := make(map[string]*groupAccumulator)
	days := make(map[string]*DayRow)
	weeks := make(map[string]*WeekRow)
	weekSeen := make(map[string]map[string]bool)

	for _, o := range list {
		first := !seen[o.ID]
		seen[o.ID] = true

		total := num(o.Total)
		channel := cfg.ChannelType(o.SiteName)

		var converted float64
		for _, line := range o.Lines {
			qty := num(line.Quantity)
			group, surprise := cfg.ProductGroup(line)
			conv := qty * cfg.Multiplier(group, channel)
			converted += conv

			acc := groups[group]
			if acc == nil {
				acc = &groupAccumulator{
					row:        ProductGroupRow{Group: group, SurpriseBox: surprise},
					seenOrders: make(map[string]bool),
				}
				groups[group] = acc
			}
			acc.row.Revenue += num(line.Total)
			acc.row.Quantity += conv
			acc.row.RawQuantity += qty
			switch channel {
			case ChannelRetail:
				acc.retailRaw += qty
			case ChannelWholesale:
				acc.wholesaleRaw += qty
			}
			if !acc.seenOrders[o.ID] {
				acc.seenOrders[o.ID] = true
				acc.row.Orders++
			}
		}

		if first {
			summary.Orders++
			summary.Revenue += total
		}
		summary.Quantity += converted

		site := sites[o.SiteID]
		if site == nil {
			site = &SiteRow{SiteID: o.SiteID, SiteName: o.SiteName, Channel: channel}
			sites[o.SiteID] = site
		}
		if first {
			site.Orders++
			site.Revenue += total
		}
		site.Quantity += converted

		countryKey := countryOf(o)
		country := countries[countryKey]
		if country == nil {
			country = &CountryRow{Country: countryKey}
			countries[countryKey] = country
			countrySites[countryKey] = make(map[string]bool)
		}
		countrySites[countryKey][o.SiteName] = true
		if first {
			country.Orders++
			country.Revenue += total
		}
		country.Quantity += converted
		switch channel {
		case ChannelRetail:
			country.RetailQuantity += converted
		case ChannelWholesale:
			country.WholesaleQuantity += converted
		}

		dayKey := o.CreatedAt.UTC().Format("2006-01-02")
		day := days[dayKey]
		if day == nil {
			day = &DayRow{Date: dayKey}
			days[dayKey] = day
		}
		if first {
			day.Orders++
			day.Revenue += total
		}
		day.Quantity += converted
		switch channel {
		case ChannelRetail:
			if first {
				day.RetailOrders++
				day.RetailRevenue += total
			}
			day.RetailQuantity += converted
		case ChannelWholesale:
			if first {
				day.WholesaleOrders++
				day.WholesaleRevenue += total
			}
			day.WholesaleQuantity += converted
		}

		if withWeeks {
			monday := mondayOf(o.CreatedAt)
			weekID := WeekKey(monday)
			week := weeks[weekID]
			if week == nil {
				isoYear, isoWeek := ISOWeekOf(monday)
				week = &WeekRow{
					ID:        weekID,
					ISOYear:   isoYear,
					ISOWeek:   isoWeek,
					WeekStart: monday.Format("2006-01-02"),
					WeekEnd:   monday.AddDate(0, 0, 6).Format("2006-01-02"),
					Label:     weekLabel(monday),
				}
				weeks[weekID] = week
				weekSeen[weekID] = make(map[string]bool)
			}
			bucketFirst := !weekSeen[weekID][o.ID]
			weekSeen[weekID][o.ID] = true
			if bucketFirst {
				week.Orders++
				week.Revenue += total
			}
			week.Quantity += converted
			switch channel {
			case ChannelRetail:
				if bucketFirst {
					week.RetailOrders++
					week.RetailRevenue += total
				}
				week.RetailQuantity += converted
			case ChannelWholesale:
				if bucketFirst {
					week.WholesaleOrders++
					week.WholesaleRevenue += total
				}
				week.WholesaleQuantity += converted
			}
		}
	}

	if summary.Orders > 0 {
		summary.AvgOrderValue = summary.Revenue / float64(summary.Orders)
	}

	return SliceAggregate{
		Summary:        summary,
		BySite:         finalizeSites(sites),
		ByCountry:      finalizeCountries(countries, countrySites),
		ByProductGroup: finalizeGroups(cfg, groups),
		ByDay:          finalizeDays(days),
		ByWeek:         finalizeWeeks(weeks),
	}
}

// weekLabel renders the human label for a week from its Monday, e.g. the
// third week of March becomes "3月第3周".
func weekLabel(monday time.Time) string {
	month := int(monday.Month())
	nth := (monday.Day()-1)/7 + 1
	return fmt.Sprintf("%d月第%d周", month, nth)
}

func finalizeSites(sites map[string]*SiteRow) []SiteRow {
	rows := make([]SiteRow, 0, len(sites))
	var total float64
	for _, row := range sites {
		if row.Channel == ChannelNone {
			continue
		}
		rows = append(rows, *row)
		total += row.Revenue
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].SiteID < rows[j].SiteID
	})
	for i := range rows {
		rows[i].Rank = i + 1
		if total > 0 {
			rows[i].RevenueShare = rows[i].Revenue / total * 100
		}
	}
	return rows
}

func finalizeCountries(countries map[string]*CountryRow, contributors map[string]map[string]bool) []CountryRow {
	rows := make([]CountryRow, 0, len(countries))
	for key, row := range countries {
		names := make([]string, 0, len(contributors[key]))
		for name := range contributors[key] {
			names = append(names, name)
		}
		sort.Strings(names)
		row.Sites = names
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].Country < rows[j].Country
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func finalizeGroups(cfg *Config, groups map[string]*groupAccumulator) []ProductGroupRow {
	rows := make([]ProductGroupRow, 0, len(groups))
	for _, acc := range groups {
		row := acc.row
		// The dominant channel's multiplier is reported at group level; ties
		// go to retail.
		if acc.retailRaw >= acc.wholesaleRaw {
			row.Multiplier = cfg.Multiplier(row.Group, ChannelRetail)
		} else {
			row.Multiplier = cfg.Multiplier(row.Group, ChannelWholesale)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].Group < rows[j].Group
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func finalizeDays(days map[string]*DayRow) []DayRow {
	rows := make([]DayRow, 0, len(days))
	for _, row := range days {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

func finalizeWeeks(weeks map[string]*WeekRow) []WeekRow {
	if len(weeks) == 0 {
		return nil
	}
	rows := make([]WeekRow, 0, len(weeks))
	for _, row := range weeks {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].WeekStart < rows[j].WeekStart })
	return rows
}
