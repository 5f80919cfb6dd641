package report

import "fmt"

// Growth holds pre-formatted growth-rate strings for the three row metrics.
type Growth struct {
	Orders   string `json:"orders"`
	Revenue  string `json:"revenue"`
	Quantity string `json:"quantity"`
}

// SummaryGrowth is the summary-level variant. These strings omit the trailing
// percent sign; breakdown-row strings carry it. Callers parse both formats,
// so the asymmetry is part of the contract.
type SummaryGrowth struct {
	Orders        string `json:"orders"`
	Revenue       string `json:"revenue"`
	Quantity      string `json:"quantity"`
	AvgOrderValue string `json:"avg_order_value"`
}

// GrowthRate formats the period-over-period change of a metric to one
// decimal place without a percent sign. A zero baseline yields "+100.0" when
// the current value is positive and "0.0" otherwise; an unchanged metric
// yields "0.0".
func GrowthRate(current, previous float64) string {
	if previous == 0 {
		if current > 0 {
			return "+100.0"
		}
		return "0.0"
	}
	pct := (current - previous) / previous * 100
	switch {
	case pct > 0:
		return fmt.Sprintf("+%.1f", pct)
	case pct < 0:
		return fmt.Sprintf("%.1f", pct)
	default:
		return "0.0"
	}
}

// GrowthPercent is GrowthRate with the trailing percent sign used on
// breakdown rows.
func GrowthPercent(current, previous float64) string {
	return GrowthRate(current, previous) + "%"
}

func growthFor(current, previous Metrics) Growth {
	return Growth{
		Orders:   GrowthPercent(float64(current.Orders), float64(previous.Orders)),
		Revenue:  GrowthPercent(current.Revenue, previous.Revenue),
		Quantity: GrowthPercent(current.Quantity, previous.Quantity),
	}
}

func summaryGrowthFor(current, previous Summary) SummaryGrowth {
	return SummaryGrowth{
		Orders:        GrowthRate(float64(current.Orders), float64(previous.Orders)),
		Revenue:       GrowthRate(current.Revenue, previous.Revenue),
		Quantity:      GrowthRate(current.Quantity, previous.Quantity),
		AvgOrderValue: GrowthRate(current.AvgOrderValue, previous.AvgOrderValue),
	}
}

// BreakdownRow is any aggregation row with a natural key.
type BreakdownRow interface {
	Key() string
	Metrics() Metrics
}

// ComparisonRow pairs a current-period row with its counterparts from the
// comparison periods. Rows missing from a comparison period compare against
// zero metrics. PreviousYear and YoYGrowth are populated only for month and
// quarter reports.
type ComparisonRow[R BreakdownRow] struct {
	Current      R        `json:"current"`
	Previous     Metrics  `json:"previous"`
	Growth       Growth   `json:"growth"`
	PreviousYear *Metrics `json:"previous_year,omitempty"`
	YoYGrowth    *Growth  `json:"yoy_growth,omitempty"`
}

// MergeRows joins period-aligned breakdowns by natural key. previousYear may
// be nil for 2-way comparisons.
func MergeRows[R BreakdownRow](current, previous []R, previousYear []R) []ComparisonRow[R] {
	prevByKey := make(map[string]Metrics, len(previous))
	for _, row := range previous {
		prevByKey[row.Key()] = row.Metrics()
	}
	var yoyByKey map[string]Metrics
	if previousYear != nil {
		yoyByKey = make(map[string]Metrics, len(previousYear))
		for _, row := range previousYear {
			yoyByKey[row.Key()] = row.Metrics()
		}
	}

	merged := make([]ComparisonRow[R], 0, len(current))
	for _, row := range current {
		cur := row.Metrics()
		prev := prevByKey[row.Key()]
		out := ComparisonRow[R]{
			Current:  row,
			Previous: prev,
			Growth:   growthFor(cur, prev),
		}
		if yoyByKey != nil {
			yoy := yoyByKey[row.Key()]
			growth := growthFor(cur, yoy)
			out.PreviousYear = &yoy
			out.YoYGrowth = &growth
		}
		merged = append(merged, out)
	}
	return merged
}

// SummaryComparison attaches comparison summaries and growth strings to a
// slice summary.
type SummaryComparison struct {
	Current      Summary        `json:"current"`
	Previous     Summary        `json:"previous"`
	Growth       SummaryGrowth  `json:"growth"`
	PreviousYear *Summary       `json:"previous_year,omitempty"`
	YoYGrowth    *SummaryGrowth `json:"yoy_growth,omitempty"`
}

// CompareSummaries builds the summary comparison block. previousYear may be
// nil for week reports.
func CompareSummaries(current, previous Summary, previousYear *Summary) SummaryComparison {
	out := SummaryComparison{
		Current:  current,
		Previous: previous,
		Growth:   summaryGrowthFor(current, previous),
	}
	if previousYear != nil {
		yoy := summaryGrowthFor(current, *previousYear)
		out.PreviousYear = previousYear
		out.YoYGrowth = &yoy
	}
	return out
}
