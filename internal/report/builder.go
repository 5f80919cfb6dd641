package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-ops/meridian-ops/internal/orders"
)

// ErrInvalidRequest flags malformed period parameters. The request is
// rejected before any fetch occurs.
var ErrInvalidRequest = errors.New("report: invalid request")

// ErrFetchFailed wraps order-source failures. Any period failing to fetch
// aborts the whole request; no partial report is returned.
var ErrFetchFailed = errors.New("report: order fetch failed")

// OrderSource fetches the raw order set for one period. Pagination and rate
// limiting are the source's concern; the returned list is read fully before
// aggregation and is de-duplicatable by order id.
type OrderSource interface {
	FetchOrders(ctx context.Context, start, end time.Time) ([]orders.Order, error)
}

// Request selects the reporting window. For week reports the caller supplies
// the selected week's explicit date range plus a refinement mode.
type Request struct {
	Unit       PeriodUnit
	Year       int
	Week       int
	Start      time.Time
	End        time.Time
	Refinement WeekRefinement
	Month      int
	Quarter    int
}

// Validate rejects out-of-range period parameters.
func (r Request) Validate() error {
	if r.Year < 2000 || r.Year > 2200 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidRequest, r.Year)
	}
	switch r.Unit {
	case UnitWeek:
		if r.Week < 1 || r.Week > 53 {
			return fmt.Errorf("%w: week %d out of range", ErrInvalidRequest, r.Week)
		}
		if r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start) {
			return fmt.Errorf("%w: week date range missing or inverted", ErrInvalidRequest)
		}
		if r.Refinement != "" && r.Refinement != RefinementFull && r.Refinement != RefinementClipMonth {
			return fmt.Errorf("%w: unknown refinement %q", ErrInvalidRequest, r.Refinement)
		}
	case UnitMonth:
		if r.Month < 1 || r.Month > 12 {
			return fmt.Errorf("%w: month %d out of range", ErrInvalidRequest, r.Month)
		}
	case UnitQuarter:
		if r.Quarter < 1 || r.Quarter > 4 {
			return fmt.Errorf("%w: quarter %d out of range", ErrInvalidRequest, r.Quarter)
		}
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRequest, r.Unit)
	}
	return nil
}

func (r Request) index() int {
	switch r.Unit {
	case UnitWeek:
		return r.Week
	case UnitMonth:
		return r.Month
	default:
		return r.Quarter
	}
}

// sliceSpec declares one brand/channel combination processed by the builder.
// Empty Brand or Channel means unfiltered. The grand-total slice concatenates
// the three brand buckets instead of reusing the unfiltered set: sites outside
// every brand table are excluded from it while still counting toward "all",
// so the two totals can legitimately differ.
type sliceSpec struct {
	Name       string
	Brand      BrandGroup
	Channel    ChannelType
	GrandTotal bool
}

var reportSlices = []sliceSpec{
	{Name: "all"},
	{Name: "all_retail", Channel: ChannelRetail},
	{Name: "all_wholesale", Channel: ChannelWholesale},
	{Name: "primary", Brand: BrandPrimary},
	{Name: "primary_retail", Brand: BrandPrimary, Channel: ChannelRetail},
	{Name: "primary_wholesale", Brand: BrandPrimary, Channel: ChannelWholesale},
	{Name: "partner", Brand: BrandPartner},
	{Name: "other", Brand: BrandOther},
	{Name: "grand_total", GrandTotal: true},
}

// ChannelBlock compares one sales channel across periods.
type ChannelBlock struct {
	Channel ChannelType       `json:"channel"`
	Summary SummaryComparison `json:"summary"`
}

// BrandBlock compares one brand group across periods.
type BrandBlock struct {
	Brand   BrandGroup        `json:"brand"`
	Summary SummaryComparison `json:"summary"`
}

// WeekTrends carries the raw week breakdowns per period for quarter reports.
type WeekTrends struct {
	Current      []WeekRow `json:"current"`
	Previous     []WeekRow `json:"previous"`
	PreviousYear []WeekRow `json:"previous_year,omitempty"`
}

// SliceReport is the detailed block for one brand/channel slice.
type SliceReport struct {
	Name                 string                        `json:"name"`
	Brand                BrandGroup                    `json:"brand,omitempty"`
	Channel              ChannelType                   `json:"channel,omitempty"`
	Summary              SummaryComparison             `json:"summary"`
	BySite               []ComparisonRow[SiteRow]      `json:"by_site"`
	ByCountry            []ComparisonRow[CountryRow]   `json:"by_country"`
	ByProductGroup       []ComparisonRow[ProductGroupRow] `json:"by_product_group"`
	ByDay                []ComparisonRow[DayRow]       `json:"by_day"`
	PreviousDayTrend     []DayRow                      `json:"previous_day_trend"`
	PreviousYearDayTrend []DayRow                      `json:"previous_year_day_trend,omitempty"`
	ByWeek               []ComparisonRow[WeekRow]      `json:"by_week,omitempty"`
	WeekTrends           *WeekTrends                   `json:"week_trends,omitempty"`
}

// Report is the assembled response for one request.
type Report struct {
	Kind        PeriodUnit        `json:"kind"`
	Year        int               `json:"year"`
	Index       int               `json:"index"`
	Periods     PeriodSet         `json:"periods"`
	Summary     SummaryComparison `json:"summary"`
	Channels    []ChannelBlock    `json:"channels"`
	Brands      []BrandBlock      `json:"brands"`
	Slices      []SliceReport     `json:"slices"`
	Cached      bool              `json:"cached"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// BuilderMetrics receives build observations. Implemented by the
// observability package; nil-safe from the builder's side.
type BuilderMetrics interface {
	ReportBuilt(kind string, elapsed time.Duration)
	ReportCacheHit(kind string)
	ReportCacheMiss(kind string)
}

// Builder orchestrates period resolution, concurrent order fetches, slice
// aggregation and comparison, and final assembly.
type Builder struct {
	source  OrderSource
	cfg     *Config
	cache   *Cache
	logger  *slog.Logger
	metrics BuilderMetrics
	clock   func() time.Time
}

// NewBuilder wires the report builder. cache may be nil to disable caching;
// metrics may be nil.
func NewBuilder(source OrderSource, cfg *Config, cache *Cache, logger *slog.Logger, metrics BuilderMetrics) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		source:  source,
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Build produces the full report for a request. Any period fetch failure
// aborts the whole request; classification misses never do.
func (b *Builder) Build(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	periods := b.resolve(req)

	cacheKey := CacheKey(req.Unit, req.Year, req.index())
	if req.Unit == UnitQuarter && b.cache != nil {
		if cached, ok := b.cache.Get(cacheKey); ok {
			if b.metrics != nil {
				b.metrics.ReportCacheHit(string(req.Unit))
			}
			hit := *cached
			hit.Cached = true
			return &hit, nil
		}
		if b.metrics != nil {
			b.metrics.ReportCacheMiss(string(req.Unit))
		}
	}

	started := b.clock()
	current, previous, previousYear, err := b.fetchPeriods(ctx, periods)
	if err != nil {
		return nil, err
	}

	withWeeks := req.Unit == UnitQuarter
	withYoY := periods.PreviousYear != nil

	slices := make([]SliceReport, 0, len(reportSlices))
	for _, spec := range reportSlices {
		slices = append(slices, b.buildSlice(spec, current, previous, previousYear, withWeeks, withYoY))
	}

	rep := &Report{
		Kind:        req.Unit,
		Year:        req.Year,
		Index:       req.index(),
		Periods:     periods,
		Slices:      slices,
		GeneratedAt: b.clock(),
	}
	rep.Summary = findSlice(slices, "grand_total").Summary
	rep.Channels = []ChannelBlock{
		{Channel: ChannelRetail, Summary: findSlice(slices, "all_retail").Summary},
		{Channel: ChannelWholesale, Summary: findSlice(slices, "all_wholesale").Summary},
	}
	rep.Brands = []BrandBlock{
		{Brand: BrandPrimary, Summary: findSlice(slices, "primary").Summary},
		{Brand: BrandPartner, Summary: findSlice(slices, "partner").Summary},
		{Brand: BrandOther, Summary: findSlice(slices, "other").Summary},
	}

	if req.Unit == UnitQuarter && b.cache != nil {
		b.cache.Set(cacheKey, rep)
	}
	elapsed := b.clock().Sub(started)
	if b.metrics != nil {
		b.metrics.ReportBuilt(string(req.Unit), elapsed)
	}
	b.logger.Info("report built",
		slog.String("kind", string(req.Unit)),
		slog.Int("year", req.Year),
		slog.Int("index", req.index()),
		slog.Duration("elapsed", elapsed),
	)
	return rep, nil
}

func (b *Builder) resolve(req Request) PeriodSet {
	switch req.Unit {
	case UnitWeek:
		mode := req.Refinement
		if mode == "" {
			mode = RefinementFull
		}
		return ResolveWeek(req.Year, req.Week, req.Start, req.End, mode)
	case UnitMonth:
		return ResolveMonth(req.Year, req.Month)
	default:
		return ResolveQuarter(req.Year, req.Quarter)
	}
}

func (b *Builder) fetchPeriods(ctx context.Context, periods PeriodSet) (current, previous, previousYear []orders.Order, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ferr error
		current, ferr = b.source.FetchOrders(gctx, periods.Current.Start, periods.Current.End)
		return ferr
	})
	g.Go(func() error {
		var ferr error
		previous, ferr = b.source.FetchOrders(gctx, periods.Previous.Start, periods.Previous.End)
		return ferr
	})
	if periods.PreviousYear != nil {
		py := *periods.PreviousYear
		g.Go(func() error {
			var ferr error
			previousYear, ferr = b.source.FetchOrders(gctx, py.Start, py.End)
			return ferr
		})
	}
	if werr := g.Wait(); werr != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrFetchFailed, werr)
	}
	return current, previous, previousYear, nil
}

func (b *Builder) buildSlice(spec sliceSpec, current, previous, previousYear []orders.Order, withWeeks, withYoY bool) SliceReport {
	cur := BuildAggregate(b.cfg, b.applySlice(spec, current), withWeeks)
	prev := BuildAggregate(b.cfg, b.applySlice(spec, previous), withWeeks)
	var py *SliceAggregate
	if withYoY {
		agg := BuildAggregate(b.cfg, b.applySlice(spec, previousYear), withWeeks)
		py = &agg
	}

	out := SliceReport{
		Name:             spec.Name,
		Brand:            spec.Brand,
		Channel:          spec.Channel,
		PreviousDayTrend: prev.ByDay,
	}
	var pySummary *Summary
	var pySites []SiteRow
	var pyCountries []CountryRow
	var pyGroups []ProductGroupRow
	var pyDays []DayRow
	if py != nil {
		pySummary = &py.Summary
		pySites = py.BySite
		pyCountries = py.ByCountry
		pyGroups = py.ByProductGroup
		pyDays = py.ByDay
		out.PreviousYearDayTrend = py.ByDay
	}
	out.Summary = CompareSummaries(cur.Summary, prev.Summary, pySummary)
	out.BySite = MergeRows(cur.BySite, prev.BySite, pySites)
	out.ByCountry = MergeRows(cur.ByCountry, prev.ByCountry, pyCountries)
	out.ByProductGroup = MergeRows(cur.ByProductGroup, prev.ByProductGroup, pyGroups)
	out.ByDay = MergeRows(cur.ByDay, prev.ByDay, pyDays)

	if withWeeks {
		var pyWeeks []WeekRow
		trends := &WeekTrends{Current: cur.ByWeek, Previous: prev.ByWeek}
		if py != nil {
			pyWeeks = py.ByWeek
			if pyWeeks == nil {
				pyWeeks = []WeekRow{}
			}
			trends.PreviousYear = py.ByWeek
		}
		out.ByWeek = MergeRows(cur.ByWeek, prev.ByWeek, pyWeeks)
		out.WeekTrends = trends
	}
	return out
}

// applySlice filters one period's order set down to a slice's brand and
// channel. The grand-total slice concatenates the brand buckets.
func (b *Builder) applySlice(spec sliceSpec, list []orders.Order) []orders.Order {
	if spec.GrandTotal {
		out := make([]orders.Order, 0, len(list))
		for _, brand := range []BrandGroup{BrandPrimary, BrandPartner, BrandOther} {
			out = append(out, b.filterOrders(list, brand, "")...)
		}
		return out
	}
	return b.filterOrders(list, spec.Brand, spec.Channel)
}

func (b *Builder) filterOrders(list []orders.Order, brand BrandGroup, channel ChannelType) []orders.Order {
	if brand == "" && channel == "" {
		return list
	}
	out := make([]orders.Order, 0, len(list))
	for _, o := range list {
		if brand != "" && b.cfg.BrandGroup(o.SiteName) != brand {
			continue
		}
		if channel != "" && b.cfg.ChannelType(o.SiteName) != channel {
			continue
		}
		out = append(out, o)
	}
	return out
}

func findSlice(slices []SliceReport, name string) SliceReport {
	for _, s := range slices {
		if s.Name == name {
			return s
		}
	}
	return SliceReport{}
}
