package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-ops/meridian-ops/internal/platform/httpx"
	"github.com/meridian-ops/meridian-ops/internal/report"
)

// BuilderService is the report construction contract used by the handler.
type BuilderService interface {
	Build(ctx context.Context, req report.Request) (*report.Report, error)
}

// Handler serves the sales report endpoints.
type Handler struct {
	logger   *slog.Logger
	builder  BuilderService
	validate *validator.Validate
	group    singleflight.Group
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, builder BuilderService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		builder:  builder,
		validate: validator.New(),
	}
}

type weeklyQuery struct {
	Year       int    `validate:"required,gte=2000,lte=2200"`
	Week       int    `validate:"required,gte=1,lte=53"`
	StartDate  string `validate:"required,datetime=2006-01-02"`
	EndDate    string `validate:"required,datetime=2006-01-02"`
	Refinement string `validate:"omitempty,oneof=full clipped-to-month"`
}

type monthlyQuery struct {
	Year  int `validate:"required,gte=2000,lte=2200"`
	Month int `validate:"required,gte=1,lte=12"`
}

type quarterlyQuery struct {
	Year    int `validate:"required,gte=2000,lte=2200"`
	Quarter int `validate:"required,gte=1,lte=4"`
}

func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

// Weekly serves the week-over-week sales report.
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	q := weeklyQuery{
		Year:       queryInt(r, "year"),
		Week:       queryInt(r, "week"),
		StartDate:  r.URL.Query().Get("start_date"),
		EndDate:    r.URL.Query().Get("end_date"),
		Refinement: r.URL.Query().Get("refinement"),
	}
	if err := h.validate.Struct(q); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	start, _ := time.ParseInLocation("2006-01-02", q.StartDate, time.UTC)
	end, _ := time.ParseInLocation("2006-01-02", q.EndDate, time.UTC)

	h.respond(w, r, report.Request{
		Unit:       report.UnitWeek,
		Year:       q.Year,
		Week:       q.Week,
		Start:      start,
		End:        end,
		Refinement: report.WeekRefinement(q.Refinement),
	})
}

// Monthly serves the month-over-month report with year-over-year comparison.
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	q := monthlyQuery{Year: queryInt(r, "year"), Month: queryInt(r, "month")}
	if err := h.validate.Struct(q); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	h.respond(w, r, report.Request{Unit: report.UnitMonth, Year: q.Year, Month: q.Month})
}

// Quarterly serves the quarter report. Concurrent identical requests collapse
// into one build via singleflight; results come from the bounded cache when
// fresh.
func (h *Handler) Quarterly(w http.ResponseWriter, r *http.Request) {
	q := quarterlyQuery{Year: queryInt(r, "year"), Quarter: queryInt(r, "quarter")}
	if err := h.validate.Struct(q); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	key := report.CacheKey(report.UnitQuarter, q.Year, q.Quarter)
	result, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.builder.Build(r.Context(), report.Request{Unit: report.UnitQuarter, Year: q.Year, Quarter: q.Quarter})
	})
	if err != nil {
		h.respondBuildError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, req report.Request) {
	rep, err := h.builder.Build(r.Context(), req)
	if err != nil {
		h.respondBuildError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) respondBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidRequest):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	case errors.Is(err, report.ErrFetchFailed):
		h.logger.Error("report build failed", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
	default:
		h.logger.Error("report build failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
