package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ops/meridian-ops/internal/report"
)

type stubBuilder struct {
	lastReq report.Request
	rep     *report.Report
	err     error
}

func (s *stubBuilder) Build(_ context.Context, req report.Request) (*report.Report, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.rep, nil
}

func newTestRouter(builder *stubBuilder) http.Handler {
	h := NewHandler(nil, builder)
	r := chi.NewRouter()
	r.Route("/reports", h.MountRoutes)
	return r
}

func TestWeeklyValidatesQuery(t *testing.T) {
	builder := &stubBuilder{}
	router := newTestRouter(builder)

	cases := []string{
		"/reports/sales/weekly",
		"/reports/sales/weekly?year=2025&week=54&start_date=2025-03-03&end_date=2025-03-09",
		"/reports/sales/weekly?year=2025&week=10&start_date=bogus&end_date=2025-03-09",
		"/reports/sales/weekly?year=2025&week=10&start_date=2025-03-03&end_date=2025-03-09&refinement=loose",
	}
	for _, url := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, url)
		require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	}
}

func TestWeeklyBuildsRequest(t *testing.T) {
	builder := &stubBuilder{rep: &report.Report{Kind: report.UnitWeek, Year: 2025, Index: 10}}
	router := newTestRouter(builder)

	rec := httptest.NewRecorder()
	url := "/reports/sales/weekly?year=2025&week=10&start_date=2025-03-03&end_date=2025-03-09&refinement=clipped-to-month"
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, report.UnitWeek, builder.lastReq.Unit)
	require.Equal(t, 10, builder.lastReq.Week)
	require.Equal(t, report.RefinementClipMonth, builder.lastReq.Refinement)
	require.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), builder.lastReq.Start)

	var body report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 10, body.Index)
}

func TestMonthlyBuildsRequest(t *testing.T) {
	builder := &stubBuilder{rep: &report.Report{Kind: report.UnitMonth}}
	router := newTestRouter(builder)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/sales/monthly?year=2025&month=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, report.UnitMonth, builder.lastReq.Unit)
	require.Equal(t, 3, builder.lastReq.Month)
}

func TestQuarterlyMapsBuildErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: year out of range", report.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: timeout", report.ErrFetchFailed), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		builder := &stubBuilder{err: tc.err}
		router := newTestRouter(builder)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/sales/quarterly?year=2025&quarter=1", nil))
		require.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestQuarterlyValidatesQuery(t *testing.T) {
	builder := &stubBuilder{}
	router := newTestRouter(builder)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/sales/quarterly?year=2025&quarter=5", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
