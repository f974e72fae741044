package http

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/service"
)

// Reports is the slice of the report service the handler needs.
type Reports interface {
	TransactionsBetween(ctx context.Context, start, end time.Time) ([]*domain.TransactionRecord, error)
	DailySales(ctx context.Context) ([]service.DailyStat, error)
	TopProducts(ctx context.Context, limit int) ([]service.ProductSales, error)
	Customers(ctx context.Context) ([]service.CustomerSummary, error)
	WriteCSV(ctx context.Context, start, end time.Time, w io.Writer) error
}

type ReportHandler struct {
	reports Reports
	timeout time.Duration
}

func NewReportHandler(reports Reports, timeout time.Duration) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		timeout: timeout,
	}
}

func (h *ReportHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.reports.TransactionsBetween(ctx, start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if records == nil {
		records = []*domain.TransactionRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.reports.DailySales(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// The chart shows the five best sellers by default.
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ranking, err := h.reports.TopProducts(ctx, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

func (h *ReportHandler) Customers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customers, err := h.reports.Customers(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales_report.csv"`)
	if err := h.reports.WriteCSV(ctx, start, end, w); err != nil {
		// Headers are already written, so the client just sees a truncated
		// body.
		log.Printf("failed to write csv export: %v", err)
	}
}

// parseDateRange reads start/end query params (YYYY-MM-DD). Both default to
// today, matching the dashboard's initial report view.
func parseDateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	start, end := now, now

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", "start must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", "end must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		end = parsed
	}

	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "invalid_date_range", "end must not be before start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
