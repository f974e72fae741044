package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/service"
)

type reportsMock struct {
	start, end time.Time
	records    []*domain.TransactionRecord
	err        error
}

func (m *reportsMock) TransactionsBetween(_ context.Context, start, end time.Time) ([]*domain.TransactionRecord, error) {
	m.start, m.end = start, end
	return m.records, m.err
}

func (m *reportsMock) DailySales(context.Context) ([]service.DailyStat, error) {
	return []service.DailyStat{{Date: "2026-08-01", Revenue: 430_000, Transactions: 2}}, m.err
}

func (m *reportsMock) TopProducts(context.Context, int) ([]service.ProductSales, error) {
	return nil, m.err
}

func (m *reportsMock) Customers(context.Context) ([]service.CustomerSummary, error) {
	return nil, m.err
}

func (m *reportsMock) WriteCSV(_ context.Context, start, end time.Time, w io.Writer) error {
	m.start, m.end = start, end
	_, err := w.Write([]byte("customer,total,date,note,status\n"))
	return err
}

func reportRouter(mock *reportsMock) http.Handler {
	handler := NewReportHandler(mock, 5*time.Second)
	r := chi.NewRouter()
	r.Get("/transactions", handler.Transactions)
	r.Get("/reports/daily", handler.Daily)
	r.Get("/reports/products", handler.TopProducts)
	r.Get("/reports/export", handler.ExportCSV)
	return r
}

func TestTransactions_ExplicitRange(t *testing.T) {
	mock := &reportsMock{}
	router := reportRouter(mock)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/transactions?start=2026-08-01&end=2026-08-02", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 2026, mock.start.Year())
	assert.Equal(t, time.August, mock.start.Month())
	assert.Equal(t, 1, mock.start.Day())
	assert.Equal(t, 2, mock.end.Day())
}

func TestTransactions_InvalidDate(t *testing.T) {
	router := reportRouter(&reportsMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/transactions?start=01-08-2026", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestTransactions_EndBeforeStart(t *testing.T) {
	router := reportRouter(&reportsMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/transactions?start=2026-08-02&end=2026-08-01", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestTopProducts_InvalidLimit(t *testing.T) {
	router := reportRouter(&reportsMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/reports/products?limit=0", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExportCSV_SetsDownloadHeaders(t *testing.T) {
	router := reportRouter(&reportsMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/reports/export?start=2026-08-01&end=2026-08-02", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "sales_report.csv")
	assert.Contains(t, recorder.Body.String(), "customer,total,date,note,status")
}

func TestDaily_Success(t *testing.T) {
	router := reportRouter(&reportsMock{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/reports/daily", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "2026-08-01")
}
