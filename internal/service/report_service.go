package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/repository"
)

// DailyStat is one day of sales: total revenue and how many transactions
// were completed.
type DailyStat struct {
	Date         string `json:"date"`
	Revenue      int64  `json:"revenue"`
	Transactions int    `json:"transactions"`
}

// ProductSales counts units sold per product name across all transactions.
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CustomerSummary groups transactions by customer name.
type CustomerSummary struct {
	Name            string    `json:"name"`
	Transactions    int       `json:"transactions"`
	LastTransaction time.Time `json:"last_transaction"`
}

type ReportService struct {
	repo repository.TransactionRepository
}

func NewReportService(repo repository.TransactionRepository) *ReportService {
	return &ReportService{repo: repo}
}

// TransactionsBetween returns completed sales for a day-granular range. The
// range is widened to the full days [start 00:00:00, end 23:59:59], newest
// first.
func (s *ReportService) TransactionsBetween(ctx context.Context, start, end time.Time) ([]*domain.TransactionRecord, error) {
	from, to := dayBounds(start, end)
	return s.repo.ListTransactionsByDateRange(ctx, from, to)
}

// DailySales aggregates revenue and transaction counts per calendar day,
// oldest day first.
func (s *ReportService) DailySales(ctx context.Context) ([]DailyStat, error) {
	records, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DailyStat)
	for _, record := range records {
		day := record.CreatedAt.UTC().Format("2006-01-02")
		stat, ok := byDay[day]
		if !ok {
			stat = &DailyStat{Date: day}
			byDay[day] = stat
		}
		stat.Revenue += record.Total
		stat.Transactions++
	}

	stats := make([]DailyStat, 0, len(byDay))
	for _, stat := range byDay {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	return stats, nil
}

// TopProducts ranks products by units sold, descending. limit <= 0 returns
// the full ranking.
func (s *ReportService) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	records, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, record := range records {
		for _, item := range record.Items {
			counts[item.Name] += item.Quantity
		}
	}

	ranking := make([]ProductSales, 0, len(counts))
	for name, qty := range counts {
		ranking = append(ranking, ProductSales{Name: name, Quantity: qty})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Quantity != ranking[j].Quantity {
			return ranking[i].Quantity > ranking[j].Quantity
		}
		return ranking[i].Name < ranking[j].Name
	})

	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// Customers groups sales by customer name, sorted by name ascending. Records
// with a blank customer name are skipped.
func (s *ReportService) Customers(ctx context.Context) ([]CustomerSummary, error) {
	records, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*CustomerSummary)
	for _, record := range records {
		if record.CustomerName == "" {
			continue
		}
		summary, ok := byName[record.CustomerName]
		if !ok {
			byName[record.CustomerName] = &CustomerSummary{
				Name:            record.CustomerName,
				Transactions:    1,
				LastTransaction: record.CreatedAt,
			}
			continue
		}
		summary.Transactions++
		if record.CreatedAt.After(summary.LastTransaction) {
			summary.LastTransaction = record.CreatedAt
		}
	}

	customers := make([]CustomerSummary, 0, len(byName))
	for _, summary := range byName {
		customers = append(customers, *summary)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

// WriteCSV streams the ranged sales report as CSV rows.
func (s *ReportService) WriteCSV(ctx context.Context, start, end time.Time, w io.Writer) error {
	records, err := s.TransactionsBetween(ctx, start, end)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if e2 := cw.Write([]string{"customer", "total", "date", "note", "status"}); e2 != nil {
		return fmt.Errorf("write csv header: %w", e2)
	}
	for _, record := range records {
		row := []string{
			record.CustomerName,
			fmt.Sprintf("%d", record.Total),
			record.CreatedAt.UTC().Format(time.RFC3339),
			record.Note,
			string(record.Status),
		}
		if e2 := cw.Write(row); e2 != nil {
			return fmt.Errorf("write csv row: %w", e2)
		}
	}
	cw.Flush()
	return cw.Error()
}

// dayBounds widens a date pair to full-day boundaries in the dates' location.
func dayBounds(start, end time.Time) (time.Time, time.Time) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	return from, to
}
