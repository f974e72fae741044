package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
)

func (r *Repository) InsertTransaction(ctx context.Context, record *domain.TransactionRecord) error {
	itemsJSON, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction items: %w", err)
	}

	query := `INSERT INTO transactions (id, customer_name, items, total, note, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, insertErr := r.db.ExecContext(ctx, query,
		record.ID,
		record.CustomerName,
		itemsJSON,
		record.Total,
		record.Note,
		record.Status,
		record.CreatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert transaction: %w", insertErr)
	}
	return nil
}

// ListTransactionsByDateRange returns completed sales whose created_at falls
// inside [start, end], newest first.
func (r *Repository) ListTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]*domain.TransactionRecord, error) {
	query := `SELECT id, customer_name, items, total, note, status, created_at
	          FROM transactions
	          WHERE created_at >= $1 AND created_at <= $2
	          ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query transactions by date range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListTransactions returns every completed sale, oldest first, for the
// aggregation views.
func (r *Repository) ListTransactions(ctx context.Context) ([]*domain.TransactionRecord, error) {
	query := `SELECT id, customer_name, items, total, note, status, created_at
	          FROM transactions ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*domain.TransactionRecord, error) {
	var records []*domain.TransactionRecord
	for rows.Next() {
		var record domain.TransactionRecord
		var itemsJSON []byte
		if err := rows.Scan(
			&record.ID,
			&record.CustomerName,
			&itemsJSON,
			&record.Total,
			&record.Note,
			&record.Status,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &record.Items); err != nil {
			return nil, fmt.Errorf("unmarshal transaction items: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
