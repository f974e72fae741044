package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const TransactionStatusCompleted TransactionStatus = "completed"

// TransactionItem mirrors the cart line it was captured from. The JSON keys
// match the persisted items column, which reports and charts read back.
type TransactionItem struct {
	ProductID int64  `json:"id"`
	Name      string `json:"product"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// TransactionRecord is an immutable completed sale. Once inserted into the
// transaction store it is never updated or deleted.
type TransactionRecord struct {
	ID           uuid.UUID         `json:"id"`
	CustomerName string            `json:"customer_name"`
	Items        []TransactionItem `json:"items"`
	Total        int64             `json:"total"`
	Note         string            `json:"note"`
	Status       TransactionStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}
