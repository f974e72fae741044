// Package publisher emits "sale completed" events for downstream consumers
// (kitchen displays, accounting). Publishing is best-effort: a broker outage
// must never fail or delay a checkout.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
)

const DefaultTopic = "pos-sales"

type SalePublisher struct {
	writer  *kafka.Writer
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewSalePublisher returns a disabled publisher when no brokers are
// configured, so callers can publish unconditionally.
func NewSalePublisher(topic string, brokers ...string) *SalePublisher {
	if len(brokers) == 0 {
		return &SalePublisher{}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	// Stop hammering an unreachable broker after consecutive failures; the
	// breaker recovers on its own once Kafka is back.
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "sale-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &SalePublisher{writer: w, breaker: cb}
}

func (p *SalePublisher) Enabled() bool {
	return p.writer != nil
}

// Publish sends one completed sale keyed by its transaction id.
func (p *SalePublisher) Publish(ctx context.Context, record *domain.TransactionRecord) error {
	if !p.Enabled() {
		return nil
	}

	payload := map[string]interface{}{
		"transaction_id": record.ID,
		"customer_name":  record.CustomerName,
		"items":          record.Items,
		"total":          record.Total,
		"completed_at":   record.CreatedAt,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sale payload: %w", err)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		errWrite := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(record.ID.String()),
			Value: payloadJSON,
		})
		return struct{}{}, errWrite
	})
	if err != nil {
		return fmt.Errorf("publish sale event: %w", err)
	}
	return nil
}

// PublishAsync publishes in the background and only logs failures. This is
// the checkout path's entry point.
func (p *SalePublisher) PublishAsync(record *domain.TransactionRecord) {
	if !p.Enabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, record); err != nil {
			log.Printf("failed to publish sale event for transaction %v: %v", record.ID, err)
		}
	}()
}

func (p *SalePublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
