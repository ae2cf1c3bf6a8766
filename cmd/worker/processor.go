package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	storeaws "github.com/mauli-interior/go-storefront/internal/aws"
	"github.com/mauli-interior/go-storefront/internal/email"
	"github.com/mauli-interior/go-storefront/internal/orders"
)

// orderStore is the slice of the orders store the worker needs.
type orderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	ClaimEmailDelivery(ctx context.Context, orderID string) error
	MarkEmailSent(ctx context.Context, orderID string) error
	MarkEmailFailed(ctx context.Context, orderID, reason string) error
}

// Processor turns order-created events into confirmation emails, at most
// once per order: the conditional email_attempted flag is claimed before
// sending, so a duplicate queue delivery finds it set and walks away.
// email_sent flips only after the send actually succeeded.
type Processor struct {
	orders  orderStore
	sender  email.Sender
	metrics *storeaws.Metrics
	log     *zap.Logger
}

func NewProcessor(ordersStore orderStore, sender email.Sender, metrics *storeaws.Metrics, log *zap.Logger) *Processor {
	return &Processor{orders: ordersStore, sender: sender, metrics: metrics, log: log}
}

// HandleEvent processes a batch of SQS records. A returned error makes the
// runtime redeliver the batch, so only retryable failures bubble up.
func (p *Processor) HandleEvent(ctx context.Context, event events.SQSEvent) error {
	p.log.Info("received sqs batch", zap.Int("records", len(event.Records)))
	for _, record := range event.Records {
		if err := p.processRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processRecord(ctx context.Context, record events.SQSMessage) error {
	var ev storeaws.OrderCreatedEvent
	if err := json.Unmarshal([]byte(record.Body), &ev); err != nil {
		// malformed bodies never get better on retry
		p.log.Error("unparseable event body", zap.String("body", record.Body), zap.Error(err))
		return nil
	}

	order, err := p.orders.Get(ctx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", ev.OrderID, err)
	}
	if order == nil {
		p.log.Warn("event for unknown order", zap.String("order_id", ev.OrderID))
		return nil
	}

	// claim the delivery before sending
	if err := p.orders.ClaimEmailDelivery(ctx, order.OrderID); err != nil {
		if errors.Is(err, orders.ErrConflict) {
			p.log.Info("email already handled", zap.String("order_id", order.OrderID))
			return nil
		}
		return fmt.Errorf("claim email delivery for %s: %w", order.OrderID, err)
	}

	if err := p.sender.SendOrderConfirmation(ctx, order); err != nil {
		p.log.Error("confirmation email failed", zap.String("order_id", order.OrderID), zap.Error(err))
		if merr := p.orders.MarkEmailFailed(ctx, order.OrderID, err.Error()); merr != nil {
			p.log.Error("recording email failure failed", zap.String("order_id", order.OrderID), zap.Error(merr))
		}
		p.count(ctx, storeaws.MetricEmailsFailed)
		return nil
	}

	if err := p.orders.MarkEmailSent(ctx, order.OrderID); err != nil {
		p.log.Error("recording email success failed", zap.String("order_id", order.OrderID), zap.Error(err))
	}
	p.log.Info("confirmation email sent",
		zap.String("order_id", order.OrderID),
		zap.String("to", order.CustomerEmail))
	p.count(ctx, storeaws.MetricEmailsSent)
	return nil
}

func (p *Processor) count(ctx context.Context, name string) {
	if err := p.metrics.Count(ctx, name, 1, nil); err != nil {
		p.log.Debug("metric emit failed", zap.String("metric", name), zap.Error(err))
	}
}
