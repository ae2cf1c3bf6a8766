package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	storeaws "github.com/mauli-interior/go-storefront/internal/aws"
	"github.com/mauli-interior/go-storefront/internal/orders"
)

type fakeOrderStore struct {
	byID      map[string]*orders.Order
	attempted map[string]bool
	sent      map[string]bool
	failed    map[string]string
	getErr    error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byID:      map[string]*orders.Order{},
		attempted: map[string]bool{},
		sent:      map[string]bool{},
		failed:    map[string]string{},
	}
}

func (f *fakeOrderStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[orderID], nil
}

func (f *fakeOrderStore) ClaimEmailDelivery(ctx context.Context, orderID string) error {
	if f.attempted[orderID] {
		return orders.ErrConflict
	}
	f.attempted[orderID] = true
	return nil
}

func (f *fakeOrderStore) MarkEmailSent(ctx context.Context, orderID string) error {
	f.sent[orderID] = true
	return nil
}

func (f *fakeOrderStore) MarkEmailFailed(ctx context.Context, orderID, reason string) error {
	f.failed[orderID] = reason
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendOrderConfirmation(ctx context.Context, order *orders.Order) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, order.OrderID)
	return nil
}

func eventFor(orderIDs ...string) events.SQSEvent {
	var ev events.SQSEvent
	for _, id := range orderIDs {
		body, _ := json.Marshal(storeaws.OrderCreatedEvent{OrderID: id, UserID: "u1"})
		ev.Records = append(ev.Records, events.SQSMessage{Body: string(body)})
	}
	return ev
}

func TestHandleEvent_SendsOnce(t *testing.T) {
	store := newFakeOrderStore()
	store.byID["o1"] = &orders.Order{OrderID: "o1", CustomerEmail: "asha@example.com"}
	sender := &fakeSender{}
	p := NewProcessor(store, sender, nil, zap.NewNop())

	if err := p.HandleEvent(context.Background(), eventFor("o1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "o1" {
		t.Errorf("sent = %v, want [o1]", sender.sent)
	}
	if !store.sent["o1"] {
		t.Error("successful send not recorded")
	}

	// duplicate delivery: the claimed flag must stop a second send
	if err := p.HandleEvent(context.Background(), eventFor("o1")); err != nil {
		t.Fatalf("duplicate handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d emails for one order", len(sender.sent))
	}
}

func TestHandleEvent_SendFailureRecorded(t *testing.T) {
	store := newFakeOrderStore()
	store.byID["o1"] = &orders.Order{OrderID: "o1", CustomerEmail: "asha@example.com"}
	sender := &fakeSender{err: errors.New("smtp down")}
	p := NewProcessor(store, sender, nil, zap.NewNop())

	if err := p.HandleEvent(context.Background(), eventFor("o1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.failed["o1"] != "smtp down" {
		t.Errorf("failure reason = %q, want recorded", store.failed["o1"])
	}
	if store.sent["o1"] {
		t.Error("order shows email_sent after a failed send")
	}
	if !store.attempted["o1"] {
		t.Error("failed send did not consume the delivery claim")
	}
}

func TestHandleEvent_UnknownOrderSkipped(t *testing.T) {
	store := newFakeOrderStore()
	sender := &fakeSender{}
	p := NewProcessor(store, sender, nil, zap.NewNop())

	if err := p.HandleEvent(context.Background(), eventFor("missing")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent email for unknown order")
	}
}

func TestHandleEvent_MalformedBodySkipped(t *testing.T) {
	p := NewProcessor(newFakeOrderStore(), &fakeSender{}, nil, zap.NewNop())
	ev := events.SQSEvent{Records: []events.SQSMessage{{Body: "{not json"}}}
	if err := p.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEvent_StoreErrorRetries(t *testing.T) {
	store := newFakeOrderStore()
	store.getErr = errors.New("throttled")
	p := NewProcessor(store, &fakeSender{}, nil, zap.NewNop())

	if err := p.HandleEvent(context.Background(), eventFor("o1")); err == nil {
		t.Fatal("expected error for retryable store failure")
	}
}
