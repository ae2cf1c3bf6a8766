package checkout

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionStore_CreateIfNotExists(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newMockDynamo(), sessionsTable, time.Hour)

	created, err := store.CreateIfNotExists(ctx, Session{CheckoutID: "c1", UserID: "u1", Method: "online"})
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	created, err = store.CreateIfNotExists(ctx, Session{CheckoutID: "c1", UserID: "u1", Method: "online"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Error("duplicate checkout id reported as created")
	}

	sess, err := store.Get(ctx, "c1")
	if err != nil || sess == nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Status != SessionInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", sess.Status)
	}
	if sess.ExpiresAt == 0 {
		t.Error("TTL not set")
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	store := NewSessionStore(newMockDynamo(), sessionsTable, time.Hour)
	sess, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil session, got %+v", sess)
	}
}

func TestSessionStore_MarkCancelledOnlyInProgress(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newMockDynamo(), sessionsTable, time.Hour)

	if _, err := store.CreateIfNotExists(ctx, Session{CheckoutID: "c1", UserID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkCancelled(ctx, "c1"); err != nil {
		t.Fatalf("cancel in-progress: %v", err)
	}

	// already cancelled: the conditional update must lose
	if err := store.MarkCancelled(ctx, "c1"); !errors.Is(err, ErrUnknownCheckout) {
		t.Fatalf("err = %v, want ErrUnknownCheckout", err)
	}

	sess, _ := store.Get(ctx, "c1")
	if sess.Status != SessionCancelled {
		t.Errorf("status = %s, want CANCELLED", sess.Status)
	}
}

func TestSessionStore_MarkDoneRecordsOrder(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newMockDynamo(), sessionsTable, time.Hour)

	if _, err := store.CreateIfNotExists(ctx, Session{CheckoutID: "c1", UserID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkDone(ctx, "c1", "o-42"); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	sess, _ := store.Get(ctx, "c1")
	if sess.Status != SessionDone || sess.OrderID != "o-42" {
		t.Errorf("session = %+v, want DONE with order o-42", sess)
	}
}
