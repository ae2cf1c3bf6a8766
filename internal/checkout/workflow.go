package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mauli-interior/go-storefront/internal/aws"
	"github.com/mauli-interior/go-storefront/internal/cart"
	"github.com/mauli-interior/go-storefront/internal/orders"
	"github.com/mauli-interior/go-storefront/internal/payment"
	"github.com/mauli-interior/go-storefront/internal/validation"
)

// Customer is the authenticated actor placing an order.
type Customer struct {
	UserID string
	Name   string
	Email  string
}

// ShippingDetails is the checkout form. Every field except Notes must be
// present before any side effect happens.
type ShippingDetails struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Notes      string `json:"notes"`
}

func (d ShippingDetails) composedAddress() string {
	return fmt.Sprintf("%s, %s - %s", d.Address, d.City, d.PostalCode)
}

// PaymentIntent is handed to the client to open the hosted payment UI.
type PaymentIntent struct {
	CheckoutID string            `json:"checkout_id"`
	Checkout   *payment.Checkout `json:"checkout"`
}

// EventPublisher pushes order-created events to the email worker.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev aws.OrderCreatedEvent, attributes map[string]string) error
}

// Workflow converts the current cart into exactly one immutable order per
// successful checkout. A failed or cancelled checkout leaves the cart
// exactly as it was.
type Workflow struct {
	carts    *cart.Service
	orders   *orders.Store
	sessions *SessionStore
	gateway  payment.Gateway
	events   EventPublisher
	metrics  *aws.Metrics
	log      *zap.Logger
	newID    func() string
}

// NewWorkflow wires the submission workflow. events and metrics may be nil
// in local runs; both are fire-and-forget.
func NewWorkflow(carts *cart.Service, ordersStore *orders.Store, sessions *SessionStore, gateway payment.Gateway, events EventPublisher, metrics *aws.Metrics, log *zap.Logger) *Workflow {
	return &Workflow{
		carts:    carts,
		orders:   ordersStore,
		sessions: sessions,
		gateway:  gateway,
		events:   events,
		metrics:  metrics,
		log:      log,
		newID:    uuid.NewString,
	}
}

// SubmitCOD places a cash-on-delivery order: written immediately with
// payment pending, cart cleared afterwards. idempotencyKey is optional; when
// present, a replayed submission returns the order the first one created.
func (w *Workflow) SubmitCOD(ctx context.Context, cust Customer, details ShippingDetails, idempotencyKey string) (*orders.Order, error) {
	if cust.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := w.validateDetails(details); err != nil {
		return nil, err
	}

	checkoutID := idempotencyKey
	if checkoutID == "" {
		checkoutID = w.newID()
	} else if sess, err := w.sessions.Get(ctx, checkoutID); err == nil && sess != nil {
		// a retried request after a lost response; the cart may already be
		// cleared, so resolve the replay before the empty-cart check
		return w.resolveReplay(ctx, cust, sess)
	}

	items, _ := w.carts.Get(ctx, cart.Owner{UserID: cust.UserID})
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := w.buildOrder(cust, details, items, orders.MethodCOD, orders.PaymentPending, "")

	sess := w.sessions.NewSession(Session{
		CheckoutID: checkoutID,
		UserID:     cust.UserID,
		Method:     orders.MethodCOD,
		Amount:     order.TotalAmount,
	})
	// the transact commits the session already consumed
	sess.Status = SessionDone
	sess.OrderID = order.OrderID

	if err := w.orders.CreateWithNewSession(ctx, w.sessions.TableName(), sess, *order); err != nil {
		if errors.Is(err, orders.ErrConflict) {
			return w.replaySession(ctx, cust, checkoutID)
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderWriteFailed, err)
	}

	w.finishCheckout(ctx, cust, order)
	return order, nil
}

// BeginPayment starts the online path: re-derives the total from the live
// cart, registers the attempt with the gateway and persists an in-progress
// checkout session carrying the item snapshot that total was derived from.
// Nothing else changes until the gateway reports back.
func (w *Workflow) BeginPayment(ctx context.Context, cust Customer, details ShippingDetails) (*PaymentIntent, error) {
	items, err := w.preconditions(ctx, cust, details)
	if err != nil {
		return nil, err
	}
	snapshot := make(cart.Items, len(items))
	copy(snapshot, items)

	checkoutID := w.newID()
	co, err := w.gateway.CreateOrder(ctx, snapshot.Total(), checkoutID)
	if err != nil {
		w.count(ctx, aws.MetricPaymentFailed, map[string]string{"stage": "create"})
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	created, err := w.sessions.CreateIfNotExists(ctx, Session{
		CheckoutID:     checkoutID,
		UserID:         cust.UserID,
		Method:         orders.MethodOnline,
		Amount:         snapshot.Total(),
		Items:          snapshot,
		GatewayOrderID: co.GatewayOrderID,
		Name:           details.Name,
		Phone:          details.Phone,
		Address:        details.Address,
		City:           details.City,
		PostalCode:     details.PostalCode,
		Notes:          details.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("save checkout session: %w", err)
	}
	if !created {
		return nil, ErrCheckoutInProgress
	}

	return &PaymentIntent{CheckoutID: checkoutID, Checkout: co}, nil
}

// ConfirmPayment handles the gateway's success callback. The order is only
// ever written here with payment status paid and the verified payment
// reference, built from the session's item snapshot so the order total is
// always the amount the gateway captured; the session flip inside the
// transact guarantees a duplicate callback returns the already-committed
// order instead of a second one.
func (w *Workflow) ConfirmPayment(ctx context.Context, cust Customer, checkoutID, paymentID, signature string) (*orders.Order, error) {
	if cust.UserID == "" {
		return nil, ErrUnauthenticated
	}

	sess, err := w.sessions.Get(ctx, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	if sess == nil || sess.UserID != cust.UserID {
		return nil, ErrUnknownCheckout
	}
	switch sess.Status {
	case SessionDone:
		return w.orderForSession(ctx, sess)
	case SessionCancelled:
		return nil, ErrPaymentCancelled
	case SessionInProgress:
		// proceed
	default:
		return nil, ErrUnknownCheckout
	}

	if !w.gateway.VerifySignature(sess.GatewayOrderID, paymentID, signature) {
		w.count(ctx, aws.MetricPaymentFailed, map[string]string{"stage": "verify"})
		return nil, ErrSignatureMismatch
	}

	// cart edits made while the hosted UI was open are not part of what the
	// gateway charged, so the order comes from the Begin-time snapshot
	items := sess.Items
	if len(items) == 0 {
		return nil, ErrUnknownCheckout
	}

	details := ShippingDetails{
		Name:       sess.Name,
		Phone:      sess.Phone,
		Address:    sess.Address,
		City:       sess.City,
		PostalCode: sess.PostalCode,
		Notes:      sess.Notes,
	}
	order := w.buildOrder(cust, details, items, orders.MethodOnline, orders.PaymentPaid, paymentID)

	err = w.orders.CreateCommittingSession(ctx, w.sessions.TableName(), checkoutID, SessionInProgress, SessionDone, *order)
	if err != nil {
		if errors.Is(err, orders.ErrConflict) {
			// a concurrent callback won the transact
			if current, gerr := w.sessions.Get(ctx, checkoutID); gerr == nil && current != nil && current.Status == SessionDone {
				return w.orderForSession(ctx, current)
			}
		}
		// money captured, record missing: the support case
		w.log.Error("order write failed after captured payment",
			zap.String("checkout_id", checkoutID),
			zap.String("payment_reference", paymentID),
			zap.Error(err))
		w.count(ctx, aws.MetricPaymentOrphaned, nil)
		return nil, ErrPaidOrderWriteFailed
	}

	w.finishCheckout(ctx, cust, order)
	return order, nil
}

// CancelPayment handles dismissal of the hosted payment UI. No order is
// written and the cart is untouched.
func (w *Workflow) CancelPayment(ctx context.Context, cust Customer, checkoutID string) error {
	if cust.UserID == "" {
		return ErrUnauthenticated
	}
	sess, err := w.sessions.Get(ctx, checkoutID)
	if err != nil {
		return fmt.Errorf("load checkout session: %w", err)
	}
	if sess == nil || sess.UserID != cust.UserID {
		return ErrUnknownCheckout
	}
	return w.sessions.MarkCancelled(ctx, checkoutID)
}

// preconditions runs every check that must pass before any side effect.
func (w *Workflow) preconditions(ctx context.Context, cust Customer, details ShippingDetails) (cart.Items, error) {
	if cust.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := w.validateDetails(details); err != nil {
		return nil, err
	}
	items, _ := w.carts.Get(ctx, cart.Owner{UserID: cust.UserID})
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

func (w *Workflow) validateDetails(details ShippingDetails) error {
	if fields := validation.Check(details); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// buildOrder snapshots the cart and re-derives the total; a stale
// client-held total is never trusted.
func (w *Workflow) buildOrder(cust Customer, details ShippingDetails, items cart.Items, method, paymentStatus, paymentRef string) *orders.Order {
	snapshot := make([]cart.LineItem, len(items))
	copy(snapshot, items)

	return &orders.Order{
		OrderID:          w.newID(),
		UserID:           cust.UserID,
		CustomerName:     details.Name,
		CustomerEmail:    cust.Email,
		CustomerPhone:    details.Phone,
		Items:            snapshot,
		TotalAmount:      items.Total(),
		OrderStatus:      orders.StatusPending,
		PaymentStatus:    paymentStatus,
		PaymentMethod:    method,
		PaymentReference: paymentRef,
		ShippingAddress:  details.composedAddress(),
		Notes:            details.Notes,
	}
}

// finishCheckout clears the cart and hands the order to the email worker.
// Both are best-effort: the order is already committed.
func (w *Workflow) finishCheckout(ctx context.Context, cust Customer, order *orders.Order) {
	w.carts.Clear(ctx, cart.Owner{UserID: cust.UserID})

	if w.events != nil {
		ev := aws.OrderCreatedEvent{OrderID: order.OrderID, UserID: cust.UserID}
		if err := w.events.PublishOrderCreated(ctx, ev, map[string]string{"order_id": order.OrderID}); err != nil {
			w.log.Warn("order event publish failed", zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
	w.count(ctx, aws.MetricOrdersPlaced, map[string]string{"method": order.PaymentMethod})
}

// replaySession resolves an idempotency-key collision on the COD path.
func (w *Workflow) replaySession(ctx context.Context, cust Customer, checkoutID string) (*orders.Order, error) {
	sess, err := w.sessions.Get(ctx, checkoutID)
	if err != nil || sess == nil {
		return nil, fmt.Errorf("%w: session lookup failed", ErrOrderWriteFailed)
	}
	return w.resolveReplay(ctx, cust, sess)
}

func (w *Workflow) resolveReplay(ctx context.Context, cust Customer, sess *Session) (*orders.Order, error) {
	if sess.UserID != cust.UserID {
		return nil, ErrUnknownCheckout
	}
	if sess.Status == SessionDone && sess.OrderID != "" {
		return w.orderForSession(ctx, sess)
	}
	return nil, ErrCheckoutInProgress
}

func (w *Workflow) orderForSession(ctx context.Context, sess *Session) (*orders.Order, error) {
	order, err := w.orders.Get(ctx, sess.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load committed order: %w", err)
	}
	if order == nil {
		return nil, ErrUnknownCheckout
	}
	return order, nil
}

func (w *Workflow) count(ctx context.Context, name string, dims map[string]string) {
	if err := w.metrics.Count(ctx, name, 1, dims); err != nil {
		w.log.Debug("metric emit failed", zap.String("metric", name), zap.Error(err))
	}
}
