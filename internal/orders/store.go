package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// UserIndex is the GSI used to scope order listings to one customer.
const UserIndex = "user_id-index"

// ErrConflict is returned when a conditional write loses: the checkout
// session was already consumed, or an email flag was already set.
var ErrConflict = errors.New("conditional check failed")

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// CreateWithNewSession atomically creates:
//   - a checkout-session record in sessionTable, guarded by
//     attribute_not_exists(checkout_id) so a replayed submission cannot
//     produce a second order
//   - the order record in the orders table
//
// sessionItem must marshal with a checkout_id attribute present.
func (s *Store) CreateWithNewSession(ctx context.Context, sessionTable string, sessionItem interface{}, order Order) error {
	sessMap, err := attributevalue.MarshalMap(sessionItem)
	if err != nil {
		return fmt.Errorf("marshal session item: %w", err)
	}

	orderMap, err := s.marshalOrder(order)
	if err != nil {
		return err
	}

	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &sessionTable,
					Item:                sessMap,
					ConditionExpression: awsString("attribute_not_exists(checkout_id)"),
				},
			},
			{
				Put: &types.Put{
					TableName: &s.tableName,
					Item:      orderMap,
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("checkout session exists: %w", ErrConflict)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// CreateCommittingSession atomically writes the order and flips its checkout
// session from in_progress to done. The conditional update is what makes a
// duplicate payment callback harmless: the second transact loses and the
// caller reads back the order the first one wrote.
func (s *Store) CreateCommittingSession(ctx context.Context, sessionTable, checkoutID, inProgress, done string, order Order) error {
	orderMap, err := s.marshalOrder(order)
	if err != nil {
		return err
	}

	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName: &sessionTable,
					Key: map[string]types.AttributeValue{
						"checkout_id": &types.AttributeValueMemberS{Value: checkoutID},
					},
					UpdateExpression:    awsString("SET #s = :done, order_id = :oid, updated_at = :ua"),
					ConditionExpression: awsString("#s = :expected"),
					ExpressionAttributeNames: map[string]string{
						"#s": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":done":     &types.AttributeValueMemberS{Value: done},
						":expected": &types.AttributeValueMemberS{Value: inProgress},
						":oid":      &types.AttributeValueMemberS{Value: order.OrderID},
						":ua":       &types.AttributeValueMemberS{Value: now},
					},
				},
			},
			{
				Put: &types.Put{
					TableName: &s.tableName,
					Item:      orderMap,
				},
			},
		},
	}

	if _, err := s.client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("session not in progress: %w", ErrConflict)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListByUser queries the user GSI. The scoping lives in the key condition,
// not in a post-filter, so a customer can never page through someone else's
// orders.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	index := UserIndex
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &index,
		KeyConditionExpression: awsString("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: awsBool(false), // newest first
	})
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	orders := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ListAll scans the whole table for the admin back office.
func (s *Store) ListAll(ctx context.Context) ([]Order, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName: &s.tableName,
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	orders := make([]Order, 0, len(out.Items))
	for _, item := range out.Items {
		var o Order
		if err := attributevalue.UnmarshalMap(item, &o); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateOrderStatus sets the admin-driven order status. Last write wins;
// there is no optimistic-concurrency check on admin mutations.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, newStatus string) error {
	if !ValidStatus(newStatus) {
		return fmt.Errorf("invalid order status %q", newStatus)
	}
	return s.setField(ctx, orderID, "order_status", newStatus)
}

// MarkPaymentPaid flips a COD order's payment status after the cash is in.
func (s *Store) MarkPaymentPaid(ctx context.Context, orderID string) error {
	return s.setField(ctx, orderID, "payment_status", PaymentPaid)
}

func (s *Store) setField(ctx context.Context, orderID, field, value string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    awsString("SET #f = :v, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(order_id)"),
		ExpressionAttributeNames: map[string]string{
			"#f": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v":  &types.AttributeValueMemberS{Value: value},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return fmt.Errorf("order %s not found: %w", orderID, ErrConflict)
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// ClaimEmailDelivery marks the order's confirmation mail as attempted, at
// most once per order: the condition loses on a duplicate queue delivery.
func (s *Store) ClaimEmailDelivery(ctx context.Context, orderID string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    awsString("SET email_attempted = :t, email_attempted_at = :ua"),
		ConditionExpression: awsString("attribute_not_exists(email_attempted)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":  &types.AttributeValueMemberBOOL{Value: true},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrConflict
		}
		return fmt.Errorf("claim email delivery: %w", err)
	}
	return nil
}

// MarkEmailSent records a successful confirmation mail. Only ever reached
// after ClaimEmailDelivery, so it carries no condition of its own.
func (s *Store) MarkEmailSent(ctx context.Context, orderID string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET email_sent = :t, email_sent_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":  &types.AttributeValueMemberBOOL{Value: true},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	return nil
}

// MarkEmailFailed records the send error on the order.
func (s *Store) MarkEmailFailed(ctx context.Context, orderID, reason string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET email_error = :e, email_error_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e":  &types.AttributeValueMemberS{Value: reason},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("mark email failed: %w", err)
	}
	return nil
}

func (s *Store) marshalOrder(order Order) (map[string]types.AttributeValue, error) {
	now := s.nowFunc()
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.UpdatedAt = now
	m, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order item: %w", err)
	}
	return m, nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
