package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/mauli-interior/go-storefront/internal/aws"
	"github.com/mauli-interior/go-storefront/internal/cart"
)

// Checkout-session statuses.
const (
	SessionInProgress = "IN_PROGRESS"
	SessionDone       = "DONE"
	SessionCancelled  = "CANCELLED"
	SessionFailed     = "FAILED"
)

// Session is one checkout attempt. For the online path it tracks the hosted
// payment round trip and carries the item snapshot the gateway amount was
// derived from; for COD it doubles as the idempotency record keyed by the
// client's Idempotency-Key.
type Session struct {
	CheckoutID     string     `dynamodbav:"checkout_id"` // PK
	UserID         string     `dynamodbav:"user_id"`
	Method         string     `dynamodbav:"method"`
	Status         string     `dynamodbav:"status"`
	Amount         float64    `dynamodbav:"amount"`
	Items          cart.Items `dynamodbav:"items,omitempty"`
	GatewayOrderID string     `dynamodbav:"gateway_order_id,omitempty"`
	OrderID        string     `dynamodbav:"order_id,omitempty"`
	Name           string     `dynamodbav:"name,omitempty"`
	Phone          string     `dynamodbav:"phone,omitempty"`
	Address        string     `dynamodbav:"address,omitempty"`
	City           string     `dynamodbav:"city,omitempty"`
	PostalCode     string     `dynamodbav:"postal_code,omitempty"`
	Notes          string     `dynamodbav:"notes,omitempty"`
	CreatedAt      time.Time  `dynamodbav:"created_at"`
	UpdatedAt      time.Time  `dynamodbav:"updated_at"`
	ExpiresAt      int64      `dynamodbav:"expires_at"` // TTL epoch seconds
}

// SessionStore encapsulates checkout-session operations against DynamoDB.
type SessionStore struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewSessionStore returns a configured SessionStore. ttlWindow bounds how
// long an abandoned hosted-payment round trip lingers before DynamoDB TTL
// reaps it.
func NewSessionStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *SessionStore {
	if ttlWindow <= 0 {
		ttlWindow = time.Hour
	}
	return &SessionStore{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// TableName exposes the backing table for transact writes that span the
// session and order tables.
func (s *SessionStore) TableName() string { return s.tableName }

// CreateIfNotExists writes the session with status IN_PROGRESS if the
// checkout id is unused. Returns (false, nil) when the id already exists.
func (s *SessionStore) CreateIfNotExists(ctx context.Context, sess Session) (bool, error) {
	now := s.nowFunc()
	sess.Status = SessionInProgress
	sess.CreatedAt = now
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(s.ttlWindow).Unix()

	item, err := attributevalue.MarshalMap(sess)
	if err != nil {
		return false, fmt.Errorf("marshal session: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(checkout_id)"),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put session: %w", err)
	}
	return true, nil
}

// NewSession builds an unsaved session with TTL fields filled in, for use in
// a caller-managed transact write.
func (s *SessionStore) NewSession(sess Session) Session {
	now := s.nowFunc()
	sess.Status = SessionInProgress
	sess.CreatedAt = now
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(s.ttlWindow).Unix()
	return sess
}

// Get retrieves a session by checkout id. If not found, returns (nil, nil).
func (s *SessionStore) Get(ctx context.Context, checkoutID string) (*Session, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"checkout_id": &types.AttributeValueMemberS{Value: checkoutID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var sess Session
	if err := attributevalue.UnmarshalMap(out.Item, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// MarkDone records the resulting order id and flips the status to DONE.
func (s *SessionStore) MarkDone(ctx context.Context, checkoutID, orderID string) error {
	return s.setStatus(ctx, checkoutID, SessionDone, "", orderID)
}

// MarkCancelled flips the session to CANCELLED, but only while it is still
// in progress: a completed checkout cannot be cancelled after the fact.
func (s *SessionStore) MarkCancelled(ctx context.Context, checkoutID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"checkout_id": &types.AttributeValueMemberS{Value: checkoutID},
		},
		UpdateExpression:    awsString("SET #s = :cancelled, updated_at = :ua"),
		ConditionExpression: awsString("#s = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cancelled": &types.AttributeValueMemberS{Value: SessionCancelled},
			":expected":  &types.AttributeValueMemberS{Value: SessionInProgress},
			":ua":        &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return fmt.Errorf("session not in progress: %w", ErrUnknownCheckout)
		}
		return fmt.Errorf("mark cancelled: %w", err)
	}
	return nil
}

// MarkFailed records a failure note so a retried submission is possible.
func (s *SessionStore) MarkFailed(ctx context.Context, checkoutID, note string) error {
	return s.setStatus(ctx, checkoutID, SessionFailed, note, "")
}

func (s *SessionStore) setStatus(ctx context.Context, checkoutID, status, note, orderID string) error {
	now := s.nowFunc()
	expr := "SET #s = :s, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":s":  &types.AttributeValueMemberS{Value: status},
		":ua": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
	}
	if note != "" {
		expr += ", note = :n"
		values[":n"] = &types.AttributeValueMemberS{Value: note}
	}
	if orderID != "" {
		expr += ", order_id = :oid"
		values[":oid"] = &types.AttributeValueMemberS{Value: orderID}
	}
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"checkout_id": &types.AttributeValueMemberS{Value: checkoutID},
		},
		UpdateExpression:          &expr,
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update session (%s): %w", status, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
