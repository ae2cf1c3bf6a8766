package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// Record is the cart mirror persisted in the carts table, keyed by user id.
type Record struct {
	UserID    string `dynamodbav:"user_id"` // PK
	Items     Items  `dynamodbav:"items"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// MirrorStore reads and writes the server-side copy of a user's cart.
type MirrorStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewMirrorStore creates a MirrorStore bound to the carts table.
func NewMirrorStore(client aws.DynamoDBAPI, tableName string) *MirrorStore {
	return &MirrorStore{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Load fetches the mirror for a user. Returns (nil, false, nil) when the
// user has no stored cart.
func (s *MirrorStore) Load(ctx context.Context, userID string) (Items, bool, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("get cart: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, false, fmt.Errorf("unmarshal cart: %w", err)
	}
	return rec.Items, true, nil
}

// Save writes the full current item list for a user, replacing any prior copy.
func (s *MirrorStore) Save(ctx context.Context, userID string, items Items) error {
	rec := Record{
		UserID:    userID,
		Items:     items,
		UpdatedAt: s.nowFunc().UTC().Format(time.RFC3339),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put cart: %w", err)
	}
	return nil
}

// Delete removes the mirror entirely (after checkout or explicit clear).
func (s *MirrorStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	}); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
