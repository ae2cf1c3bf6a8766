package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// Entry is one saved product on a user's wishlist.
type Entry struct {
	ProductID string    `dynamodbav:"product_id" json:"product_id"`
	Name      string    `dynamodbav:"name" json:"name"`
	Price     float64   `dynamodbav:"price" json:"price"`
	Image     string    `dynamodbav:"image,omitempty" json:"image,omitempty"`
	AddedAt   time.Time `dynamodbav:"added_at" json:"added_at"`
}

type record struct {
	UserID    string    `dynamodbav:"user_id"` // PK
	Entries   []Entry   `dynamodbav:"entries"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// Store keeps one wishlist document per user. Adding an already saved
// product is a no-op; the list never holds duplicates.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName, nowFunc: time.Now}
}

// List returns the user's saved products.
func (s *Store) List(ctx context.Context, userID string) ([]Entry, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []Entry{}, nil
	}
	return rec.Entries, nil
}

// Add saves a product for the user.
func (s *Store) Add(ctx context.Context, userID string, e Entry) ([]Entry, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &record{UserID: userID}
	}
	for _, existing := range rec.Entries {
		if existing.ProductID == e.ProductID {
			return rec.Entries, nil
		}
	}
	e.AddedAt = s.nowFunc()
	rec.Entries = append(rec.Entries, e)
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec.Entries, nil
}

// Remove drops a product from the list; removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, userID, productID string) ([]Entry, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []Entry{}, nil
	}
	kept := make([]Entry, 0, len(rec.Entries))
	for _, e := range rec.Entries {
		if e.ProductID != productID {
			kept = append(kept, e)
		}
	}
	rec.Entries = kept
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec.Entries, nil
}

func (s *Store) load(ctx context.Context, userID string) (*record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal wishlist: %w", err)
	}
	return &rec, nil
}

func (s *Store) save(ctx context.Context, rec *record) error {
	rec.UpdatedAt = s.nowFunc()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal wishlist: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put wishlist: %w", err)
	}
	return nil
}
