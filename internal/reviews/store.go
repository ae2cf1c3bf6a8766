package reviews

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// ProductIndex is the GSI used to list reviews for one product.
const ProductIndex = "product_id-index"

// Review is one customer review of a product.
type Review struct {
	ReviewID  string    `dynamodbav:"review_id" json:"review_id"`   // PK
	ProductID string    `dynamodbav:"product_id" json:"product_id"` // GSI PK
	UserID    string    `dynamodbav:"user_id" json:"user_id"`
	UserName  string    `dynamodbav:"user_name" json:"user_name"`
	Rating    int       `dynamodbav:"rating" json:"rating"` // 1..5
	Comment   string    `dynamodbav:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Store encapsulates the reviews table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	newID     func() string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
}

// Upsert writes a review, keeping at most one per user per product: a second
// review from the same user replaces the first. Rating bounds are enforced
// here as the last line of defense behind request validation.
func (s *Store) Upsert(ctx context.Context, r Review) (*Review, error) {
	if r.Rating < 1 || r.Rating > 5 {
		return nil, fmt.Errorf("rating %d out of range", r.Rating)
	}

	existing, err := s.ListByProduct(ctx, r.ProductID)
	if err != nil {
		return nil, err
	}
	r.ReviewID = s.newID()
	for _, prev := range existing {
		if prev.UserID == r.UserID {
			r.ReviewID = prev.ReviewID
			break
		}
	}
	r.CreatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put review: %w", err)
	}
	return &r, nil
}

// Get fetches one review. Returns (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, reviewID string) (*Review, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"review_id": &types.AttributeValueMemberS{Value: reviewID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var r Review
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal review: %w", err)
	}
	return &r, nil
}

// Delete removes a review.
func (s *Store) Delete(ctx context.Context, reviewID string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"review_id": &types.AttributeValueMemberS{Value: reviewID},
		},
	}); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// ListAll scans every review for the admin back office.
func (s *Store) ListAll(ctx context.Context) ([]Review, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{TableName: &s.tableName})
	if err != nil {
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	reviews := make([]Review, 0, len(out.Items))
	for _, item := range out.Items {
		var r Review
		if err := attributevalue.UnmarshalMap(item, &r); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
		reviews = append(reviews, r)
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

// ListByProduct returns a product's reviews, newest first.
func (s *Store) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	index := ProductIndex
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              &index,
		KeyConditionExpression: awsString("product_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	reviews := make([]Review, 0, len(out.Items))
	for _, item := range out.Items {
		var r Review
		if err := attributevalue.UnmarshalMap(item, &r); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
		reviews = append(reviews, r)
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func awsString(s string) *string { return &s }
