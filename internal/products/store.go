package products

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/mauli-interior/go-storefront/internal/aws"
)

// Product is one catalog entry.
type Product struct {
	ProductID   string    `dynamodbav:"product_id" json:"product_id"` // PK
	Name        string    `dynamodbav:"name" json:"name"`
	Description string    `dynamodbav:"description" json:"description"`
	Price       float64   `dynamodbav:"price" json:"price"`
	Image       string    `dynamodbav:"image,omitempty" json:"image,omitempty"`
	Category    string    `dynamodbav:"category,omitempty" json:"category,omitempty"`
	InStock     bool      `dynamodbav:"in_stock" json:"in_stock"`
	CreatedAt   time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// Store encapsulates the products table.
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

// Create assigns an id and writes the product.
func (s *Store) Create(ctx context.Context, p Product) (*Product, error) {
	now := s.nowFunc()
	p.ProductID = s.newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put product: %w", err)
	}
	return &p, nil
}

// Get fetches one product. Returns (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// List scans the catalog, optionally filtered by category.
func (s *Store) List(ctx context.Context, category string) ([]Product, error) {
	input := &dyn.ScanInput{TableName: &s.tableName}
	if category != "" {
		input.FilterExpression = awsString("category = :c")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: category},
		}
	}
	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	products := make([]Product, 0, len(out.Items))
	for _, item := range out.Items {
		var p Product
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("unmarshal product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Update overwrites the mutable fields, keeping id and created_at.
func (s *Store) Update(ctx context.Context, p Product) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: p.ProductID},
		},
		UpdateExpression:    awsString("SET #n = :n, description = :d, price = :p, image = :i, category = :c, in_stock = :st, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(product_id)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":  &types.AttributeValueMemberS{Value: p.Name},
			":d":  &types.AttributeValueMemberS{Value: p.Description},
			":p":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%g", p.Price)},
			":i":  &types.AttributeValueMemberS{Value: p.Image},
			":c":  &types.AttributeValueMemberS{Value: p.Category},
			":st": &types.AttributeValueMemberBOOL{Value: p.InStock},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product from the catalog.
func (s *Store) Delete(ctx context.Context, productID string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	}); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
