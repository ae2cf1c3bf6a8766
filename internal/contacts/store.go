package contacts

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

// Message is one contact-form submission. Read starts false and is flipped
// from the admin back office.
type Message struct {
	ContactID string    `dynamodbav:"contact_id" json:"contact_id"` // PK
	Name      string    `dynamodbav:"name" json:"name"`
	Email     string    `dynamodbav:"email" json:"email"`
	Message   string    `dynamodbav:"message" json:"message"`
	Read      bool      `dynamodbav:"read" json:"read"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
}

// Store encapsulates the contacts table.
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

// Create stores a submission.
func (s *Store) Create(ctx context.Context, m Message) (*Message, error) {
	m.ContactID = s.newID()
	m.Read = false
	m.CreatedAt = s.nowFunc()

	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return nil, fmt.Errorf("marshal contact: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put contact: %w", err)
	}
	return &m, nil
}

// List returns all submissions, newest first, for the admin back office.
func (s *Store) List(ctx context.Context) ([]Message, error) {
	out, err := s.client.Scan(ctx, &dyn.ScanInput{TableName: &s.tableName})
	if err != nil {
		return nil, fmt.Errorf("scan contacts: %w", err)
	}
	messages := make([]Message, 0, len(out.Items))
	for _, item := range out.Items {
		var m Message
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("unmarshal contact: %w", err)
		}
		messages = append(messages, m)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// Delete removes a submission.
func (s *Store) Delete(ctx context.Context, contactID string) error {
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"contact_id": &types.AttributeValueMemberS{Value: contactID},
		},
	}); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// MarkRead flips the read flag.
func (s *Store) MarkRead(ctx context.Context, contactID string) error {
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"contact_id": &types.AttributeValueMemberS{Value: contactID},
		},
		UpdateExpression:    awsString("SET #r = :t"),
		ConditionExpression: awsString("attribute_exists(contact_id)"),
		ExpressionAttributeNames: map[string]string{
			"#r": "read",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("mark contact read: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
